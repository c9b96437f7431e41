package constants

// 订单状态常量
const (
	OrderStatusNew        = "new"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses 全部订单状态
var OrderStatuses = []string{
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// 文章分类
const (
	PostCategoryGuides     = "poradniki"
	PostCategoryProjects   = "realizacje"
	PostCategoryNews       = "nowosci"
	PostCategoryTechnology = "technologie"
	PostCategoryIndustry   = "branza"
)

// PostCategories 文章分类枚举
var PostCategories = []string{
	PostCategoryGuides,
	PostCategoryProjects,
	PostCategoryNews,
	PostCategoryTechnology,
	PostCategoryIndustry,
}

// 商品分类
const (
	ProductCategoryMaterials = "materialy"
	ProductCategoryRental    = "wynajem"
	ProductCategoryServices  = "uslugi"
	ProductCategoryTransport = "transport"
)

// ProductCategories 商品分类枚举
var ProductCategories = []string{
	ProductCategoryMaterials,
	ProductCategoryRental,
	ProductCategoryServices,
	ProductCategoryTransport,
}

// PriceUnits 计价单位枚举
var PriceUnits = []string{"szt", "m2", "m3", "mb", "godz", "dzień", "usluga"}

// 站点文案默认值
const (
	ContentTypeText = "text"
	ContentPageAll  = "global"
)

// 订单号前缀
const OrderNumberPrefix = "POL-"

// 角色
const (
	RoleGuest = "guest"
	RoleAdmin = "admin"
)
