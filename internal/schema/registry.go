package schema

import (
	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/models"
)

var (
	readOps  = []Operation{OpList, OpGet}
	registry = map[Entity]*Definition{}
	ordered  []*Definition
)

func init() {
	register(&Definition{
		Entity:    EntityPost,
		Table:     "blog_posts",
		SlugField: "slug",
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true},
			{Name: "slug", Kind: KindString, Required: true},
			{Name: "excerpt", Kind: KindText},
			{Name: "content", Kind: KindText},
			{Name: "cover_image", Kind: KindString},
			{Name: "category", Kind: KindString, Enum: constants.PostCategories},
			{Name: "tags", Kind: KindJSON},
			{Name: "author_name", Kind: KindString},
			{Name: "publish_date", Kind: KindDate},
			{Name: "published", Kind: KindBool, Default: false},
			{Name: "read_time", Kind: KindInt},
			{Name: "views", Kind: KindInt, ReadOnly: true},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "updated_at", Kind: KindTimestamp, ReadOnly: true},
		},
		Operations:      AllOperations,
		GuestOperations: readOps,
		GuestScope:      map[string]interface{}{"published": true},
		NewModel:        func() interface{} { return &models.Post{} },
	})
	register(&Definition{
		Entity:    EntityProduct,
		Table:     "products",
		SlugField: "slug",
		Fields: []Field{
			{Name: "name", Kind: KindString, Required: true},
			{Name: "slug", Kind: KindString, Required: true},
			{Name: "description", Kind: KindText},
			{Name: "short_description", Kind: KindString},
			{Name: "price", Kind: KindDecimal, Required: true},
			{Name: "price_unit", Kind: KindString, Enum: constants.PriceUnits},
			{Name: "category", Kind: KindString, Enum: constants.ProductCategories},
			{Name: "image", Kind: KindString},
			{Name: "in_stock", Kind: KindBool, Default: true},
			{Name: "featured", Kind: KindBool, Default: false},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "updated_at", Kind: KindTimestamp, ReadOnly: true},
		},
		Operations:      AllOperations,
		GuestOperations: readOps,
		NewModel:        func() interface{} { return &models.Product{} },
	})
	register(&Definition{
		Entity: EntityOrder,
		Table:  "orders",
		Fields: []Field{
			{Name: "order_number", Kind: KindString, Immutable: true},
			{Name: "customer_name", Kind: KindString, Required: true},
			{Name: "customer_phone", Kind: KindString, Required: true},
			{Name: "customer_email", Kind: KindString},
			{Name: "customer_address", Kind: KindText, Required: true},
			{Name: "delivery_date", Kind: KindDate},
			{Name: "notes", Kind: KindText},
			{Name: "items", Kind: KindJSON, Required: true},
			{Name: "total", Kind: KindDecimal, Required: true},
			{Name: "status", Kind: KindString, Enum: constants.OrderStatuses},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "updated_at", Kind: KindTimestamp, ReadOnly: true},
		},
		Operations:      AllOperations,
		GuestOperations: []Operation{OpCreate},
		NewModel:        func() interface{} { return &models.Order{} },
	})
	register(&Definition{
		Entity: EntityComment,
		Table:  "blog_comments",
		Fields: []Field{
			{Name: "post_id", Kind: KindInt, Required: true},
			{Name: "author_name", Kind: KindString, Required: true},
			{Name: "author_email", Kind: KindString, AdminOnly: true},
			{Name: "content", Kind: KindText, Required: true},
			{Name: "approved", Kind: KindBool, Default: false},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
		},
		Operations:      AllOperations,
		GuestOperations: []Operation{OpList, OpGet, OpCreate},
		GuestScope:      map[string]interface{}{"approved": true},
		NewModel:        func() interface{} { return &models.Comment{} },
	})
	register(&Definition{
		Entity:    EntitySiteContent,
		Table:     "site_content",
		SlugField: "section_key",
		UpsertKey: "section_key",
		Fields: []Field{
			{Name: "section_key", Kind: KindString, Required: true},
			{Name: "value", Kind: KindText},
			{Name: "content_type", Kind: KindString, Default: constants.ContentTypeText},
			{Name: "page", Kind: KindString, Default: constants.ContentPageAll},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "updated_at", Kind: KindTimestamp, ReadOnly: true},
		},
		Operations:      AllOperations,
		GuestOperations: readOps,
		NewModel:        func() interface{} { return &models.SiteContent{} },
	})
	register(&Definition{
		Entity: EntityAdminUser,
		Table:  "admin_users",
		Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "email", Kind: KindString},
			{Name: "password_hash", Kind: KindString, ReadOnly: true, Hidden: true},
			{Name: "last_login_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "created_at", Kind: KindTimestamp, ReadOnly: true},
			{Name: "updated_at", Kind: KindTimestamp, ReadOnly: true},
		},
		// 管理员只能经由 /api/auth/register-admin 创建
		Operations: []Operation{OpList, OpGet, OpDelete},
		NewModel:   func() interface{} { return &models.AdminUser{} },
	})
}

func register(def *Definition) {
	def.buildIndex()
	registry[def.Entity] = def
	ordered = append(ordered, def)
}

// Lookup 按路由名查找实体定义
func Lookup(name string) (*Definition, bool) {
	def, ok := registry[Entity(name)]
	return def, ok
}

// MustGet 返回已注册实体定义，未注册时 panic
func MustGet(entity Entity) *Definition {
	def, ok := registry[entity]
	if !ok {
		panic("schema: entity not registered: " + string(entity))
	}
	return def
}

// All 按注册顺序返回全部实体定义
func All() []*Definition {
	out := make([]*Definition, len(ordered))
	copy(out, ordered)
	return out
}
