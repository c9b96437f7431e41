// Package schema holds the static table metadata used by the entity gateway.
// Route names, table names and column whitelists are only ever read from here.
package schema

// Entity 实体标识，同时作为路由名
type Entity string

// 已注册实体
const (
	EntityPost        Entity = "posts"
	EntityProduct     Entity = "products"
	EntityOrder       Entity = "orders"
	EntityComment     Entity = "comments"
	EntitySiteContent Entity = "content"
	EntityAdminUser   Entity = "admins"
)

// Kind 字段存储类型
type Kind int

// 字段类型
const (
	KindString Kind = iota
	KindText
	KindInt
	KindDecimal
	KindBool
	KindJSON
	KindDate
	KindTimestamp
)

// Operation 网关操作
type Operation string

// 网关操作
const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AllOperations 全部网关操作
var AllOperations = []Operation{OpList, OpGet, OpCreate, OpUpdate, OpDelete}

// Field 字段定义
type Field struct {
	Name      string
	Kind      Kind
	Required  bool        // 创建时必填
	ReadOnly  bool        // 客户端不可写
	Immutable bool        // 仅创建时可写
	Hidden    bool        // 任何读取路径都不返回
	AdminOnly bool        // 仅管理员可见
	Enum      []string    // 允许值，空字符串始终允许
	Default   interface{} // 创建时缺省值
}

// Writable 客户端在给定模式下是否可写
func (f Field) Writable(update bool) bool {
	if f.ReadOnly {
		return false
	}
	if update && f.Immutable {
		return false
	}
	return true
}

// Allowed 判断枚举值是否合法
func (f Field) Allowed(value string) bool {
	if len(f.Enum) == 0 || value == "" {
		return true
	}
	for _, item := range f.Enum {
		if item == value {
			return true
		}
	}
	return false
}

// Definition 实体定义
type Definition struct {
	Entity          Entity
	Table           string
	SlugField       string // 公开查询键，为空表示只支持按 id 查询
	UpsertKey       string // 创建时按该键覆盖写入
	Fields          []Field
	Operations      []Operation
	GuestOperations []Operation
	GuestScope      map[string]interface{} // 游客只能看到满足这些条件的行
	NewModel        func() interface{}

	index map[string]int
}

// Name 返回实体路由名
func (d *Definition) Name() string {
	return string(d.Entity)
}

// Field 按列名查找字段
func (d *Definition) Field(name string) (Field, bool) {
	idx, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[idx], true
}

// HasSlug 是否支持按 slug 查询
func (d *Definition) HasSlug() bool {
	return d.SlugField != ""
}

// Columns 返回全部已登记列（含 id）
func (d *Definition) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, "id")
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Filterable 字段能否作为列表筛选条件
func (f Field) Filterable(admin bool) bool {
	if f.Hidden || f.Kind == KindJSON {
		return false
	}
	return admin || !f.AdminOnly
}

// Allows 实体是否开放该操作
func (d *Definition) Allows(op Operation) bool {
	return containsOp(d.Operations, op)
}

// GuestAllows 游客是否可执行该操作
func (d *Definition) GuestAllows(op Operation) bool {
	return d.Allows(op) && containsOp(d.GuestOperations, op)
}

func containsOp(ops []Operation, op Operation) bool {
	for _, item := range ops {
		if item == op {
			return true
		}
	}
	return false
}

func (d *Definition) buildIndex() {
	d.index = make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		d.index[f.Name] = i
	}
}
