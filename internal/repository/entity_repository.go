package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/schema"

	"github.com/go-viper/mapstructure/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row 数据库原始行（列名 -> 值）
type Row = map[string]interface{}

// EntityRepository 通用实体数据访问接口
// 表名与列名只来源于 schema.Definition，值一律以参数绑定。
type EntityRepository interface {
	List(ctx context.Context, def *schema.Definition, conds Row) ([]Row, error)
	FindByID(ctx context.Context, def *schema.Definition, id uint) (Row, error)
	FindByField(ctx context.Context, def *schema.Definition, field string, value interface{}) (Row, error)
	CountByField(ctx context.Context, def *schema.Definition, field string, value interface{}, excludeID uint) (int64, error)
	Create(ctx context.Context, def *schema.Definition, values Row) (uint, error)
	Update(ctx context.Context, def *schema.Definition, id uint, values Row) error
	Delete(ctx context.Context, def *schema.Definition, id uint) (int64, error)
	Increment(ctx context.Context, def *schema.Definition, id uint, field string) (int64, error)
}

// GormEntityRepository GORM 实现
type GormEntityRepository struct {
	db *gorm.DB
}

// NewEntityRepository 创建通用实体仓库
func NewEntityRepository(db *gorm.DB) *GormEntityRepository {
	return &GormEntityRepository{db: db}
}

func (r *GormEntityRepository) table(ctx context.Context, def *schema.Definition) *gorm.DB {
	return r.db.WithContext(ctx).Table(def.Table)
}

// List 按创建顺序倒序返回满足等值条件的行，conds 为空时返回全部
func (r *GormEntityRepository) List(ctx context.Context, def *schema.Definition, conds Row) ([]Row, error) {
	query := r.table(ctx, def)
	for field, value := range conds {
		if _, ok := def.Field(field); !ok {
			return nil, fmt.Errorf("field %s is not registered for %s", field, def.Name())
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: field}, Value: value})
	}
	rows := make([]Row, 0)
	if err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID 根据主键获取单行
func (r *GormEntityRepository) FindByID(ctx context.Context, def *schema.Definition, id uint) (Row, error) {
	return r.take(r.table(ctx, def).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}))
}

// FindByField 根据已登记字段获取单行
func (r *GormEntityRepository) FindByField(ctx context.Context, def *schema.Definition, field string, value interface{}) (Row, error) {
	if _, ok := def.Field(field); !ok {
		return nil, fmt.Errorf("field %s is not registered for %s", field, def.Name())
	}
	return r.take(r.table(ctx, def).Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}))
}

func (r *GormEntityRepository) take(query *gorm.DB) (Row, error) {
	row := Row{}
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(row) == 0 {
		return nil, nil
	}
	return row, nil
}

// CountByField 统计字段取值的行数，excludeID 非零时排除该行
func (r *GormEntityRepository) CountByField(ctx context.Context, def *schema.Definition, field string, value interface{}, excludeID uint) (int64, error) {
	if _, ok := def.Field(field); !ok {
		return 0, fmt.Errorf("field %s is not registered for %s", field, def.Name())
	}
	query := r.table(ctx, def).Where(clause.Eq{Column: clause.Column{Name: field}, Value: value})
	if excludeID > 0 {
		query = query.Where(clause.Neq{Column: clause.Column{Name: "id"}, Value: excludeID})
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 写入新行并返回主键
func (r *GormEntityRepository) Create(ctx context.Context, def *schema.Definition, values Row) (uint, error) {
	model := def.NewModel()
	if err := decodeInto(model, values); err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, err
	}
	return primaryKeyOf(model), nil
}

// Update 按主键更新
func (r *GormEntityRepository) Update(ctx context.Context, def *schema.Definition, id uint, values Row) error {
	if len(values) == 0 {
		return nil
	}
	if _, ok := def.Field("updated_at"); ok {
		values["updated_at"] = time.Now()
	}
	return r.table(ctx, def).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
		Updates(values).Error
}

// Delete 按主键删除，返回受影响行数
func (r *GormEntityRepository) Delete(ctx context.Context, def *schema.Definition, id uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
		Delete(def.NewModel())
	return result.RowsAffected, result.Error
}

// Increment 原子自增计数列
func (r *GormEntityRepository) Increment(ctx context.Context, def *schema.Definition, id uint, field string) (int64, error) {
	f, ok := def.Field(field)
	if !ok || f.Kind != schema.KindInt {
		return 0, fmt.Errorf("field %s is not a counter of %s", field, def.Name())
	}
	result := r.table(ctx, def).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
		UpdateColumn(field, gorm.Expr("? + 1", clause.Column{Name: field}))
	return result.RowsAffected, result.Error
}

var moneyType = reflect.TypeOf(models.Money{})

// decodeInto 将列值写入 GORM 模型，布尔列接受 1/0
func decodeInto(model interface{}, values Row) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           model,
		DecodeHook: func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
			if to != moneyType {
				return data, nil
			}
			return models.ParseMoney(data)
		},
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("decode %T: %w", model, err)
	}
	return nil
}

func primaryKeyOf(model interface{}) uint {
	v := reflect.Indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Struct {
		return 0
	}
	field := v.FieldByName("ID")
	if !field.IsValid() {
		return 0
	}
	switch field.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return uint(field.Uint())
	case reflect.Int, reflect.Int32, reflect.Int64:
		return uint(field.Int())
	}
	return 0
}
