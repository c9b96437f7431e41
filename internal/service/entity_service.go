package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
	"github.com/polbel-next/internal/transform"

	"gorm.io/gorm"
)

// Record 客户端形态的实体记录
type Record = map[string]interface{}

// Actor 当前请求的调用方，nil 表示游客
type Actor struct {
	AdminID uint
	Email   string
}

// IsAdmin 是否为已认证管理员
func (a *Actor) IsAdmin() bool {
	return a != nil && a.AdminID > 0
}

// Audience 返回读取方
func (a *Actor) Audience() transform.Audience {
	if a.IsAdmin() {
		return transform.AudienceAdmin
	}
	return transform.AudienceGuest
}

// EntityHooks 实体级扩展点
// 钩子可以修改传入的记录；Before* 返回错误时写入被拒绝。
type EntityHooks struct {
	BeforeCreate func(ctx context.Context, actor *Actor, record Record) error
	AfterCreate  func(ctx context.Context, id uint, record Record)
	BeforeUpdate func(ctx context.Context, actor *Actor, current Record, changes Record) error
	AfterUpdate  func(ctx context.Context, id uint, current Record, changes Record)
	AfterDelete  func(ctx context.Context, id uint)
}

// EntityService 通用实体网关
// 所有实体共用同一套 list/get/create/update/delete 语义，差异由 schema 与钩子描述。
type EntityService struct {
	repo repository.EntityRepository

	mu    sync.RWMutex
	hooks map[schema.Entity][]EntityHooks
}

// NewEntityService 创建实体网关
func NewEntityService(repo repository.EntityRepository) *EntityService {
	return &EntityService{
		repo:  repo,
		hooks: make(map[schema.Entity][]EntityHooks),
	}
}

// Use 为实体追加钩子
func (s *EntityService) Use(entity schema.Entity, hooks EntityHooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[entity] = append(s.hooks[entity], hooks)
}

func (s *EntityService) hooksFor(entity schema.Entity) []EntityHooks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks[entity]
}

func resolve(entity schema.Entity, op schema.Operation) (*schema.Definition, error) {
	def, ok := schema.Lookup(string(entity))
	if !ok {
		return nil, ErrNotFound
	}
	if !def.Allows(op) {
		return nil, ErrOperationNotAllowed
	}
	return def, nil
}

// List 返回满足筛选条件的记录，按创建顺序倒序
// filters 为客户端形态的等值条件；游客额外受实体 GuestScope 约束。
func (s *EntityService) List(ctx context.Context, entity schema.Entity, filters Record, actor *Actor) ([]Record, error) {
	def, err := resolve(entity, schema.OpList)
	if err != nil {
		return nil, err
	}
	conds, err := transform.Filters(def, filters, actor.Audience())
	if err != nil {
		return nil, asValidation(err)
	}
	scope, err := guestScope(def, actor)
	if err != nil {
		return nil, err
	}
	for column, value := range scope {
		if requested, ok := conds[column]; ok && fmt.Sprint(requested) != fmt.Sprint(value) {
			return []Record{}, nil
		}
		conds[column] = value
	}
	rows, err := s.repo.List(ctx, def, conds)
	if err != nil {
		return nil, storageErr("list "+def.Name(), err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, transform.FromStorage(def, row, actor.Audience()))
	}
	return out, nil
}

// Get 按 id 或 slug 获取单条记录
// 数字标识先按 id 匹配，未命中再按 slug 匹配；游客看不到 GuestScope 之外的行。
func (s *EntityService) Get(ctx context.Context, entity schema.Entity, ident string, actor *Actor) (Record, error) {
	def, err := resolve(entity, schema.OpGet)
	if err != nil {
		return nil, err
	}
	row, err := s.findVisibleRow(ctx, def, ident, actor)
	if err != nil {
		return nil, err
	}
	return transform.FromStorage(def, row, actor.Audience()), nil
}

func (s *EntityService) findVisibleRow(ctx context.Context, def *schema.Definition, ident string, actor *Actor) (repository.Row, error) {
	row, err := s.findRow(ctx, def, ident)
	if err != nil {
		return nil, err
	}
	scope, err := guestScope(def, actor)
	if err != nil {
		return nil, err
	}
	if !transform.Matches(def, row, scope) {
		return nil, ErrNotFound
	}
	return row, nil
}

// guestScope 返回游客的行级条件，管理员不受限
func guestScope(def *schema.Definition, actor *Actor) (map[string]interface{}, error) {
	if actor.IsAdmin() || len(def.GuestScope) == 0 {
		return nil, nil
	}
	scope, err := transform.Filters(def, def.GuestScope, transform.AudienceAdmin)
	if err != nil {
		return nil, storageErr("guest scope "+def.Name(), err)
	}
	return scope, nil
}

func (s *EntityService) findRow(ctx context.Context, def *schema.Definition, ident string) (repository.Row, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil, ErrNotFound
	}
	if id, ok := parseID(ident); ok {
		row, err := s.repo.FindByID(ctx, def, id)
		if err != nil {
			return nil, storageErr("get "+def.Name(), err)
		}
		if row != nil {
			return row, nil
		}
	}
	if !def.HasSlug() {
		return nil, ErrNotFound
	}
	row, err := s.repo.FindByField(ctx, def, def.SlugField, ident)
	if err != nil {
		return nil, storageErr("get "+def.Name(), err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Create 创建记录，返回提交内容与分配的 id
// 设置了 UpsertKey 的实体在键已存在时只用提交的字段更新该行，缺省值仅用于新行。
func (s *EntityService) Create(ctx context.Context, entity schema.Entity, payload Record, actor *Actor) (Record, error) {
	def, err := resolve(entity, schema.OpCreate)
	if err != nil {
		return nil, err
	}

	record := sanitize(def, payload, transform.ModeCreate)
	existingID, err := s.upsertTarget(ctx, def, record)
	if err != nil {
		return nil, err
	}
	if existingID == 0 {
		for _, f := range def.Fields {
			if _, present := record[f.Name]; !present && f.Default != nil && f.Writable(false) {
				record[f.Name] = f.Default
			}
		}
	}
	if err := transform.Validate(def, record, transform.ModeCreate); err != nil {
		return nil, asValidation(err)
	}
	for _, h := range s.hooksFor(def.Entity) {
		if h.BeforeCreate == nil {
			continue
		}
		if err := h.BeforeCreate(ctx, actor, record); err != nil {
			return nil, err
		}
	}

	values, err := transform.ToStorage(def, record, transform.ModeCreate)
	if err != nil {
		return nil, asValidation(err)
	}

	id := existingID
	if existingID > 0 {
		err = translateWriteErr("upsert "+def.Name(), s.repo.Update(ctx, def, existingID, values))
	} else {
		if err := s.ensureSlugFree(ctx, def, record, 0); err != nil {
			return nil, err
		}
		id, err = s.repo.Create(ctx, def, values)
		err = translateWriteErr("create "+def.Name(), err)
	}
	if err != nil {
		return nil, err
	}

	record["id"] = id
	for _, h := range s.hooksFor(def.Entity) {
		if h.AfterCreate != nil {
			h.AfterCreate(ctx, id, record)
		}
	}
	return record, nil
}

// upsertTarget 返回与提交键相同的已有行 id，没有则返回 0
func (s *EntityService) upsertTarget(ctx context.Context, def *schema.Definition, record Record) (uint, error) {
	if def.UpsertKey == "" {
		return 0, nil
	}
	key, present := record[def.UpsertKey]
	if !present || strings.TrimSpace(fmt.Sprint(valueOrEmpty(key))) == "" {
		return 0, nil
	}
	existing, err := s.repo.FindByField(ctx, def, def.UpsertKey, key)
	if err != nil {
		return 0, storageErr("upsert "+def.Name(), err)
	}
	if existing == nil {
		return 0, nil
	}
	id, ok := parseID(fmt.Sprint(transform.FromStorage(def, existing, transform.AudienceAdmin)["id"]))
	if !ok {
		return 0, storageErr("upsert "+def.Name(), errors.New("existing row has no numeric id"))
	}
	return id, nil
}

// Update 按 id 更新记录；id 与不可变字段会被剥离
func (s *EntityService) Update(ctx context.Context, entity schema.Entity, ident string, payload Record, actor *Actor) error {
	def, err := resolve(entity, schema.OpUpdate)
	if err != nil {
		return err
	}
	id, ok := parseID(ident)
	if !ok {
		return invalid("id", "must be a positive integer")
	}

	row, err := s.repo.FindByID(ctx, def, id)
	if err != nil {
		return storageErr("update "+def.Name(), err)
	}
	if row == nil {
		return ErrNotFound
	}

	changes := sanitize(def, payload, transform.ModeUpdate)
	if err := transform.Validate(def, changes, transform.ModeUpdate); err != nil {
		return asValidation(err)
	}
	current := transform.FromStorage(def, row, transform.AudienceAdmin)
	for _, h := range s.hooksFor(def.Entity) {
		if h.BeforeUpdate == nil {
			continue
		}
		if err := h.BeforeUpdate(ctx, actor, current, changes); err != nil {
			return err
		}
	}

	values, err := transform.ToStorage(def, changes, transform.ModeUpdate)
	if err != nil {
		return asValidation(err)
	}
	if err := s.ensureSlugFree(ctx, def, changes, id); err != nil {
		return err
	}
	if def.UpsertKey != "" {
		if key, present := changes[def.UpsertKey]; present {
			count, err := s.repo.CountByField(ctx, def, def.UpsertKey, key, id)
			if err != nil {
				return storageErr("update "+def.Name(), err)
			}
			if count > 0 {
				return ErrConflict
			}
		}
	}
	if err := s.repo.Update(ctx, def, id, values); err != nil {
		return translateWriteErr("update "+def.Name(), err)
	}

	for _, h := range s.hooksFor(def.Entity) {
		if h.AfterUpdate != nil {
			h.AfterUpdate(ctx, id, current, changes)
		}
	}
	return nil
}

// Delete 按 id 删除；目标不存在时不报错
func (s *EntityService) Delete(ctx context.Context, entity schema.Entity, ident string) error {
	def, err := resolve(entity, schema.OpDelete)
	if err != nil {
		return err
	}
	id, ok := parseID(ident)
	if !ok {
		return invalid("id", "must be a positive integer")
	}
	affected, err := s.repo.Delete(ctx, def, id)
	if err != nil {
		return storageErr("delete "+def.Name(), err)
	}
	if affected == 0 {
		return nil
	}
	for _, h := range s.hooksFor(def.Entity) {
		if h.AfterDelete != nil {
			h.AfterDelete(ctx, id)
		}
	}
	return nil
}

// Increment 原子自增计数字段（如文章浏览量），只对游客可见的行生效
func (s *EntityService) Increment(ctx context.Context, entity schema.Entity, ident, field string) error {
	def, err := resolve(entity, schema.OpGet)
	if err != nil {
		return err
	}
	row, err := s.findVisibleRow(ctx, def, ident, nil)
	if err != nil {
		return err
	}
	id, ok := parseID(fmt.Sprint(transform.FromStorage(def, row, transform.AudienceAdmin)["id"]))
	if !ok {
		return ErrNotFound
	}
	if _, err := s.repo.Increment(ctx, def, id, field); err != nil {
		return storageErr("increment "+def.Name(), err)
	}
	return nil
}

func (s *EntityService) ensureSlugFree(ctx context.Context, def *schema.Definition, record Record, excludeID uint) error {
	if def.SlugField == "" || def.UpsertKey == def.SlugField {
		return nil
	}
	slug, present := record[def.SlugField]
	if !present {
		return nil
	}
	count, err := s.repo.CountByField(ctx, def, def.SlugField, slug, excludeID)
	if err != nil {
		return storageErr("check slug "+def.Name(), err)
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// sanitize 复制可写字段，丢弃 id 与未登记字段
func sanitize(def *schema.Definition, payload Record, mode transform.Mode) Record {
	out := make(Record, len(payload))
	for key, value := range payload {
		f, ok := def.Field(key)
		if !ok || !f.Writable(mode == transform.ModeUpdate) {
			continue
		}
		out[key] = value
	}
	return out
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func asValidation(err error) error {
	var fe *transform.FieldError
	if errors.As(err, &fe) {
		return invalid(fe.Field, fe.Reason)
	}
	return invalid("", err.Error())
}

func translateWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return storageErr(op, err)
}
