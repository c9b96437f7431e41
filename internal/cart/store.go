package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidProduct 商品缺少标识
	ErrInvalidProduct = errors.New("cart: product id is required")
	// ErrInvalidQuantity 加购数量必须为正
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	// ErrItemNotFound 购物车中无此商品
	ErrItemNotFound = errors.New("cart: item not found")
)

// Product 加购时读取的商品展示字段
type Product struct {
	ID        uint         `json:"id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	PriceUnit string       `json:"price_unit"`
	Slug      string       `json:"slug"`
	MainImage string       `json:"main_image"`
	Image     string       `json:"image"`
}

// Item 购物车项：加购时刻的商品快照 + 数量
// 快照不会随商品表刷新，改价不影响已加购商品。
type Item struct {
	ID        uint         `json:"id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	PriceUnit string       `json:"price_unit"`
	Slug      string       `json:"slug"`
	MainImage string       `json:"main_image"`
	Quantity  int          `json:"quantity"`
}

// Subtotal 单价 × 数量
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Store 购物车
// 每次变更都会完整序列化并同步写入 Storage，写入失败时内存状态保持不变。
// 多个进程共享同一个键时以最后一次写入为准。
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	items   []Item
}

// New 创建购物车并从存储恢复
// 存储内容损坏时按空购物车处理，仅记录告警。
func New(ctx context.Context, storage Storage, key string) (*Store, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("cart: storage key is required")
	}
	s := &Store{storage: storage, key: key}

	raw, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cart: load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.Warnw("cart_restore_failed", "key", key, "error", err)
		return s, nil
	}
	s.items = compact(items)
	return s, nil
}

// AddItem 加购；已存在时累加数量
func (s *Store) AddItem(ctx context.Context, product Product, quantity int) error {
	if product.ID == 0 {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	for i := range next {
		if next[i].ID == product.ID {
			next[i].Quantity += quantity
			return s.commit(ctx, next)
		}
	}
	image := product.MainImage
	if image == "" {
		image = product.Image
	}
	next = append(next, Item{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		PriceUnit: product.PriceUnit,
		Slug:      product.Slug,
		MainImage: image,
		Quantity:  quantity,
	})
	return s.commit(ctx, next)
}

// SetQuantity 设置数量；quantity <= 0 时移除
func (s *Store) SetQuantity(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
			return s.commit(ctx, next)
		}
	}
	return ErrItemNotFound
}

// Remove 移除商品，不存在时不报错
func (s *Store) Remove(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	return s.commit(ctx, next)
}

// Clear 清空
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []Item{})
}

// Snapshot 返回当前购物车的副本
func (s *Store) Snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneItems()
}

// Total Σ(单价 × 数量)，每次读取时计算
func (s *Store) Total() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return models.NewMoneyFromDecimal(total)
}

// Count 商品件数合计
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Len 不同商品数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsEmpty 是否为空
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Store) commit(ctx context.Context, next []Item) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, raw); err != nil {
		return fmt.Errorf("cart: save %s: %w", s.key, err)
	}
	s.items = next
	return nil
}

func (s *Store) cloneItems() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// compact 丢弃无效项并合并重复商品
func compact(items []Item) []Item {
	out := make([]Item, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.ID == 0 || item.Quantity <= 0 {
			continue
		}
		if pos, ok := index[item.ID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
