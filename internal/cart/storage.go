package cart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Storage 购物车持久化端口
// Load 在键不存在时返回 (nil, nil)。
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemoryStorage 进程内存储，用于测试与一次性会话
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage 创建内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Load 读取
func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

// Save 写入
func (s *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// FileStorage 每个键对应目录下的一个 JSON 文件
type FileStorage struct {
	dir string
}

// NewFileStorage 创建文件存储
func NewFileStorage(dir string) *FileStorage {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	return &FileStorage{dir: dir}
}

// Path 返回键对应的文件路径
func (s *FileStorage) Path(key string) string {
	name := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(key), "_")
	if name == "" {
		name = "cart"
	}
	return filepath.Join(s.dir, name+".json")
}

// Load 读取文件，不存在时返回空
func (s *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	return raw, nil
}

// Save 先写临时文件再 rename，避免读到半截内容
func (s *FileStorage) Save(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	target := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cart temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cart file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}

// RedisStorage 基于 Redis 字符串键的存储
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage 创建 Redis 存储，prefix 为空时直接使用原始键
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: strings.TrimSpace(prefix)}
}

func (s *RedisStorage) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Load 读取
func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, errors.New("redis client not configured")
	}
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return raw, nil
}

// Save 写入，不设置过期
func (s *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}
