package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/polbel-next/internal/models"
)

const defaultTimeout = 15 * time.Second

var (
	// ErrRequestFailed 请求未能送达或响应不可读
	ErrRequestFailed = errors.New("api request failed")
	// ErrResponseInvalid 响应体无法解析
	ErrResponseInvalid = errors.New("api response invalid")
)

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, msg, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// IsStatus 判断错误是否为指定状态码的 APIError
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client 实体网关 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken 预置 Bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New 创建客户端，baseURL 形如 http://localhost:3001/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken 设置后续请求使用的 token
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Token 当前 token
func (c *Client) Token() string {
	return c.token
}

// Product 商品（客户端视图）
type Product struct {
	ID               uint         `json:"id"`
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Category         string       `json:"category"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"short_description"`
	Price            models.Money `json:"price"`
	PriceUnit        string       `json:"price_unit"`
	Image            string       `json:"image"`
	InStock          bool         `json:"in_stock"`
	Featured         bool         `json:"featured"`
}

// Order 订单（客户端视图）
type Order struct {
	ID              uint               `json:"id,omitempty"`
	OrderNumber     string             `json:"order_number"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	CustomerAddress string             `json:"customer_address"`
	DeliveryDate    string             `json:"delivery_date,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []models.OrderLine `json:"items"`
	Total           models.Money       `json:"total"`
	Status          string             `json:"status,omitempty"`
}

// Session 登录结果
type Session struct {
	Token     string            `json:"token"`
	User      *models.AdminUser `json:"user"`
	ExpiresAt string            `json:"expires_at"`
}

type messageBody struct {
	Message string `json:"message"`
}

// ListProducts 商品列表
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct 按 id 或 slug 获取商品
func (c *Client) GetProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(strings.TrimSpace(idOrSlug)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder 提交订单
func (c *Client) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder 获取订单（需要管理员 token）
func (c *Client) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatUint(uint64(id), 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus 变更订单状态（需要管理员 token）
func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	payload := map[string]string{"status": strings.TrimSpace(status)}
	return c.do(ctx, http.MethodPut, "/orders/"+strconv.FormatUint(uint64(id), 10), payload, &messageBody{})
}

// Login 登录并保存 token
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{"email": strings.TrimSpace(email), "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrResponseInvalid)
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, dest interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode body: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Message = body.Error
	if apiErr.Message == "" {
		apiErr.Message = body.Message
	}
	apiErr.Details = body.Details
	return apiErr
}
