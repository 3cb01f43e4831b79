package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carrito-next/internal/constants"
	"github.com/carrito-next/internal/models"
)

var (
	ErrConfigInvalid   = errors.New("storefront config invalid")
	ErrRequestFailed   = errors.New("storefront request failed")
	ErrResponseInvalid = errors.New("storefront response invalid")
	ErrIdentityMissing = errors.New("storefront identity missing")
)

// Config 远端商城后端配置
type Config struct {
	BaseURL string        // 后端地址，如 https://api.tienda.example
	Timeout time.Duration // 单次请求超时
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	return nil
}

// Identity 购物车请求身份（用户令牌与匿名会话令牌二选一）
type Identity struct {
	UserToken    string
	SessionToken string
}

// Valid 身份是否恰好携带一种令牌
func (id Identity) Valid() bool {
	return (id.UserToken != "") != (id.SessionToken != "")
}

func (id Identity) apply(req *http.Request) {
	if id.UserToken != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+id.UserToken)
		return
	}
	req.Header.Set(constants.HeaderSessionToken, id.SessionToken)
}

// Client 远端商城后端 HTTP 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// AddItemInput 加购请求
type AddItemInput struct {
	ProductID uint         `json:"productId"`
	VariantID uint         `json:"variantId"`
	SizeID    uint         `json:"tallaId"`
	Quantity  int          `json:"cantidad"`
	UnitPrice models.Money `json:"precio_unitario"`
}

// UpdateItemInput 改数量请求
type UpdateItemInput struct {
	ProductID uint `json:"productId"`
	VariantID uint `json:"variantId"`
	SizeID    uint `json:"tallaId"`
	Quantity  int  `json:"cantidad"`
}

// RemoveItemInput 删除行项目请求
type RemoveItemInput struct {
	ProductID uint `json:"productId"`
	VariantID uint `json:"variantId"`
	SizeID    uint `json:"tallaId"`
}

// wireLineItem 后端购物车行项目
type wireLineItem struct {
	ProductID   uint         `json:"productId"`
	VariantID   uint         `json:"variantId"`
	SizeID      uint         `json:"tallaId"`
	Quantity    int          `json:"cantidad"`
	UnitPrice   models.Money `json:"precio_unitario"`
	ProductName string       `json:"productName"`
	VariantName string       `json:"variantName"`
	SizeName    string       `json:"tallaName"`
	ImageURL    string       `json:"imageUrl"`
	CategoryID  uint         `json:"categoryId"`
	Brand       string       `json:"brand"`
}

// cartEnvelope 购物车响应
type cartEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cart    *struct {
		Items []wireLineItem `json:"items"`
	} `json:"cart"`
	// 部分历史接口把行项目直接挂在 data 下
	Data *struct {
		Items []wireLineItem `json:"items"`
	} `json:"data"`
}

// wireStockEntry 后端库存条目
type wireStockEntry struct {
	SizeID    uint          `json:"tallaId"`
	SizeName  string        `json:"nombre"`
	Available int           `json:"stock"`
	SizePrice *models.Money `json:"precio_talla"`
}

// stockEnvelope 库存响应
type stockEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		Entries      []wireStockEntry `json:"tallas_stock"`
		VariantPrice *models.Money    `json:"precio"`
	} `json:"data"`
	Entries []wireStockEntry `json:"tallas_stock"`
}

// wirePromotion 后端折扣规则
type wirePromotion struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	PercentageOff float64 `json:"percentageOff"`
	ScopeType     string  `json:"scopeType"`
	ScopeRefID    uint    `json:"scopeRefId"`
	CreatedAt     string  `json:"createdAt"`
}

// promotionEnvelope 折扣响应（promotions 与 data 两种形态都接受）
type promotionEnvelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Promotions []wirePromotion `json:"promotions"`
	Data       []wirePromotion `json:"data"`
}

// ackEnvelope 写操作响应
type ackEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FetchCart 拉取当前身份的完整购物车
func (c *Client) FetchCart(ctx context.Context, id Identity) ([]models.CartLineItem, error) {
	var envelope cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/cart", &id, nil, &envelope); err != nil {
		return nil, err
	}
	var wireItems []wireLineItem
	switch {
	case envelope.Cart != nil:
		wireItems = envelope.Cart.Items
	case envelope.Data != nil:
		wireItems = envelope.Data.Items
	}
	items := make([]models.CartLineItem, 0, len(wireItems))
	for _, w := range wireItems {
		items = append(items, models.CartLineItem{
			ProductID:   w.ProductID,
			VariantID:   w.VariantID,
			SizeID:      w.SizeID,
			Quantity:    w.Quantity,
			UnitPrice:   w.UnitPrice,
			ProductName: w.ProductName,
			VariantName: w.VariantName,
			SizeName:    w.SizeName,
			ImageURL:    w.ImageURL,
			CategoryID:  w.CategoryID,
			Brand:       w.Brand,
		})
	}
	return items, nil
}

// AddItem 加购
func (c *Client) AddItem(ctx context.Context, id Identity, input AddItemInput) error {
	var ack ackEnvelope
	return c.do(ctx, http.MethodPost, "/api/cart/add", &id, input, &ack)
}

// UpdateItem 修改行项目数量
func (c *Client) UpdateItem(ctx context.Context, id Identity, input UpdateItemInput) error {
	var ack ackEnvelope
	return c.do(ctx, http.MethodPut, "/api/cart/update", &id, input, &ack)
}

// RemoveItem 删除行项目
func (c *Client) RemoveItem(ctx context.Context, id Identity, input RemoveItemInput) error {
	var ack ackEnvelope
	return c.do(ctx, http.MethodDelete, "/api/cart/remove", &id, input, &ack)
}

// ClearCart 清空购物车
func (c *Client) ClearCart(ctx context.Context, id Identity) error {
	var ack ackEnvelope
	return c.do(ctx, http.MethodDelete, "/api/cart/clear", &id, nil, &ack)
}

// FetchStock 拉取单个款式的尺码库存；第二个返回值为款式平价（无尺码价时回退用）
func (c *Client) FetchStock(ctx context.Context, variantID uint) ([]models.StockEntry, *models.Money, error) {
	var envelope stockEnvelope
	path := fmt.Sprintf("/api/products/stock/%d", variantID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, nil, err
	}

	wireEntries := envelope.Entries
	var variantPrice *models.Money
	if envelope.Data != nil {
		wireEntries = envelope.Data.Entries
		variantPrice = envelope.Data.VariantPrice
	}
	entries := make([]models.StockEntry, 0, len(wireEntries))
	for _, w := range wireEntries {
		if w.Available < 0 {
			w.Available = 0
		}
		entries = append(entries, models.StockEntry{
			SizeID:            w.SizeID,
			SizeName:          w.SizeName,
			QuantityAvailable: w.Available,
			SizePrice:         w.SizePrice,
		})
	}
	return entries, variantPrice, nil
}

// FetchPromotions 拉取商品/分类的折扣规则；空列表是正常结果而非错误
func (c *Client) FetchPromotions(ctx context.Context, productID, categoryID uint) ([]models.Promotion, error) {
	var envelope promotionEnvelope
	path := fmt.Sprintf("/api/promotions?productId=%d&categoryId=%d", productID, categoryID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, err
	}
	wirePromotions := envelope.Promotions
	if len(wirePromotions) == 0 {
		wirePromotions = envelope.Data
	}
	promotions := make([]models.Promotion, 0, len(wirePromotions))
	for _, w := range wirePromotions {
		promotions = append(promotions, models.Promotion{
			ID:         w.ID,
			Name:       w.Name,
			ScopeType:  strings.ToLower(strings.TrimSpace(w.ScopeType)),
			ScopeRefID: w.ScopeRefID,
			Type:       strings.ToLower(strings.TrimSpace(w.Type)),
			PercentOff: w.PercentageOff,
			CreatedAt:  parseWireTime(w.CreatedAt),
		})
	}
	return promotions, nil
}

func (c *Client) do(ctx context.Context, method, path string, id *Identity, body interface{}, dest interface{}) error {
	if id != nil && !id.Valid() {
		return ErrIdentityMissing
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body failed", ErrRequestFailed)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id != nil {
		id.apply(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body failed", ErrResponseInvalid)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, extractMessage(raw))
	}

	if dest != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("%w: decode failed", ErrResponseInvalid)
		}
	}
	return nil
}

// extractMessage 提取响应里的 message 字段，没有则回退通用文案
func extractMessage(raw []byte) string {
	var envelope ackEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			return msg
		}
	}
	return "connection error"
}

func parseWireTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
