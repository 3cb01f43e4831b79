package service

import (
	"context"
	"sync"

	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/session"
	"github.com/carrito-next/internal/storefront"

	"github.com/shopspring/decimal"
)

// AddLineItemInput 加购输入
type AddLineItemInput struct {
	ProductID uint
	VariantID uint
	SizeID    uint
	Quantity  int
	UnitPrice models.Money
}

// CartTotals 购物车汇总（派生值，按需计算从不落地）
type CartTotals struct {
	TotalItems    int          `json:"total_items"`
	OriginalTotal models.Money `json:"original_total"`
	FinalTotal    models.Money `json:"final_total"`
}

// CartService 购物车服务
//
// 本地行项目只是远端持久化购物车的读写缓存：每个写操作
// 都以一次全量 Refresh 收尾，本地状态从不增量修补。
type CartService struct {
	client   *storefront.Client
	sessions *session.Resolver
	pricing  *PricingService

	mu      sync.Mutex
	items   []models.CartLineItem
	loading bool
}

// NewCartService 创建购物车服务
func NewCartService(client *storefront.Client, sessions *session.Resolver, pricing *PricingService) *CartService {
	s := &CartService{
		client:   client,
		sessions: sessions,
		pricing:  pricing,
	}
	// 登出时本地购物车立即清空，等下一次 Refresh 重建
	sessions.OnLogout(s.ClearLocal)
	return s
}

// Refresh 权威重同步：拉取当前身份的完整购物车并整体替换本地状态。
// 这是本地状态获得权威性的唯一路径。
func (s *CartService) Refresh(ctx context.Context) error {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	fetched, err := s.client.FetchCart(ctx, identity)
	if err != nil {
		return err
	}
	items := dedupeLineItems(fetched)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// AddItem 加购；成功后以全量 Refresh 收尾，失败时不保留任何乐观修改
func (s *CartService) AddItem(ctx context.Context, input AddLineItemInput) error {
	if input.ProductID == 0 || input.VariantID == 0 || input.SizeID == 0 {
		return ErrInvalidLineItem
	}
	if input.Quantity < 1 || !input.UnitPrice.GreaterThan(decimal.Zero) {
		return ErrInvalidLineItem
	}

	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.AddItem(ctx, identity, storefront.AddItemInput{
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		SizeID:    input.SizeID,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
	}); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// UpdateQuantity 修改行项目数量；数量 ≤ 0 等价于删除
func (s *CartService) UpdateQuantity(ctx context.Context, key models.LineItemKey, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, key)
	}
	if key.ProductID == 0 || key.VariantID == 0 || key.SizeID == 0 {
		return ErrInvalidLineItem
	}

	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.UpdateItem(ctx, identity, storefront.UpdateItemInput{
		ProductID: key.ProductID,
		VariantID: key.VariantID,
		SizeID:    key.SizeID,
		Quantity:  quantity,
	}); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// RemoveItem 删除行项目；本地不存在的三元组视为无事发生
func (s *CartService) RemoveItem(ctx context.Context, key models.LineItemKey) error {
	if _, ok := s.lookup(key); !ok {
		logger.Debugw("cart_remove_missing_item",
			"product_id", key.ProductID,
			"variant_id", key.VariantID,
			"size_id", key.SizeID,
		)
		return nil
	}

	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.RemoveItem(ctx, identity, storefront.RemoveItemInput{
		ProductID: key.ProductID,
		VariantID: key.VariantID,
		SizeID:    key.SizeID,
	}); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Clear 清空远端购物车并重同步
func (s *CartService) Clear(ctx context.Context) error {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.ClearCart(ctx, identity); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// ClearLocal 仅清空本地缓存（登出钩子；远端由后端自行处理）
func (s *CartService) ClearLocal() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items 行项目快照
func (s *CartService) Items() []models.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]models.CartLineItem, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

// IsLoading 是否有写操作在途
func (s *CartService) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// TotalItems 数量合计
func (s *CartService) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// Totals 金额汇总：逐行经过折扣解析后按数量累加
func (s *CartService) Totals(ctx context.Context) CartTotals {
	items := s.Items()

	totals := CartTotals{
		OriginalTotal: models.NewMoneyFromDecimal(decimal.Zero),
		FinalTotal:    models.NewMoneyFromDecimal(decimal.Zero),
	}
	for _, item := range items {
		result := s.pricing.ResolvePrice(ctx, item.UnitPrice, item.ProductID, item.CategoryID)
		quantity := decimal.NewFromInt(int64(item.Quantity))
		totals.TotalItems += item.Quantity
		totals.OriginalTotal = models.NewMoneyFromDecimal(totals.OriginalTotal.Add(result.OriginalPrice.Mul(quantity)))
		totals.FinalTotal = models.NewMoneyFromDecimal(totals.FinalTotal.Add(result.FinalPrice.Mul(quantity)))
	}
	return totals
}

func (s *CartService) lookup(key models.LineItemKey) (models.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Key() == key {
			return item, true
		}
	}
	return models.CartLineItem{}, false
}

func (s *CartService) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// dedupeLineItems 按三元组去重：后端偶发的重复行合并数量，
// 保证重同步之后三元组唯一
func dedupeLineItems(fetched []models.CartLineItem) []models.CartLineItem {
	items := make([]models.CartLineItem, 0, len(fetched))
	index := make(map[models.LineItemKey]int, len(fetched))
	for _, item := range fetched {
		if item.Quantity < 1 {
			continue
		}
		key := item.Key()
		if at, ok := index[key]; ok {
			items[at].Quantity += item.Quantity
			continue
		}
		index[key] = len(items)
		items = append(items, item)
	}
	return items
}
