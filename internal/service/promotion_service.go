package service

import (
	"context"
	"sync"

	"github.com/carrito-next/internal/constants"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/storefront"
)

// PromotionService 折扣解析服务
//
// 同一商品的解析结果在服务生命周期内缓存，不随每次渲染重复拉取。
// 折扣拉取属于读路径：网络失败降级为"无折扣"，不向调用方抛错。
type PromotionService struct {
	client *storefront.Client

	mu    sync.Mutex
	cache map[uint]*models.Promotion
}

// NewPromotionService 创建折扣解析服务
func NewPromotionService(client *storefront.Client) *PromotionService {
	return &PromotionService{
		client: client,
		cache:  make(map[uint]*models.Promotion),
	}
}

// Resolve 解析商品当前生效的唯一折扣；无折扣返回 nil
func (s *PromotionService) Resolve(ctx context.Context, productID, categoryID uint) *models.Promotion {
	if productID == 0 {
		return nil
	}

	s.mu.Lock()
	if cached, ok := s.cache[productID]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	promotions, err := s.client.FetchPromotions(ctx, productID, categoryID)
	if err != nil {
		// 拉取失败不缓存，下次解析再试
		logger.Warnw("promotion_fetch_failed", "product_id", productID, "error", err)
		return nil
	}

	picked := pickPromotion(promotions)

	s.mu.Lock()
	s.cache[productID] = picked
	s.mu.Unlock()
	return picked
}

// Invalidate 清空缓存（身份切换后折扣可见性可能变化）
func (s *PromotionService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[uint]*models.Promotion)
	s.mu.Unlock()
}

// pickPromotion 在多条折扣中选出唯一生效的一条。
//
// 显式优先级取代"后端列表首位生效"的隐式约定：
// 商品级先于分类级，同级取折扣力度最大者，再同则取创建最早者。
func pickPromotion(promotions []models.Promotion) *models.Promotion {
	var picked *models.Promotion
	for i := range promotions {
		p := &promotions[i]
		if !p.Valid() {
			continue
		}
		if picked == nil || morePreferred(p, picked) {
			picked = p
		}
	}
	if picked == nil {
		return nil
	}
	chosen := *picked
	return &chosen
}

func morePreferred(a, b *models.Promotion) bool {
	aProduct := a.ScopeType == constants.ScopeTypeProduct
	bProduct := b.ScopeType == constants.ScopeTypeProduct
	if aProduct != bProduct {
		return aProduct
	}
	if a.PercentOff != b.PercentOff {
		return a.PercentOff > b.PercentOff
	}
	if a.CreatedAt.IsZero() || b.CreatedAt.IsZero() {
		return false
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
