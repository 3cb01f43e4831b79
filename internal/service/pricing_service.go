package service

import (
	"context"

	"github.com/carrito-next/internal/models"

	"github.com/shopspring/decimal"
)

// PricingService 价格解析服务
type PricingService struct {
	promotions *PromotionService
}

// NewPricingService 创建价格解析服务
func NewPricingService(promotions *PromotionService) *PricingService {
	return &PricingService{promotions: promotions}
}

// ResolvePrice 解析单价：拉取折扣后对基准价做乘法折算
func (s *PricingService) ResolvePrice(ctx context.Context, base models.Money, productID, categoryID uint) models.PriceResult {
	promotion := s.promotions.Resolve(ctx, productID, categoryID)
	return ApplyPromotion(base, promotion)
}

// DisplayPriceInput 展示价解析输入
type DisplayPriceInput struct {
	ProductID    uint
	CategoryID   uint
	Entries      []models.StockEntry // 当前款式库存快照
	SelectedSize uint                // 0 表示未选尺码
	VariantPrice *models.Money       // 款式平价（尺码无专属价时回退）
}

// ResolveDisplayPrice 按优先级解析展示价：
// 选中尺码的专属价 → 全部尺码价的区间（两端各自折算）→ 款式平价。
// 返回单一价或价格区间，二者必有其一。
func (s *PricingService) ResolveDisplayPrice(ctx context.Context, input DisplayPriceInput) (*models.PriceResult, *models.PriceRange, error) {
	promotion := s.promotions.Resolve(ctx, input.ProductID, input.CategoryID)

	if input.SelectedSize != 0 {
		base := input.VariantPrice
		for i := range input.Entries {
			if input.Entries[i].SizeID != input.SelectedSize {
				continue
			}
			if input.Entries[i].SizePrice != nil {
				base = input.Entries[i].SizePrice
			}
			break
		}
		if base == nil {
			return nil, nil, ErrPriceUnavailable
		}
		result := ApplyPromotion(*base, promotion)
		return &result, nil, nil
	}

	var minPrice, maxPrice *models.Money
	for i := range input.Entries {
		price := input.Entries[i].SizePrice
		if price == nil {
			continue
		}
		if minPrice == nil || price.LessThan(minPrice.Decimal) {
			minPrice = price
		}
		if maxPrice == nil || price.GreaterThan(maxPrice.Decimal) {
			maxPrice = price
		}
	}
	if minPrice != nil && maxPrice != nil {
		priceRange := models.PriceRange{
			Min: ApplyPromotion(*minPrice, promotion),
			Max: ApplyPromotion(*maxPrice, promotion),
		}
		if priceRange.IsSingle() {
			result := priceRange.Min
			return &result, nil, nil
		}
		return nil, &priceRange, nil
	}

	if input.VariantPrice == nil {
		return nil, nil, ErrPriceUnavailable
	}
	result := ApplyPromotion(*input.VariantPrice, promotion)
	return &result, nil, nil
}

// ApplyPromotion 对基准价应用百分比折扣；纯函数，不做任何 I/O。
// finalPrice = basePrice * (1 - percentOff/100)
func ApplyPromotion(base models.Money, promotion *models.Promotion) models.PriceResult {
	result := models.PriceResult{
		FinalPrice:    base,
		OriginalPrice: base,
	}
	if !promotion.Valid() {
		return result
	}

	percent := decimal.NewFromFloat(promotion.PercentOff)
	factor := decimal.NewFromInt(100).Sub(percent)
	if factor.LessThan(decimal.Zero) {
		factor = decimal.Zero
	}
	discounted := base.Decimal.Mul(factor).Div(decimal.NewFromInt(100))
	if discounted.LessThan(decimal.Zero) {
		discounted = decimal.Zero
	}

	result.FinalPrice = models.NewMoneyFromDecimal(discounted)
	result.HasDiscount = result.FinalPrice.LessThan(result.OriginalPrice.Decimal)
	if result.HasDiscount {
		result.DiscountPercent = promotion.PercentOff
	}
	return result
}
