package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/storefront"
)

func newTestStorefront(t *testing.T, handler http.Handler) (*storefront.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := storefront.NewClient(storefront.Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new storefront client failed: %v", err)
	}
	return client, server
}

func newPricingWithPromotions(t *testing.T, body string) *PricingService {
	t.Helper()
	client, _ := newTestStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	return NewPricingService(NewPromotionService(client))
}

func TestApplyPromotionPercentage(t *testing.T) {
	base := models.NewMoneyFromFloat(20)
	promotion := &models.Promotion{Type: "percentage", PercentOff: 25}

	result := ApplyPromotion(base, promotion)
	if result.FinalPrice.String() != "15.00" {
		t.Fatalf("final price want 15.00 got %s", result.FinalPrice.String())
	}
	if result.OriginalPrice.String() != "20.00" {
		t.Fatalf("original price want 20.00 got %s", result.OriginalPrice.String())
	}
	if !result.HasDiscount {
		t.Fatalf("has discount want true")
	}
	if result.DiscountPercent != 25 {
		t.Fatalf("discount percent want 25 got %v", result.DiscountPercent)
	}
}

func TestApplyPromotionNoPromotion(t *testing.T) {
	base := models.NewMoneyFromFloat(49.9)

	result := ApplyPromotion(base, nil)
	if result.HasDiscount {
		t.Fatalf("nil promotion should not discount")
	}
	if result.FinalPrice.String() != "49.90" {
		t.Fatalf("final price want 49.90 got %s", result.FinalPrice.String())
	}
	if !result.FinalPrice.Equal(result.OriginalPrice.Decimal) {
		t.Fatalf("final and original should match without promotion")
	}
}

func TestApplyPromotionInvalidType(t *testing.T) {
	base := models.NewMoneyFromFloat(30)
	promotion := &models.Promotion{Type: "fixed", PercentOff: 10}

	result := ApplyPromotion(base, promotion)
	if result.HasDiscount {
		t.Fatalf("non-percentage promotion should be ignored")
	}
}

func TestApplyPromotionBounds(t *testing.T) {
	base := models.NewMoneyFromFloat(100)

	zero := ApplyPromotion(base, &models.Promotion{Type: "percentage", PercentOff: 0})
	if zero.HasDiscount {
		t.Fatalf("0%% off should not discount")
	}

	full := ApplyPromotion(base, &models.Promotion{Type: "percentage", PercentOff: 100})
	if full.FinalPrice.String() != "0.00" {
		t.Fatalf("100%% off want 0.00 got %s", full.FinalPrice.String())
	}
	if !full.HasDiscount {
		t.Fatalf("100%% off should discount")
	}

	over := ApplyPromotion(base, &models.Promotion{Type: "percentage", PercentOff: 120})
	if over.HasDiscount {
		t.Fatalf("over-100%% promotion should be rejected as invalid")
	}
}

func TestApplyPromotionDeterministic(t *testing.T) {
	base := models.NewMoneyFromFloat(33.33)
	promotion := &models.Promotion{Type: "percentage", PercentOff: 15}

	first := ApplyPromotion(base, promotion)
	for i := 0; i < 10; i++ {
		again := ApplyPromotion(base, promotion)
		if !again.FinalPrice.Equal(first.FinalPrice.Decimal) {
			t.Fatalf("apply promotion should be deterministic, run %d got %s want %s",
				i, again.FinalPrice.String(), first.FinalPrice.String())
		}
	}
}

func TestResolveDisplayPriceSelectedSize(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)
	sizePrice := models.NewMoneyFromFloat(25)
	variantPrice := models.NewMoneyFromFloat(20)

	single, priceRange, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID:  7,
		CategoryID: 3,
		Entries: []models.StockEntry{
			{SizeID: 1, QuantityAvailable: 5, SizePrice: &sizePrice},
			{SizeID: 2, QuantityAvailable: 2},
		},
		SelectedSize: 1,
		VariantPrice: &variantPrice,
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if priceRange != nil {
		t.Fatalf("selected size should resolve to a single price")
	}
	if single.FinalPrice.String() != "25.00" {
		t.Fatalf("selected size price want 25.00 got %s", single.FinalPrice.String())
	}
}

func TestResolveDisplayPriceSelectedSizeFallsBackToVariantPrice(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)
	variantPrice := models.NewMoneyFromFloat(18.5)

	single, _, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID:    7,
		Entries:      []models.StockEntry{{SizeID: 2, QuantityAvailable: 3}},
		SelectedSize: 2,
		VariantPrice: &variantPrice,
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if single.FinalPrice.String() != "18.50" {
		t.Fatalf("fallback price want 18.50 got %s", single.FinalPrice.String())
	}
}

func TestResolveDisplayPriceRange(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)
	low := models.NewMoneyFromFloat(10)
	high := models.NewMoneyFromFloat(14)

	single, priceRange, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID: 7,
		Entries: []models.StockEntry{
			{SizeID: 1, QuantityAvailable: 5, SizePrice: &high},
			{SizeID: 2, QuantityAvailable: 1, SizePrice: &low},
		},
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if single != nil {
		t.Fatalf("distinct size prices should resolve to a range")
	}
	if priceRange.Min.FinalPrice.String() != "10.00" || priceRange.Max.FinalPrice.String() != "14.00" {
		t.Fatalf("range want 10.00-14.00 got %s-%s",
			priceRange.Min.FinalPrice.String(), priceRange.Max.FinalPrice.String())
	}
}

func TestResolveDisplayPriceRangeCollapses(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)
	price := models.NewMoneyFromFloat(12)
	same := models.NewMoneyFromFloat(12)

	single, priceRange, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID: 7,
		Entries: []models.StockEntry{
			{SizeID: 1, QuantityAvailable: 5, SizePrice: &price},
			{SizeID: 2, QuantityAvailable: 1, SizePrice: &same},
		},
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if priceRange != nil {
		t.Fatalf("identical bounds should collapse to a single price")
	}
	if single.FinalPrice.String() != "12.00" {
		t.Fatalf("collapsed price want 12.00 got %s", single.FinalPrice.String())
	}
}

func TestResolveDisplayPriceVariantFallback(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)
	variantPrice := models.NewMoneyFromFloat(9.99)

	single, priceRange, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID:    7,
		Entries:      []models.StockEntry{{SizeID: 1, QuantityAvailable: 2}},
		VariantPrice: &variantPrice,
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if priceRange != nil {
		t.Fatalf("no size prices should fall back to variant price")
	}
	if single.FinalPrice.String() != "9.99" {
		t.Fatalf("variant price want 9.99 got %s", single.FinalPrice.String())
	}
}

func TestResolveDisplayPriceUnavailable(t *testing.T) {
	pricing := newPricingWithPromotions(t, `{"success":true,"promotions":[]}`)

	_, _, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID: 7,
		Entries:   []models.StockEntry{{SizeID: 1, QuantityAvailable: 2}},
	})
	if err != ErrPriceUnavailable {
		t.Fatalf("want ErrPriceUnavailable got %v", err)
	}
}

func TestResolveDisplayPriceWithPromotion(t *testing.T) {
	pricing := newPricingWithPromotions(t,
		`{"success":true,"promotions":[{"id":1,"type":"percentage","percentageOff":25,"scopeType":"product","scopeRefId":7}]}`)
	variantPrice := models.NewMoneyFromFloat(20)

	single, _, err := pricing.ResolveDisplayPrice(context.Background(), DisplayPriceInput{
		ProductID:    7,
		VariantPrice: &variantPrice,
	})
	if err != nil {
		t.Fatalf("resolve display price failed: %v", err)
	}
	if single.FinalPrice.String() != "15.00" {
		t.Fatalf("promoted price want 15.00 got %s", single.FinalPrice.String())
	}
	if !single.HasDiscount || single.DiscountPercent != 25 {
		t.Fatalf("promotion metadata want 25%% got %+v", single)
	}
}
