package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carrito-next/internal/models"
)

func TestPickPromotionProductScopeWins(t *testing.T) {
	promotions := []models.Promotion{
		{ID: 1, ScopeType: "category", Type: "percentage", PercentOff: 50},
		{ID: 2, ScopeType: "product", Type: "percentage", PercentOff: 10},
	}

	picked := pickPromotion(promotions)
	if picked == nil || picked.ID != 2 {
		t.Fatalf("product scope should win over category, got %+v", picked)
	}
}

func TestPickPromotionHigherPercentWins(t *testing.T) {
	promotions := []models.Promotion{
		{ID: 1, ScopeType: "product", Type: "percentage", PercentOff: 10},
		{ID: 2, ScopeType: "product", Type: "percentage", PercentOff: 30},
	}

	picked := pickPromotion(promotions)
	if picked == nil || picked.ID != 2 {
		t.Fatalf("higher percent should win, got %+v", picked)
	}
}

func TestPickPromotionEarlierCreationWins(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	promotions := []models.Promotion{
		{ID: 1, ScopeType: "product", Type: "percentage", PercentOff: 20, CreatedAt: later},
		{ID: 2, ScopeType: "product", Type: "percentage", PercentOff: 20, CreatedAt: earlier},
	}

	picked := pickPromotion(promotions)
	if picked == nil || picked.ID != 2 {
		t.Fatalf("earlier creation should win the tie, got %+v", picked)
	}
}

func TestPickPromotionSkipsInvalid(t *testing.T) {
	promotions := []models.Promotion{
		{ID: 1, ScopeType: "product", Type: "fixed", PercentOff: 90},
		{ID: 2, ScopeType: "product", Type: "percentage", PercentOff: 120},
		{ID: 3, ScopeType: "category", Type: "percentage", PercentOff: 5},
	}

	picked := pickPromotion(promotions)
	if picked == nil || picked.ID != 3 {
		t.Fatalf("invalid promotions should be skipped, got %+v", picked)
	}
}

func TestPickPromotionEmpty(t *testing.T) {
	if picked := pickPromotion(nil); picked != nil {
		t.Fatalf("empty list should pick nothing, got %+v", picked)
	}
}

func TestPromotionResolveCachesPerProduct(t *testing.T) {
	var hits int64
	client, _ := newTestStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"promotions":[{"id":9,"type":"percentage","percentageOff":10,"scopeType":"product","scopeRefId":7}]}`))
	}))
	svc := NewPromotionService(client)

	first := svc.Resolve(context.Background(), 7, 3)
	second := svc.Resolve(context.Background(), 7, 3)
	if first == nil || second == nil || first.ID != 9 || second.ID != 9 {
		t.Fatalf("resolve want promotion 9, got %+v / %+v", first, second)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("second resolve should hit the cache, backend hits want 1 got %d", got)
	}

	svc.Invalidate()
	svc.Resolve(context.Background(), 7, 3)
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Fatalf("invalidate should force a refetch, backend hits want 2 got %d", got)
	}
}

func TestPromotionResolveFailureNotCached(t *testing.T) {
	var hits int64
	client, _ := newTestStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"message":"upstream down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"promotions":[{"id":4,"type":"percentage","percentageOff":15,"scopeType":"product","scopeRefId":7}]}`))
	}))
	svc := NewPromotionService(client)

	if got := svc.Resolve(context.Background(), 7, 0); got != nil {
		t.Fatalf("failed fetch should resolve to no promotion, got %+v", got)
	}
	second := svc.Resolve(context.Background(), 7, 0)
	if second == nil || second.ID != 4 {
		t.Fatalf("failure should not be cached, retry want promotion 4 got %+v", second)
	}
}

func TestPromotionResolveNoneCached(t *testing.T) {
	var hits int64
	client, _ := newTestStorefront(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"promotions":[]}`))
	}))
	svc := NewPromotionService(client)

	if got := svc.Resolve(context.Background(), 7, 0); got != nil {
		t.Fatalf("no promotions should resolve to nil, got %+v", got)
	}
	if got := svc.Resolve(context.Background(), 7, 0); got != nil {
		t.Fatalf("cached nil should stay nil, got %+v", got)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("nil result should also be cached, backend hits want 1 got %d", got)
	}
}
