package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carrito-next/internal/models"
)

func newClientForTest(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty base url want ErrConfigInvalid got %v", err)
	}
	client, err := NewClient(Config{BaseURL: "http://backend.local/"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.cfg.BaseURL != "http://backend.local" {
		t.Fatalf("base url should be trimmed, got %s", client.cfg.BaseURL)
	}
}

func TestIdentityValid(t *testing.T) {
	if (Identity{}).Valid() {
		t.Fatalf("empty identity should be invalid")
	}
	if !(Identity{UserToken: "u"}).Valid() {
		t.Fatalf("user-only identity should be valid")
	}
	if !(Identity{SessionToken: "s"}).Valid() {
		t.Fatalf("session-only identity should be valid")
	}
	if (Identity{UserToken: "u", SessionToken: "s"}).Valid() {
		t.Fatalf("carrying both tokens should be invalid")
	}
}

func TestFetchCartSendsSingleIdentityHeader(t *testing.T) {
	var gotAuth, gotSession string
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("X-Session-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"cart":{"items":[]}}`))
	})

	if _, err := client.FetchCart(context.Background(), Identity{UserToken: "jwt-abc"}); err != nil {
		t.Fatalf("fetch cart failed: %v", err)
	}
	if gotAuth != "Bearer jwt-abc" {
		t.Fatalf("authorization header want Bearer jwt-abc got %q", gotAuth)
	}
	if gotSession != "" {
		t.Fatalf("session header must be absent for user identity, got %q", gotSession)
	}

	if _, err := client.FetchCart(context.Background(), Identity{SessionToken: "anon-1"}); err != nil {
		t.Fatalf("fetch cart failed: %v", err)
	}
	if gotSession != "anon-1" {
		t.Fatalf("session header want anon-1 got %q", gotSession)
	}
	if gotAuth != "" {
		t.Fatalf("authorization header must be absent for anonymous identity, got %q", gotAuth)
	}
}

func TestFetchCartRejectsInvalidIdentity(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request must not reach the backend")
	})

	if _, err := client.FetchCart(context.Background(), Identity{}); !errors.Is(err, ErrIdentityMissing) {
		t.Fatalf("empty identity want ErrIdentityMissing got %v", err)
	}
	both := Identity{UserToken: "u", SessionToken: "s"}
	if _, err := client.FetchCart(context.Background(), both); !errors.Is(err, ErrIdentityMissing) {
		t.Fatalf("double identity want ErrIdentityMissing got %v", err)
	}
}

func TestFetchCartAcceptsBothEnvelopeShapes(t *testing.T) {
	bodies := []string{
		`{"success":true,"cart":{"items":[{"productId":1,"variantId":2,"tallaId":3,"cantidad":2,"precio_unitario":"10.00"}]}}`,
		`{"success":true,"data":{"items":[{"productId":1,"variantId":2,"tallaId":3,"cantidad":2,"precio_unitario":10}]}}`,
	}
	for i, body := range bodies {
		payload := body
		client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(payload))
		})
		items, err := client.FetchCart(context.Background(), Identity{SessionToken: "anon"})
		if err != nil {
			t.Fatalf("shape %d fetch failed: %v", i, err)
		}
		if len(items) != 1 {
			t.Fatalf("shape %d items want 1 got %d", i, len(items))
		}
		if items[0].UnitPrice.String() != "10.00" {
			t.Fatalf("shape %d unit price want 10.00 got %s", i, items[0].UnitPrice.String())
		}
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"sin stock disponible"}`))
	})

	err := client.AddItem(context.Background(), Identity{SessionToken: "anon"}, AddItemInput{
		ProductID: 1, VariantID: 2, SizeID: 3, Quantity: 1,
		UnitPrice: models.NewMoneyFromFloat(10),
	})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("non-2xx want ErrRequestFailed got %v", err)
	}
	if !strings.Contains(err.Error(), "sin stock disponible") {
		t.Fatalf("backend message should surface, got %v", err)
	}
}

func TestErrorMessageFallback(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>boom</html>`))
	})

	err := client.ClearCart(context.Background(), Identity{SessionToken: "anon"})
	if !strings.Contains(err.Error(), "connection error") {
		t.Fatalf("non-json error body should fall back to generic message, got %v", err)
	}
}

func TestFetchStockShapes(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"precio":"15.00","tallas_stock":[
			{"tallaId":1,"nombre":"S","stock":4,"precio_talla":"16.00"},
			{"tallaId":2,"nombre":"M","stock":-3}
		]}}`))
	})

	entries, variantPrice, err := client.FetchStock(context.Background(), 9)
	if err != nil {
		t.Fatalf("fetch stock failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries want 2 got %d", len(entries))
	}
	if entries[0].SizePrice == nil || entries[0].SizePrice.String() != "16.00" {
		t.Fatalf("size price want 16.00 got %v", entries[0].SizePrice)
	}
	if entries[1].QuantityAvailable != 0 {
		t.Fatalf("negative stock should clamp to 0, got %d", entries[1].QuantityAvailable)
	}
	if variantPrice == nil || variantPrice.String() != "15.00" {
		t.Fatalf("variant price want 15.00 got %v", variantPrice)
	}
}

func TestFetchStockTopLevelShape(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"tallas_stock":[{"tallaId":5,"nombre":"U","stock":1}]}`))
	})

	entries, variantPrice, err := client.FetchStock(context.Background(), 9)
	if err != nil {
		t.Fatalf("fetch stock failed: %v", err)
	}
	if len(entries) != 1 || entries[0].SizeID != 5 {
		t.Fatalf("top-level shape should parse, got %+v", entries)
	}
	if variantPrice != nil {
		t.Fatalf("top-level shape carries no variant price, got %v", variantPrice)
	}
}

func TestFetchPromotionsShapesAndNormalization(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("productId") != "7" || r.URL.Query().Get("categoryId") != "3" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":1,"type":"Percentage","percentageOff":25,"scopeType":"PRODUCT","scopeRefId":7,"createdAt":"2024-03-01 10:00:00"}
		]}`))
	})

	promotions, err := client.FetchPromotions(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("fetch promotions failed: %v", err)
	}
	if len(promotions) != 1 {
		t.Fatalf("promotions want 1 got %d", len(promotions))
	}
	p := promotions[0]
	if p.Type != "percentage" || p.ScopeType != "product" {
		t.Fatalf("type and scope should be normalized to lower case, got %+v", p)
	}
	if p.CreatedAt.IsZero() {
		t.Fatalf("createdAt should parse the space-separated layout")
	}
	if !p.Valid() {
		t.Fatalf("normalized promotion should be valid")
	}
}

func TestResponseDecodeFailure(t *testing.T) {
	client := newClientForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":`))
	})

	if _, err := client.FetchCart(context.Background(), Identity{SessionToken: "anon"}); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("truncated body want ErrResponseInvalid got %v", err)
	}
}
