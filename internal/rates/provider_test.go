package rates

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carrito-next/internal/models"
)

func newTestProvider(t *testing.T, body string, status int) *Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewProvider(Config{Endpoint: server.URL, Anchor: "USD", Timeout: 2 * time.Second})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGetRateIdentity(t *testing.T) {
	p := NewProvider(Config{Anchor: "USD"})

	if got := p.GetRate("EUR", "EUR"); got != 1 {
		t.Fatalf("same currency rate want 1 got %v", got)
	}
	if got := p.GetRate("usd", "USD"); got != 1 {
		t.Fatalf("case-insensitive identity want 1 got %v", got)
	}
}

func TestGetRateViaAnchor(t *testing.T) {
	p := NewProvider(Config{Anchor: "USD"})

	// 兜底表：EUR 0.92，GBP 0.79
	if got := p.GetRate("USD", "EUR"); !almostEqual(got, 0.92) {
		t.Fatalf("USD→EUR want 0.92 got %v", got)
	}
	if got := p.GetRate("EUR", "GBP"); !almostEqual(got, 0.79/0.92) {
		t.Fatalf("EUR→GBP want %v got %v", 0.79/0.92, got)
	}
}

func TestGetRateUnknownCurrency(t *testing.T) {
	p := NewProvider(Config{Anchor: "USD"})

	if got := p.GetRate("USD", "XXX"); got != 1 {
		t.Fatalf("unknown currency should fall back to 1, got %v", got)
	}
}

func TestFormatPrice(t *testing.T) {
	p := NewProvider(Config{Anchor: "USD"})

	if got := p.FormatPrice(10, "USD", "USD"); got != "$10.00" {
		t.Fatalf("format want $10.00 got %s", got)
	}
	if got := p.FormatPrice(10, "EUR", "USD"); got != "€9.20" {
		t.Fatalf("format want €9.20 got %s", got)
	}
	if got := p.FormatPrice(0, "EUR", "USD"); got != "€0.00" {
		t.Fatalf("zero amount want €0.00 got %s", got)
	}
	if got := p.FormatPrice(-3, "GBP", "USD"); got != "£0.00" {
		t.Fatalf("negative amount want £0.00 got %s", got)
	}
}

func TestSymbolFallback(t *testing.T) {
	if got := Symbol("EUR"); got != "€" {
		t.Fatalf("symbol want € got %s", got)
	}
	if got := Symbol("xts"); got != "XTS " {
		t.Fatalf("unknown symbol want code prefix got %q", got)
	}
}

func TestRefreshReplacesTable(t *testing.T) {
	p := newTestProvider(t, `{"rates":{"USD":1,"EUR":0.5,"GBP":0.25}}`, http.StatusOK)

	if !p.Stale() {
		t.Fatalf("default table should report stale")
	}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := p.GetRate("USD", "EUR"); !almostEqual(got, 0.5) {
		t.Fatalf("refreshed USD→EUR want 0.5 got %v", got)
	}
	if p.Stale() {
		t.Fatalf("freshly refreshed table should not be stale")
	}
	if p.LastError() != nil {
		t.Fatalf("last error should clear on success, got %v", p.LastError())
	}
}

func TestRefreshAcceptsConversionRatesShape(t *testing.T) {
	p := newTestProvider(t, `{"conversion_rates":{"USD":1,"MXN":20}}`, http.StatusOK)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := p.GetRate("USD", "MXN"); !almostEqual(got, 20) {
		t.Fatalf("USD→MXN want 20 got %v", got)
	}
}

func TestRefreshFailureKeepsDefaults(t *testing.T) {
	p := newTestProvider(t, `{"error":"down"}`, http.StatusBadGateway)

	err := p.Refresh(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("want ErrFetchFailed got %v", err)
	}
	if p.LastError() == nil {
		t.Fatalf("failed refresh should record the error")
	}
	// 兜底表继续工作
	if got := p.GetRate("USD", "EUR"); !almostEqual(got, 0.92) {
		t.Fatalf("defaults should survive a failed refresh, got %v", got)
	}
	if !p.Stale() {
		t.Fatalf("defaults after a failed refresh should stay stale")
	}
}

func TestRefreshInvalidBody(t *testing.T) {
	p := newTestProvider(t, `{"rates":{}}`, http.StatusOK)

	if err := p.Refresh(context.Background()); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("empty rate table want ErrResponseInvalid got %v", err)
	}
}

func TestRefreshDropsNonPositiveRates(t *testing.T) {
	p := newTestProvider(t, `{"rates":{"USD":1,"EUR":-2,"JPY":150}}`, http.StatusOK)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	// 非法汇率剔除后按未知币种处理
	if got := p.GetRate("USD", "EUR"); got != 1 {
		t.Fatalf("negative rate should be dropped, got %v", got)
	}
	if got := p.GetRate("USD", "JPY"); !almostEqual(got, 150) {
		t.Fatalf("USD→JPY want 150 got %v", got)
	}
}

func TestRefreshFailurePromotesCachedTable(t *testing.T) {
	p := newTestProvider(t, `{"error":"down"}`, http.StatusBadGateway)
	p.mu.Lock()
	p.cached = &models.RateTable{
		Anchor:    "USD",
		Rates:     map[string]float64{"USD": 1, "EUR": 0.8},
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	p.mu.Unlock()

	if err := p.Refresh(context.Background()); err == nil {
		t.Fatalf("refresh should fail")
	}
	// 拉取失败时过期缓存优于内置兜底
	if got := p.GetRate("USD", "EUR"); !almostEqual(got, 0.8) {
		t.Fatalf("stale cache should win over defaults, got %v", got)
	}
}

func TestTableSnapshotIsIsolated(t *testing.T) {
	p := NewProvider(Config{Anchor: "USD"})

	table := p.Table()
	table.Rates["EUR"] = 123
	if got := p.GetRate("USD", "EUR"); !almostEqual(got, 0.92) {
		t.Fatalf("mutating the snapshot must not affect the provider, got %v", got)
	}
}
