package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/carrito-next/internal/cache"
	"github.com/carrito-next/internal/constants"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrFetchFailed     = errors.New("rates fetch failed")
	ErrResponseInvalid = errors.New("rates response invalid")
)

// 汇率表来源
const (
	sourceDefault = "default"
	sourceCache   = "cache"
	sourceLive    = "live"
)

// defaultRates 内置兜底汇率（锚定 USD），网络与缓存都不可用时使用
var defaultRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"MXN": 17.5,
	"CAD": 1.36,
	"JPY": 149.0,
	"CNY": 7.2,
	"BRL": 5.0,
	"COP": 4000.0,
	"ARS": 950.0,
}

// defaultTable 构建内置兜底汇率表
func defaultTable(anchor string) *models.RateTable {
	rates := make(map[string]float64, len(defaultRates))
	for code, rate := range defaultRates {
		rates[code] = rate
	}
	if _, ok := rates[anchor]; !ok {
		rates[anchor] = 1
	}
	return &models.RateTable{Anchor: anchor, Rates: rates}
}

// currencySymbols 币种展示符号
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"MXN": "MX$",
	"CAD": "CA$",
	"JPY": "¥",
	"CNY": "¥",
	"BRL": "R$",
	"COP": "COL$",
	"ARS": "AR$",
}

// Config 汇率服务配置
type Config struct {
	Endpoint string        // 第三方汇率接口
	Anchor   string        // 锚定币种
	CacheTTL time.Duration // 缓存有效期
	Timeout  time.Duration // 拉取超时
}

func (c *Config) normalize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Anchor = strings.ToUpper(strings.TrimSpace(c.Anchor))
	if c.Anchor == "" {
		c.Anchor = constants.AnchorCurrencyDefault
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// fetchEnvelope 第三方汇率接口响应
type fetchEnvelope struct {
	Rates map[string]float64 `json:"rates"`
	// 部分供应商把汇率挂在 conversion_rates 下
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Provider 汇率提供器
//
// 读取方法永不因为网络问题失败：刷新失败时依次回退到
// 持久化缓存与内置兜底汇率。
type Provider struct {
	mu         sync.RWMutex
	cfg        Config
	httpClient *http.Client
	table      *models.RateTable
	source     string
	cached     *models.RateTable
	lastErr    error
	now        func() time.Time
}

// NewProvider 创建汇率提供器
func NewProvider(cfg Config) *Provider {
	cfg.normalize()
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		table:      defaultTable(cfg.Anchor),
		source:     sourceDefault,
		now:        time.Now,
	}
}

// Bootstrap 启动初始化：加载持久化缓存，然后后台尝试一次实时刷新
func (p *Provider) Bootstrap(ctx context.Context) {
	p.loadCache(ctx)
	go func() {
		if err := p.Refresh(context.Background()); err != nil {
			logger.Warnw("rates_bootstrap_refresh_failed", "error", err)
		}
	}()
}

// Refresh 实时拉取汇率；成功则替换内存表并更新持久化缓存，
// 失败时保持现有表不变并记录错误状态
func (p *Provider) Refresh(ctx context.Context) error {
	table, err := p.fetch(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		// 实时拉取失败且当前仍是兜底表时，退而使用过期缓存
		if p.source == sourceDefault && p.cached != nil {
			p.table = p.cached.Clone()
			p.source = sourceCache
		}
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.table = table
	p.source = sourceLive
	p.lastErr = nil
	p.mu.Unlock()

	if err := cache.SetJSON(ctx, constants.RateCacheKey, table, 0); err != nil {
		logger.Warnw("rates_persist_cache_failed", "error", err)
	}
	logger.Infow("rates_refreshed", "anchor", table.Anchor, "currencies", len(table.Rates))
	return nil
}

// GetRate 返回 from → to 的换算倍率；相同币种恒为 1，
// 两端都不是锚定币种时经由锚定币种中转
func (p *Provider) GetRate(from, to string) float64 {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" {
		from = p.cfg.Anchor
	}
	if to == "" {
		to = p.cfg.Anchor
	}
	if from == to {
		return 1
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	fromRate := p.anchorRateLocked(from)
	toRate := p.anchorRateLocked(to)
	if fromRate <= 0 || toRate <= 0 {
		return 1
	}
	return toRate / fromRate
}

// FormatPrice 将金额从 base 换算到 target 并格式化为带符号的 2 位小数字符串；
// 金额非正时返回零值文案，从不报错
func (p *Provider) FormatPrice(amount float64, target, base string) string {
	target = strings.ToUpper(strings.TrimSpace(target))
	symbol := Symbol(target)
	if amount <= 0 {
		return symbol + "0.00"
	}
	rate := p.GetRate(base, target)
	converted := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2)
	return symbol + converted.StringFixed(2)
}

// Table 当前汇率表快照
func (p *Provider) Table() *models.RateTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table.Clone()
}

// Stale 当前表是否超过缓存有效期
func (p *Provider) Stale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.source == sourceDefault {
		return true
	}
	return p.table.Age(p.now()) > p.cfg.CacheTTL
}

// LastError 最近一次刷新失败的错误（成功后清空）
func (p *Provider) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Symbol 返回币种展示符号，未知币种回退为代码前缀
func Symbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return symbol
	}
	return strings.ToUpper(strings.TrimSpace(code)) + " "
}

func (p *Provider) anchorRateLocked(code string) float64 {
	if code == p.table.Anchor {
		return 1
	}
	return p.table.Rates[code]
}

func (p *Provider) fetch(ctx context.Context) (*models.RateTable, error) {
	if p.cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint not configured", ErrFetchFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body failed", ErrResponseInvalid)
	}
	var envelope fetchEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode failed", ErrResponseInvalid)
	}
	rateMap := envelope.Rates
	if len(rateMap) == 0 {
		rateMap = envelope.ConversionRates
	}
	if len(rateMap) == 0 {
		return nil, fmt.Errorf("%w: empty rate table", ErrResponseInvalid)
	}

	rates := make(map[string]float64, len(rateMap))
	for code, rate := range rateMap {
		if rate <= 0 {
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	// 锚定币种的汇率恒为 1
	rates[p.cfg.Anchor] = 1

	return &models.RateTable{
		Anchor:    p.cfg.Anchor,
		Rates:     rates,
		FetchedAt: p.now(),
	}, nil
}

func (p *Provider) loadCache(ctx context.Context) {
	var stored models.RateTable
	hit, err := cache.GetJSON(ctx, constants.RateCacheKey, &stored)
	if err != nil {
		logger.Warnw("rates_load_cache_failed", "error", err)
		return
	}
	if !hit || len(stored.Rates) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = stored.Clone()
	if stored.Age(p.now()) <= p.cfg.CacheTTL {
		p.table = stored.Clone()
		p.source = sourceCache
	}
}
