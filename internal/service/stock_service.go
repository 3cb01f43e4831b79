package service

import (
	"context"
	"sync"

	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/storefront"
)

// StockService 库存解析服务
//
// 库存严格按款式拉取，不在款式之间复用：切换款式时先清空
// 旧的尺码选择，再发起新的库存请求；迟到的旧款式响应按代号丢弃。
type StockService struct {
	client *storefront.Client

	mu             sync.Mutex
	variantID      uint
	generation     uint64
	entries        []models.StockEntry
	variantPrice   *models.Money
	selectedSizeID uint
}

// NewStockService 创建库存解析服务
func NewStockService(client *storefront.Client) *StockService {
	return &StockService{client: client}
}

// SelectVariant 切换当前款式并重新拉取库存。
//
// 旧尺码选择在发起请求前即失效，关闭"旧款式的尺码
// 被新款式库存校验"的窗口；拉取失败时库存为空列表。
func (s *StockService) SelectVariant(ctx context.Context, variantID uint) ([]models.StockEntry, error) {
	if variantID == 0 {
		return nil, ErrNoVariantSelected
	}

	s.mu.Lock()
	s.variantID = variantID
	s.selectedSizeID = 0
	s.entries = nil
	s.variantPrice = nil
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	entries, variantPrice, err := s.client.FetchStock(ctx, variantID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		// 期间又切换了款式，丢弃这份迟到的响应
		logger.Debugw("stock_response_superseded", "variant_id", variantID)
		return s.snapshotLocked(), nil
	}
	if err != nil {
		logger.Warnw("stock_fetch_failed", "variant_id", variantID, "error", err)
		s.entries = []models.StockEntry{}
		s.variantPrice = nil
		return []models.StockEntry{}, err
	}
	s.entries = entries
	s.variantPrice = variantPrice
	return s.snapshotLocked(), nil
}

// SelectSize 在当前款式下选择尺码；无货尺码不可选
func (s *StockService) SelectSize(sizeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variantID == 0 {
		return ErrNoVariantSelected
	}
	for _, entry := range s.entries {
		if entry.SizeID == sizeID && entry.Selectable() {
			s.selectedSizeID = sizeID
			return nil
		}
	}
	return ErrSizeUnavailable
}

// SelectedSize 当前选中的尺码（未选择时 ok 为 false）
func (s *StockService) SelectedSize() (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedSizeID, s.selectedSizeID != 0
}

// SelectedEntry 当前选中尺码对应的库存条目
func (s *StockService) SelectedEntry() (*models.StockEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedSizeID == 0 {
		return nil, false
	}
	for i := range s.entries {
		if s.entries[i].SizeID == s.selectedSizeID {
			entry := s.entries[i]
			return &entry, true
		}
	}
	return nil, false
}

// VariantID 当前选中的款式
func (s *StockService) VariantID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variantID
}

// Entries 当前款式的库存快照
func (s *StockService) Entries() []models.StockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// VariantPrice 当前款式的平价（无尺码价时的回退价）
func (s *StockService) VariantPrice() *models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.variantPrice == nil {
		return nil
	}
	price := *s.variantPrice
	return &price
}

func (s *StockService) snapshotLocked() []models.StockEntry {
	snapshot := make([]models.StockEntry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}
