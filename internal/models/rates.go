package models

import "time"

// RateTable 汇率表（相对锚定币种）
type RateTable struct {
	Anchor    string             `json:"anchor"`     // 锚定币种（其汇率恒为 1）
	Rates     map[string]float64 `json:"rates"`      // 币种 -> 相对锚定币种的汇率
	FetchedAt time.Time          `json:"fetched_at"` // 拉取时间
}

// Age 汇率表距今的时长
func (t *RateTable) Age(now time.Time) time.Duration {
	if t == nil || t.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(t.FetchedAt)
}

// Clone 复制汇率表
func (t *RateTable) Clone() *RateTable {
	if t == nil {
		return nil
	}
	rates := make(map[string]float64, len(t.Rates))
	for code, rate := range t.Rates {
		rates[code] = rate
	}
	return &RateTable{Anchor: t.Anchor, Rates: rates, FetchedAt: t.FetchedAt}
}
