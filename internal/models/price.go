package models

// PriceResult 单价解析结果
type PriceResult struct {
	FinalPrice      Money   `json:"final_price"`      // 折后价
	OriginalPrice   Money   `json:"original_price"`   // 原价
	HasDiscount     bool    `json:"has_discount"`     // 是否存在折扣
	DiscountPercent float64 `json:"discount_percent"` // 折扣百分比
}

// PriceRange 价格区间（款式下各尺码独立计算折扣后的最低/最高价）
type PriceRange struct {
	Min PriceResult `json:"min"` // 区间下限
	Max PriceResult `json:"max"` // 区间上限
}

// IsSingle 区间是否收敛为单一价格
func (r PriceRange) IsSingle() bool {
	return r.Min.FinalPrice.Equal(r.Max.FinalPrice.Decimal) && r.Min.OriginalPrice.Equal(r.Max.OriginalPrice.Decimal)
}
