package models

// StockEntry 单个款式下某尺码的库存
type StockEntry struct {
	SizeID            uint   `json:"size_id"`            // 尺码ID
	SizeName          string `json:"size_name"`          // 尺码名称
	QuantityAvailable int    `json:"quantity_available"` // 可售数量（0 表示不可加购）
	SizePrice         *Money `json:"size_price"`         // 尺码专属价（为空则回退款式价格）
}

// Selectable 尺码是否可被选中加购
func (e StockEntry) Selectable() bool {
	return e.QuantityAvailable > 0
}
