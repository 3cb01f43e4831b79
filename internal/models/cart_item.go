package models

// LineItemKey 购物车行唯一键（商品+款式+尺码三元组）
type LineItemKey struct {
	ProductID uint `json:"product_id"` // 商品ID
	VariantID uint `json:"variant_id"` // 款式ID
	SizeID    uint `json:"size_id"`    // 尺码ID
}

// CartLineItem 购物车行项目
//
// 价格字段仅作展示缓存，渲染前必须经过价格解析重新计算。
type CartLineItem struct {
	ProductID   uint   `json:"product_id"`   // 商品ID
	VariantID   uint   `json:"variant_id"`   // 款式ID
	SizeID      uint   `json:"size_id"`      // 尺码ID
	Quantity    int    `json:"quantity"`     // 数量（≥1，0 或负数视为删除）
	UnitPrice   Money  `json:"unit_price"`   // 加购时单价（仅供参考）
	ProductName string `json:"product_name"` // 商品名称
	VariantName string `json:"variant_name"` // 款式名称
	SizeName    string `json:"size_name"`    // 尺码名称
	ImageURL    string `json:"image_url"`    // 图片地址
	CategoryID  uint   `json:"category_id"`  // 分类ID
	Brand       string `json:"brand"`        // 品牌
}

// Key 返回行项目唯一键
func (i CartLineItem) Key() LineItemKey {
	return LineItemKey{ProductID: i.ProductID, VariantID: i.VariantID, SizeID: i.SizeID}
}
