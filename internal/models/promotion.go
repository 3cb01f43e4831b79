package models

import (
	"time"

	"github.com/carrito-next/internal/constants"
)

// Promotion 活动价/折扣规则
type Promotion struct {
	ID         uint      `json:"id"`          // 主键
	Name       string    `json:"name"`        // 名称
	ScopeType  string    `json:"scope_type"`  // 适用范围（product/category）
	ScopeRefID uint      `json:"scope_ref_id"` // 关联商品或分类ID
	Type       string    `json:"type"`        // 类型（percentage）
	PercentOff float64   `json:"percent_off"` // 折扣百分比（0-100）
	CreatedAt  time.Time `json:"created_at"`  // 创建时间
}

// Valid 校验折扣规则是否可应用
func (p *Promotion) Valid() bool {
	if p == nil {
		return false
	}
	return p.Type == constants.PromotionTypePercent && p.PercentOff >= 0 && p.PercentOff <= 100
}
