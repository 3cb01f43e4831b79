package service

import "errors"

var (
	// ErrInvalidLineItem 行项目参数非法（缺少三元组、数量或价格不合法）
	ErrInvalidLineItem = errors.New("cart line item invalid")
	// ErrSizeUnavailable 尺码在当前款式下无货或不存在
	ErrSizeUnavailable = errors.New("size unavailable for variant")
	// ErrNoVariantSelected 尚未选择款式
	ErrNoVariantSelected = errors.New("no variant selected")
	// ErrPriceUnavailable 无法为行项目解析出基准价
	ErrPriceUnavailable = errors.New("price unavailable")
)
