package public

import (
	"strconv"
	"strings"

	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDisplayPrice 解析当前选中款式的展示价
//
// 优先级：已选尺码价 > 尺码价区间 > 款式统一价。
func (h *Handler) GetDisplayPrice(c *gin.Context) {
	rawProduct := c.Query("product_id")
	productID, err := strconv.ParseUint(rawProduct, 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product invalid", nil)
		return
	}
	var categoryID uint64
	if rawCategory := c.Query("category_id"); rawCategory != "" {
		categoryID, err = strconv.ParseUint(rawCategory, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "category invalid", nil)
			return
		}
	}
	if h.StockService.VariantID() == 0 {
		respondPricingError(c, service.ErrNoVariantSelected)
		return
	}

	input := service.DisplayPriceInput{
		ProductID:    uint(productID),
		CategoryID:   uint(categoryID),
		Entries:      h.StockService.Entries(),
		VariantPrice: h.StockService.VariantPrice(),
	}
	if sizeID, ok := h.StockService.SelectedSize(); ok {
		input.SelectedSize = sizeID
	}

	single, priceRange, err := h.PricingService.ResolveDisplayPrice(c.Request.Context(), input)
	if err != nil {
		respondPricingError(c, err)
		return
	}

	data := gin.H{}
	currency := strings.ToUpper(strings.TrimSpace(c.Query("currency")))
	if single != nil {
		data["price"] = single
		if currency != "" {
			data["formatted"] = h.RateProvider.FormatPrice(single.FinalPrice.InexactFloat64(), currency, "")
		}
	}
	if priceRange != nil {
		data["range"] = priceRange
		if currency != "" {
			data["formatted_min"] = h.RateProvider.FormatPrice(priceRange.Min.FinalPrice.InexactFloat64(), currency, "")
			data["formatted_max"] = h.RateProvider.FormatPrice(priceRange.Max.FinalPrice.InexactFloat64(), currency, "")
		}
	}
	response.Success(c, data)
}
