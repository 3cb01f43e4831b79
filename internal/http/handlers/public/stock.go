package public

import (
	"errors"
	"strconv"

	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/storefront"

	"github.com/gin-gonic/gin"
)

// SizeSelectRequest 尺码选择请求
type SizeSelectRequest struct {
	SizeID uint `json:"size_id" binding:"required"`
}

// GetVariantStock 切换款式并拉取库存
//
// 切换会清空当前尺码选择，旧款式的迟到响应会被丢弃。
func (h *Handler) GetVariantStock(c *gin.Context) {
	rawID := c.Param("variant_id")
	variantID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || variantID == 0 {
		respondError(c, response.CodeBadRequest, "variant invalid", nil)
		return
	}
	entries, err := h.StockService.SelectVariant(c.Request.Context(), uint(variantID))
	if err != nil {
		// 库存是读路径：后端不可达时按全部无货降级，不向前端报错
		if errors.Is(err, storefront.ErrRequestFailed) || errors.Is(err, storefront.ErrResponseInvalid) {
			logger.Warnw("variant_stock_degraded", "variant_id", variantID, "error", err)
			response.Success(c, gin.H{
				"variant_id":    uint(variantID),
				"entries":       []models.StockEntry{},
				"variant_price": nil,
				"degraded":      true,
			})
			return
		}
		respondStockError(c, err)
		return
	}
	response.Success(c, gin.H{
		"variant_id":    uint(variantID),
		"entries":       entries,
		"variant_price": h.StockService.VariantPrice(),
		"degraded":      false,
	})
}

// SelectSize 选择尺码（仅允许有货尺码）
func (h *Handler) SelectSize(c *gin.Context) {
	var req SizeSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.StockService.SelectSize(req.SizeID); err != nil {
		respondStockError(c, err)
		return
	}
	entry, _ := h.StockService.SelectedEntry()
	response.Success(c, gin.H{
		"variant_id": h.StockService.VariantID(),
		"selected":   entry,
	})
}
