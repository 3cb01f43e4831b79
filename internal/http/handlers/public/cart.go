package public

import (
	"strconv"

	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/models"
	"github.com/carrito-next/internal/queue"
	"github.com/carrito-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加购请求
type CartItemRequest struct {
	ProductID  uint         `json:"product_id" binding:"required"`
	VariantID  uint         `json:"variant_id" binding:"required"`
	SizeID     uint         `json:"size_id" binding:"required"`
	CategoryID uint         `json:"category_id"`
	Quantity   int          `json:"quantity" binding:"required"`
	UnitPrice  models.Money `json:"unit_price"`
}

// CartQuantityRequest 修改数量请求（数量 ≤0 等价于删除）
type CartQuantityRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id" binding:"required"`
	SizeID    uint `json:"size_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// GetCart 获取购物车（每次读取都从后端全量刷新）
func (h *Handler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.CartService.Refresh(ctx); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{
		"items":  h.CartService.Items(),
		"totals": h.CartService.Totals(ctx),
	})
}

// AddCartItem 添加购物车项
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	ctx := c.Request.Context()
	if err := h.CartService.AddItem(ctx, service.AddLineItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		SizeID:    req.SizeID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}); err != nil {
		respondCartError(c, err)
		return
	}
	// 加购后预热该商品的活动价缓存，后续合计计算可直接命中
	if err := h.QueueClient.EnqueuePromotionWarm(queue.PromotionWarmPayload{
		ProductID:  req.ProductID,
		CategoryID: req.CategoryID,
	}); err != nil {
		logger.Warnw("promotion_warm_enqueue_failed", "product_id", req.ProductID, "error", err)
	}
	response.Success(c, gin.H{
		"items":  h.CartService.Items(),
		"totals": h.CartService.Totals(ctx),
	})
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	ctx := c.Request.Context()
	key := models.LineItemKey{ProductID: req.ProductID, VariantID: req.VariantID, SizeID: req.SizeID}
	if err := h.CartService.UpdateQuantity(ctx, key, req.Quantity); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{
		"items":  h.CartService.Items(),
		"totals": h.CartService.Totals(ctx),
	})
}

// DeleteCartItem 删除购物车项（不存在的行为无操作）
func (h *Handler) DeleteCartItem(c *gin.Context) {
	key, ok := parseLineItemKey(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.CartService.RemoveItem(ctx, key); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{
		"items":  h.CartService.Items(),
		"totals": h.CartService.Totals(ctx),
	})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.CartService.Clear(ctx); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

func parseLineItemKey(c *gin.Context) (models.LineItemKey, bool) {
	productID, ok := parseQueryUint(c, "product_id")
	if !ok {
		return models.LineItemKey{}, false
	}
	variantID, ok := parseQueryUint(c, "variant_id")
	if !ok {
		return models.LineItemKey{}, false
	}
	sizeID, ok := parseQueryUint(c, "size_id")
	if !ok {
		return models.LineItemKey{}, false
	}
	return models.LineItemKey{ProductID: productID, VariantID: variantID, SizeID: sizeID}, true
}

func parseQueryUint(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "cart item invalid", nil)
		return 0, false
	}
	return uint(value), true
}
