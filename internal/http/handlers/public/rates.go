package public

import (
	"strconv"

	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/rates"

	"github.com/gin-gonic/gin"
)

// GetRates 返回当前汇率表快照
func (h *Handler) GetRates(c *gin.Context) {
	table := h.RateProvider.Table()
	data := gin.H{
		"anchor": table.Anchor,
		"rates":  table.Rates,
		"stale":  h.RateProvider.Stale(),
	}
	if !table.FetchedAt.IsZero() {
		data["fetched_at"] = table.FetchedAt
	}
	response.Success(c, data)
}

// ConvertPrice 将金额换算到目标币种并格式化
func (h *Handler) ConvertPrice(c *gin.Context) {
	rawAmount := c.Query("amount")
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "amount invalid", nil)
		return
	}
	from := c.Query("from")
	to := c.Query("to")
	if to == "" {
		respondError(c, response.CodeBadRequest, "target currency required", nil)
		return
	}
	response.Success(c, gin.H{
		"rate":      h.RateProvider.GetRate(from, to),
		"formatted": h.RateProvider.FormatPrice(amount, to, from),
		"symbol":    rates.Symbol(to),
	})
}
