package public

import (
	handlershared "github.com/carrito-next/internal/http/handlers/shared"
	"github.com/carrito-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 前台购物车接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}
