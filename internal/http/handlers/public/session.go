package public

import (
	"github.com/carrito-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SessionLoginRequest 登录请求（携带后端签发的用户 JWT）
type SessionLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// GetSession 查询当前身份
func (h *Handler) GetSession(c *gin.Context) {
	data := gin.H{"kind": h.Sessions.Kind()}
	if userID := h.Sessions.UserID(); userID != 0 {
		data["user_id"] = userID
	}
	response.Success(c, data)
}

// SessionLogin 登录（后端已将匿名购物车并入用户购物车）
func (h *Handler) SessionLogin(c *gin.Context) {
	var req SessionLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	ctx := c.Request.Context()
	if err := h.Sessions.Login(ctx, req.Token); err != nil {
		respondSessionError(c, err)
		return
	}
	if err := h.CartService.Refresh(ctx); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{
		"kind":    h.Sessions.Kind(),
		"user_id": h.Sessions.UserID(),
	})
}

// SessionLogout 登出（清空本地购物车，旧匿名令牌立即作废）
func (h *Handler) SessionLogout(c *gin.Context) {
	h.Sessions.Logout(c.Request.Context())
	response.Success(c, gin.H{"kind": h.Sessions.Kind()})
}
