package router

import (
	"fmt"
	"strings"

	"github.com/carrito-next/internal/cache"
	"github.com/carrito-next/internal/config"
	publichandlers "github.com/carrito-next/internal/http/handlers/public"
	"github.com/carrito-next/internal/http/response"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cn"
	}
	mutationRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart_mutation", redisPrefix),
		WindowSeconds: cfg.Security.MutationRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.MutationRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(IdentityHeaderMiddleware())

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 购物车接口（写操作走频率限制）
		cart := apiV1.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)

			mutate := cart.Group("", RateLimitMiddleware(cache.Client(), mutationRule, KeyByIP))
			{
				mutate.POST("/items", publicHandler.AddCartItem)
				mutate.PUT("/items", publicHandler.UpdateCartItem)
				mutate.DELETE("/items", publicHandler.DeleteCartItem)
				mutate.DELETE("", publicHandler.ClearCart)
			}
		}

		// 库存与选款
		apiV1.GET("/products/:variant_id/stock", publicHandler.GetVariantStock)
		apiV1.POST("/stock/size", publicHandler.SelectSize)

		// 展示价解析
		apiV1.GET("/pricing/display", publicHandler.GetDisplayPrice)

		// 汇率
		apiV1.GET("/rates", publicHandler.GetRates)
		apiV1.GET("/rates/convert", publicHandler.ConvertPrice)

		// 会话身份
		session := apiV1.Group("/session")
		{
			session.GET("", publicHandler.GetSession)
			session.POST("/login", publicHandler.SessionLogin)
			session.POST("/logout", publicHandler.SessionLogout)
		}
	}

	return r
}
