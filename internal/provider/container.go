package provider

import (
	"context"

	"github.com/carrito-next/internal/cache"
	"github.com/carrito-next/internal/config"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/queue"
	"github.com/carrito-next/internal/rates"
	"github.com/carrito-next/internal/service"
	"github.com/carrito-next/internal/session"
	"github.com/carrito-next/internal/storefront"
)

// Container 依赖注入容器：所有服务对象在进程启动时构造一次，
// 之后通过参数显式传递，不依赖隐藏的全局单例
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	Storefront   *storefront.Client
	Sessions     *session.Resolver
	RateProvider *rates.Provider

	PromotionService *service.PromotionService
	StockService     *service.StockService
	PricingService   *service.PricingService
	CartService      *service.CartService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	storefrontClient, err := storefront.NewClient(storefront.Config{
		BaseURL: cfg.Storefront.BaseURL,
		Timeout: cfg.Storefront.Timeout(),
	})
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Storefront:  storefrontClient,
	}
	c.initServices()
	return c, nil
}

func (c *Container) initServices() {
	c.Sessions = session.NewResolver(c.Config.Session.UserJWTSecret)

	c.RateProvider = rates.NewProvider(rates.Config{
		Endpoint: c.Config.Rates.Endpoint,
		Anchor:   c.Config.Rates.Anchor,
		CacheTTL: c.Config.Rates.CacheTTL(),
		Timeout:  c.Config.Rates.Timeout(),
	})
	c.RateProvider.Bootstrap(context.Background())

	c.PromotionService = service.NewPromotionService(c.Storefront)
	c.StockService = service.NewStockService(c.Storefront)
	c.PricingService = service.NewPricingService(c.PromotionService)
	c.CartService = service.NewCartService(c.Storefront, c.Sessions, c.PricingService)

	// 身份切换后折扣可见性可能变化
	c.Sessions.OnLogout(c.PromotionService.Invalidate)
}
