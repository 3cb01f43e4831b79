package worker

import (
	"context"
	"errors"
	"time"

	"github.com/carrito-next/internal/config"
	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	rateRefreshFallbackInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.RateProvider != nil {
		go s.runRateRefreshLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runRateRefreshLoop 按缓存有效期周期性投递汇率刷新任务
func (s *Service) runRateRefreshLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.Container == nil {
		return
	}
	interval := rateRefreshFallbackInterval
	if s.consumer.Config != nil {
		if ttl := s.consumer.Config.Rates.CacheTTL(); ttl > 0 {
			interval = ttl
		}
	}
	runOnce := func() {
		payload := queue.RateRefreshPayload{Reason: "scheduled"}
		if s.consumer.QueueClient.Enabled() {
			if err := s.consumer.QueueClient.EnqueueRateRefresh(payload); err != nil {
				logger.Warnw("worker_rate_refresh_enqueue_failed", "error", err)
			}
			return
		}
		// 队列客户端不可用时直接刷新
		if err := s.consumer.RateProvider.Refresh(ctx); err != nil {
			logger.Warnw("worker_rate_refresh_inline_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
