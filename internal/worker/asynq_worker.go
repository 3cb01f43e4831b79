package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/carrito-next/internal/logger"
	"github.com/carrito-next/internal/provider"
	"github.com/carrito-next/internal/queue"
	"github.com/carrito-next/internal/rates"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRateRefresh, c.handleRateRefresh)
	mux.HandleFunc(queue.TaskPromotionWarm, c.handlePromotionWarm)
}

func (c *Consumer) handleRateRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_rate_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RateRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_rate_refresh_unmarshal_failed", "error", err)
		return err
	}
	if c.RateProvider == nil {
		logger.Warnw("worker_rate_refresh_skip_provider_nil", "reason", payload.Reason)
		return nil
	}
	if err := c.RateProvider.Refresh(ctx); err != nil {
		switch {
		case errors.Is(err, rates.ErrFetchFailed):
			// 上游不可达时保留当前表，等下一轮调度
			logger.Warnw("worker_rate_refresh_fetch_failed", "reason", payload.Reason, "error", err)
			return nil
		case errors.Is(err, rates.ErrResponseInvalid):
			logger.Warnw("worker_rate_refresh_response_invalid", "reason", payload.Reason, "error", err)
			return nil
		default:
			logger.Warnw("worker_rate_refresh_failed", "reason", payload.Reason, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handlePromotionWarm(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_promotion_warm_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PromotionWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_promotion_warm_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 {
		logger.Debugw("worker_promotion_warm_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}
	if c.PromotionService == nil {
		logger.Warnw("worker_promotion_warm_skip_service_nil", "product_id", payload.ProductID)
		return nil
	}
	c.PromotionService.Resolve(ctx, payload.ProductID, payload.CategoryID)
	return nil
}
