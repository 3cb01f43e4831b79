package queue

import (
	"encoding/json"

	"github.com/carrito-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRateRefresh 汇率刷新任务
	TaskRateRefresh = constants.TaskRateRefresh
	// TaskPromotionWarm 活动价缓存预热任务
	TaskPromotionWarm = constants.TaskPromotionWarm
)

// RateRefreshPayload 汇率刷新任务载荷
type RateRefreshPayload struct {
	Reason string `json:"reason"`
}

// PromotionWarmPayload 活动价预热任务载荷
type PromotionWarmPayload struct {
	ProductID  uint `json:"product_id"`
	CategoryID uint `json:"category_id"`
}

// NewRateRefreshTask 创建汇率刷新任务
func NewRateRefreshTask(payload RateRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRateRefresh, body), nil
}

// NewPromotionWarmTask 创建活动价预热任务
func NewPromotionWarmTask(payload PromotionWarmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromotionWarm, body), nil
}
