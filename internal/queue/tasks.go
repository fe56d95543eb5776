package queue

import (
	"encoding/json"

	"github.com/vietcart-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 订单超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskCommissionSettle 订单佣金结算任务
	TaskCommissionSettle = constants.TaskCommissionSettle
	// TaskCommissionCancel 订单佣金作废任务
	TaskCommissionCancel = constants.TaskCommissionCancel
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// CommissionSettlePayload 佣金结算任务载荷
type CommissionSettlePayload struct {
	OrderID uint `json:"order_id"`
}

// CommissionCancelPayload 佣金作废任务载荷
type CommissionCancelPayload struct {
	OrderID uint   `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewCommissionSettleTask 创建佣金结算任务
func NewCommissionSettleTask(payload CommissionSettlePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionSettle, body), nil
}

// NewCommissionCancelTask 创建佣金作废任务
func NewCommissionCancelTask(payload CommissionCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionCancel, body), nil
}
