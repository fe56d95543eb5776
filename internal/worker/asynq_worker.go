package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/provider"
	"github.com/vietcart-next/internal/queue"
	"github.com/vietcart-next/internal/service"

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
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskCommissionSettle, c.handleCommissionSettle)
	mux.HandleFunc(queue.TaskCommissionCancel, c.handleCommissionCancel)
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if _, err := c.OrderService.CancelExpired(payload.OrderID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCommissionSettle(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_settle_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CommissionSettlePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_commission_settle_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_commission_settle_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_commission_settle_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_commission_settle_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if err := c.CommissionService.HandleOrderPaid(order); err != nil {
		logger.Warnw("worker_commission_settle_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCommissionCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CommissionCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_commission_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_commission_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.CommissionService.HandleOrderCanceled(payload.OrderID, payload.Reason); err != nil {
		logger.Warnw("worker_commission_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}
