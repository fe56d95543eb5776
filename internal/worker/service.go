package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Service 异步队列服务（asynq 消费 + 定时巡检）
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	cron     *cron.Cron
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

	s := &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		cron:     cron.New(),
	}
	if err := s.registerCronJobs(); err != nil {
		return nil, err
	}
	return s, nil
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
	_ = ctx
	if s.cron != nil {
		s.cron.Start()
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) registerCronJobs() error {
	if s.consumer == nil || s.consumer.Container == nil {
		return errors.New("consumer container is nil")
	}
	cfg := s.consumer.Config.Affiliate

	settleMinutes := cfg.SettleIntervalMinutes
	if settleMinutes <= 0 {
		settleMinutes = 30
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", settleMinutes), s.runCommissionSettleDue); err != nil {
		return err
	}

	// 队列投递失败时的超时订单兜底扫描
	if _, err := s.cron.AddFunc("@every 5m", s.runExpiredOrderSweep); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@hourly", s.runLinkExpirySweep); err != nil {
		return err
	}

	reconcileHours := cfg.ReconcileIntervalHours
	if reconcileHours <= 0 {
		reconcileHours = 24
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %dh", reconcileHours), s.runLedgerReconcileSweep); err != nil {
		return err
	}
	return nil
}

func (s *Service) runCommissionSettleDue() {
	settled, err := s.consumer.CommissionService.SettleConfirmDue(time.Now())
	if err != nil {
		logger.Warnw("worker_commission_settle_due_failed", "error", err)
		return
	}
	if settled > 0 {
		logger.Infow("worker_commission_settle_due_done", "settled", settled)
	}
}

func (s *Service) runExpiredOrderSweep() {
	count, err := s.consumer.OrderService.SweepExpired(time.Now())
	if err != nil {
		logger.Warnw("worker_expired_order_sweep_failed", "error", err)
		return
	}
	if count > 0 {
		logger.Infow("worker_expired_order_sweep_done", "canceled", count)
	}
}

func (s *Service) runLinkExpirySweep() {
	count, err := s.consumer.LinkService.ExpireLinks(time.Now())
	if err != nil {
		logger.Warnw("worker_link_expiry_sweep_failed", "error", err)
		return
	}
	if count > 0 {
		logger.Infow("worker_link_expiry_sweep_done", "expired", count)
	}
}

func (s *Service) runLedgerReconcileSweep() {
	reconcileHours := s.consumer.Config.Affiliate.ReconcileIntervalHours
	if reconcileHours <= 0 {
		reconcileHours = 24
	}
	since := time.Now().Add(-time.Duration(reconcileHours) * time.Hour)
	mismatched, err := s.consumer.LedgerService.ReconcileSweep(since)
	if err != nil {
		logger.Warnw("worker_ledger_reconcile_sweep_failed", "error", err)
		return
	}
	if len(mismatched) > 0 {
		logger.Errorw("worker_ledger_reconcile_sweep_mismatch", "count", len(mismatched))
	}
}
