package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/queue"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultPaymentExpireMinutes = 15

// OrderService 订单业务服务
type OrderService struct {
	orderRepo            repository.OrderRepository
	productRepo          repository.ProductRepository
	userRepo             repository.UserRepository
	linkService          *AffiliateLinkService
	commissionService    *CommissionService
	queueClient          *queue.Client
	paymentExpireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	linkService *AffiliateLinkService,
	commissionService *CommissionService,
	queueClient *queue.Client,
	paymentExpireMinutes int,
) *OrderService {
	if paymentExpireMinutes <= 0 {
		paymentExpireMinutes = defaultPaymentExpireMinutes
	}
	return &OrderService{
		orderRepo:            orderRepo,
		productRepo:          productRepo,
		userRepo:             userRepo,
		linkService:          linkService,
		commissionService:    commissionService,
		queueClient:          queueClient,
		paymentExpireMinutes: paymentExpireMinutes,
	}
}

// CreateOrderItemInput 下单商品输入
type CreateOrderItemInput struct {
	ProductID uint
	Quantity  int
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	Items        []CreateOrderItemInput
	VisitorKey   string
	ReferralCode string
	ClientIP     string
}

// CreateOrder 创建订单（锁定库存，下单时固化归因快照）
func (s *OrderService) CreateOrder(userID uint, input CreateOrderInput) (*models.Order, error) {
	if userID == 0 || len(input.Items) == 0 {
		return nil, ErrValidation
	}
	for _, item := range input.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrValidation
		}
	}

	buyer, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrNotFound
	}
	if buyer.Status != constants.UserStatusActive {
		return nil, ErrAccountDisabled
	}

	attribution, err := s.resolveAttribution(buyer, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.paymentExpireMinutes) * time.Minute)

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepoTx := s.orderRepo.WithTx(tx)
		productRepoTx := s.productRepo.WithTx(tx)

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			product, err := productRepoTx.GetByIDForUpdate(line.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				return ErrNotFound
			}
			if err := productRepoTx.LockStock(product.ID, line.Quantity); err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrOutOfStock
				}
				return err
			}
			lineTotal := product.PriceAmount.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(0)
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:  product.ID,
				TitleJSON:  product.TitleJSON,
				Tags:       product.Tags,
				UnitPrice:  product.PriceAmount,
				Quantity:   line.Quantity,
				TotalPrice: models.NewMoneyFromDecimal(lineTotal),
			})
		}

		order = &models.Order{
			OrderNo:         generateOrderNo(),
			UserID:          userID,
			Status:          constants.OrderStatusPendingPayment,
			Currency:        constants.SiteCurrencyDefault,
			TotalAmount:     models.NewMoneyFromDecimal(total),
			AffiliateLinkID: attribution.AffiliateLinkID,
			AffiliateUserID: attribution.AffiliateUserID,
			ReferralCode:    attribution.ReferralCode,
			ClientIP:        strings.TrimSpace(input.ClientIP),
			ExpiresAt:       &expiresAt,
		}
		if err := orderRepoTx.Create(order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := orderRepoTx.CreateItems(items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.queueClient.EnqueueOrderTimeoutCancel(
		queue.OrderTimeoutCancelPayload{OrderID: order.ID},
		time.Until(expiresAt),
	); err != nil {
		logger.Warnw("order_timeout_task_enqueue_failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

// MarkPaid 标记订单支付成功（占用库存转已售，触发佣金结算）
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrValidation
	}

	var result *models.Order
	var paidNow bool
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepoTx := s.orderRepo.WithTx(tx)
		order, err := orderRepoTx.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNotFound
		}
		if order.Status == constants.OrderStatusPaid || order.Status == constants.OrderStatusCompleted {
			result = order
			return nil
		}
		if order.Status != constants.OrderStatusPendingPayment {
			return ErrInvalidTransition
		}
		now := time.Now()
		if order.ExpiresAt != nil && !order.ExpiresAt.After(now) {
			return ErrOrderExpired
		}

		items, err := orderRepoTx.ListItems(order.ID)
		if err != nil {
			return err
		}
		productRepoTx := s.productRepo.WithTx(tx)
		for _, item := range items {
			if err := productRepoTx.CommitStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		order.UpdatedAt = now
		if err := orderRepoTx.Update(order); err != nil {
			return err
		}
		result = order
		paidNow = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paidNow {
		// 队列关闭时直接同步结算
		if !s.queueClient.Enabled() {
			if settleErr := s.commissionService.HandleOrderPaid(result); settleErr != nil {
				logger.Errorw("commission_settle_sync_failed", "order_id", result.ID, "error", settleErr)
			}
		} else if err := s.queueClient.EnqueueCommissionSettle(queue.CommissionSettlePayload{OrderID: result.ID}); err != nil {
			logger.Warnw("commission_settle_task_enqueue_failed", "order_id", result.ID, "error", err)
			if settleErr := s.commissionService.HandleOrderPaid(result); settleErr != nil {
				logger.Errorw("commission_settle_fallback_failed", "order_id", result.ID, "error", settleErr)
			}
		}
	}
	return result, nil
}

// Complete 完成订单
func (s *OrderService) Complete(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrValidation
	}
	var result *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepoTx := s.orderRepo.WithTx(tx)
		order, err := orderRepoTx.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNotFound
		}
		if order.Status == constants.OrderStatusCompleted {
			result = order
			return nil
		}
		if order.Status != constants.OrderStatusPaid {
			return ErrInvalidTransition
		}
		now := time.Now()
		order.Status = constants.OrderStatusCompleted
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := orderRepoTx.Update(order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel 取消待支付订单并释放占用库存
func (s *OrderService) Cancel(orderID uint, reason string) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrValidation
	}

	var result *models.Order
	var cancelled bool
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepoTx := s.orderRepo.WithTx(tx)
		order, err := orderRepoTx.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNotFound
		}
		if order.Status == constants.OrderStatusCanceled {
			result = order
			return nil
		}
		if order.Status != constants.OrderStatusPendingPayment {
			return ErrInvalidTransition
		}

		items, err := orderRepoTx.ListItems(order.ID)
		if err != nil {
			return err
		}
		productRepoTx := s.productRepo.WithTx(tx)
		for _, item := range items {
			if err := productRepoTx.ReleaseStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = constants.OrderStatusCanceled
		order.CanceledAt = &now
		order.UpdatedAt = now
		if err := orderRepoTx.Update(order); err != nil {
			return err
		}
		result = order
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		// 队列关闭时直接同步作废
		if !s.queueClient.Enabled() {
			if cancelErr := s.commissionService.HandleOrderCanceled(result.ID, reason); cancelErr != nil {
				logger.Errorw("commission_cancel_sync_failed", "order_id", result.ID, "error", cancelErr)
			}
		} else if err := s.queueClient.EnqueueCommissionCancel(queue.CommissionCancelPayload{
			OrderID: result.ID,
			Reason:  strings.TrimSpace(reason),
		}); err != nil {
			logger.Warnw("commission_cancel_task_enqueue_failed", "order_id", result.ID, "error", err)
			if cancelErr := s.commissionService.HandleOrderCanceled(result.ID, reason); cancelErr != nil {
				logger.Errorw("commission_cancel_fallback_failed", "order_id", result.ID, "error", cancelErr)
			}
		}
	}
	return result, nil
}

// CancelExpired 超时取消待支付订单（后台任务调用）
// 未到期或已流转的订单直接跳过
func (s *OrderService) CancelExpired(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order, nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return order, nil
	}
	return s.Cancel(orderID, "payment_timeout")
}

// SweepExpired 批量扫描支付超时订单（定时任务兜底）
func (s *OrderService) SweepExpired(now time.Time) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(now, 100)
	if err != nil {
		return 0, err
	}
	var count int
	for _, order := range orders {
		if _, err := s.CancelExpired(order.ID); err != nil {
			logger.Warnw("order_expired_sweep_cancel_failed", "order_id", order.ID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// GetByID 查询订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// GetByOrderNo 按订单号查询订单
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// List 查询订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// resolveAttribution 下单归因：显式推荐码优先于点击归因，自购永不归因
func (s *OrderService) resolveAttribution(buyer *models.User, input CreateOrderInput) (OrderAttribution, error) {
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err := s.userRepo.GetByReferralCode(strings.ToUpper(code))
		if err != nil {
			return OrderAttribution{}, err
		}
		if referrer != nil && referrer.ID != buyer.ID && referrer.Status == constants.UserStatusActive {
			referrerID := referrer.ID
			return OrderAttribution{
				AffiliateUserID: &referrerID,
				ReferralCode:    referrer.ReferralCode,
			}, nil
		}
	}
	return s.linkService.ResolveOrderAttribution(buyer.ID, input.VisitorKey)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("VC%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
