package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/queue"
	"github.com/vietcart-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "order_service_test")
	settingService := newTestSettingService(t, db)

	linkRepo := repository.NewAffiliateLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	linkService := NewAffiliateLinkService(linkRepo, userRepo, 72*time.Hour)
	commissionService := NewCommissionService(
		repository.NewCommissionRepository(db),
		userRepo,
		repository.NewLedgerRepository(db),
		linkRepo,
		settingService,
	)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		userRepo,
		linkService,
		commissionService,
		queueClient,
		15,
	), db
}

func createTestProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int) *models.Product {
	t.Helper()
	category := &models.Category{
		Slug:     fmt.Sprintf("cat-%s", slug),
		NameJSON: models.JSON(map[string]interface{}{"vi-VN": "Danh mục", "en-US": "Category"}),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := &models.Product{
		CategoryID:         category.ID,
		Slug:               slug,
		TitleJSON:          models.JSON(map[string]interface{}{"vi-VN": "Sản phẩm", "en-US": "Product"}),
		PriceAmount:        models.NewMoneyFromInt(price),
		StockTotal:         stock,
		IsAffiliateEnabled: true,
		IsActive:           true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func reloadTestProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return &product
}

func TestOrderCreateLocksStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 701)
	product := createTestProduct(t, db, "order-lock", 650000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("unexpected status: %s", order.Status)
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(1300000)) {
		t.Fatalf("unexpected total: %s", order.TotalAmount.String())
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %+v", order.ExpiresAt)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	refreshed := reloadTestProduct(t, db, product.ID)
	if refreshed.StockLocked != 2 || refreshed.StockSold != 0 {
		t.Fatalf("expected locked=2 sold=0, got locked=%d sold=%d", refreshed.StockLocked, refreshed.StockSold)
	}
}

func TestOrderCreateOutOfStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 702)
	product := createTestProduct(t, db, "order-oos", 650000, 1)

	_, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got: %v", err)
	}
}

func TestOrderCreateUnlimitedStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 703)
	// stock_total = 0 表示不限量
	product := createTestProduct(t, db, "order-unlimited", 100000, 0)

	if _, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 50}},
	}); err != nil {
		t.Fatalf("unlimited stock order failed: %v", err)
	}
}

func TestOrderCreateReferralCodeAttribution(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 711)
	referrer := createTestUser(t, db, 712)
	product := createTestProduct(t, db, "order-referral", 500000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items:        []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ReferralCode: referrer.ReferralCode,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.AffiliateUserID == nil || *order.AffiliateUserID != referrer.ID {
		t.Fatalf("expected attribution to %d, got %+v", referrer.ID, order.AffiliateUserID)
	}
	if order.ReferralCode != referrer.ReferralCode {
		t.Fatalf("unexpected referral code snapshot: %q", order.ReferralCode)
	}

	// 自己的推荐码不产生归因
	selfOrder, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items:        []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ReferralCode: buyer.ReferralCode,
	})
	if err != nil {
		t.Fatalf("create self-code order failed: %v", err)
	}
	if selfOrder.AffiliateUserID != nil {
		t.Fatalf("self referral code must not attribute: %+v", selfOrder.AffiliateUserID)
	}
}

func TestOrderMarkPaidSettlesCommission(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 721)
	referrer := createTestUser(t, db, 722)
	product := createTestProduct(t, db, "order-paid", 1000000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items:        []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ReferralCode: referrer.ReferralCode,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := svc.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected paid order: %+v", paid)
	}

	refreshed := reloadTestProduct(t, db, product.ID)
	if refreshed.StockLocked != 0 || refreshed.StockSold != 1 {
		t.Fatalf("expected locked=0 sold=1, got locked=%d sold=%d", refreshed.StockLocked, refreshed.StockSold)
	}

	// 队列关闭时同步结算佣金
	var commission models.Commission
	if err := db.Where("order_id = ? AND user_id = ?", order.ID, referrer.ID).First(&commission).Error; err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if !commission.Amount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected commission amount: %s", commission.Amount.String())
	}

	// 重复标记支付为幂等操作
	again, err := svc.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("re-mark paid failed: %v", err)
	}
	if again.Status != constants.OrderStatusPaid {
		t.Fatalf("unexpected status on repeat: %s", again.Status)
	}
	var commissions int64
	if err := db.Model(&models.Commission{}).Where("order_id = ?", order.ID).Count(&commissions).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if commissions != 1 {
		t.Fatalf("expected 1 commission, got %d", commissions)
	}
}

func TestOrderMarkPaidExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 731)
	product := createTestProduct(t, db, "order-expired", 500000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire order failed: %v", err)
	}

	if _, err := svc.MarkPaid(order.ID); !errors.Is(err, ErrOrderExpired) {
		t.Fatalf("expected order expired, got: %v", err)
	}
}

func TestOrderCancelReleasesStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 741)
	product := createTestProduct(t, db, "order-cancel", 500000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.Cancel(order.ID, "user_cancelled")
	if err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCanceled || cancelled.CanceledAt == nil {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}

	refreshed := reloadTestProduct(t, db, product.ID)
	if refreshed.StockLocked != 0 || refreshed.StockSold != 0 {
		t.Fatalf("expected released stock, got locked=%d sold=%d", refreshed.StockLocked, refreshed.StockSold)
	}

	// 重复取消为幂等操作
	if _, err := svc.Cancel(order.ID, "again"); err != nil {
		t.Fatalf("re-cancel failed: %v", err)
	}

	// 已取消订单不能支付
	if _, err := svc.MarkPaid(order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
}

func TestOrderCancelCancelsPendingCommissions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 746)
	referrer := createTestUser(t, db, 747)
	product := createTestProduct(t, db, "order-cancel-commission", 1000000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items:        []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ReferralCode: referrer.ReferralCode,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.MarkPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	// 支付后人工回退为待支付再取消（模拟支付失败冲正路径）
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusPendingPayment).Error; err != nil {
		t.Fatalf("reset order status failed: %v", err)
	}

	if _, err := svc.Cancel(order.ID, "payment_reversed"); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	var commission models.Commission
	if err := db.Where("order_id = ?", order.ID).First(&commission).Error; err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if commission.Status != constants.CommissionStatusCancelled || commission.CancelReason != "payment_reversed" {
		t.Fatalf("expected cancelled commission, got %+v", commission)
	}
}

func TestOrderCancelExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 751)
	product := createTestProduct(t, db, "order-timeout", 500000, 10)

	order, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 未到期时跳过
	untouched, err := svc.CancelExpired(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if untouched.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("unexpired order must stay pending, got %s", untouched.Status)
	}

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire order failed: %v", err)
	}

	cancelled, err := svc.CancelExpired(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", cancelled.Status)
	}

	refreshed := reloadTestProduct(t, db, product.ID)
	if refreshed.StockLocked != 0 {
		t.Fatalf("expected released stock, got locked=%d", refreshed.StockLocked)
	}
}

func TestOrderSweepExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	buyer := createTestUser(t, db, 761)
	product := createTestProduct(t, db, "order-sweep", 500000, 10)

	expiredOrder, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	freshOrder, err := svc.CreateOrder(buyer.ID, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", expiredOrder.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire order failed: %v", err)
	}

	count, err := svc.SweepExpired(time.Now())
	if err != nil {
		t.Fatalf("sweep expired failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 swept order, got %d", count)
	}

	var fresh models.Order
	if err := db.First(&fresh, freshOrder.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("fresh order must stay pending, got %s", fresh.Status)
	}
}
