package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.BankAccount{},
		&models.AffiliateLink{},
		&models.AffiliateClick{},
		&models.Commission{},
		&models.Withdrawal{},
		&models.LedgerEntry{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func newTestSettingService(t *testing.T, db *gorm.DB) *SettingService {
	t.Helper()
	svc := NewSettingService(repository.NewSettingRepository(db))
	if _, err := svc.UpdateAffiliateSetting(AffiliateDefaultSetting()); err != nil {
		t.Fatalf("seed affiliate setting failed: %v", err)
	}
	return svc
}

func createTestUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("user_%d@example.com", id),
		PasswordHash: "hash",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		ReferralCode: fmt.Sprintf("CODE%04d", id),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func setTestUserBalance(t *testing.T, db *gorm.DB, userID uint, amount int64) {
	t.Helper()
	if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_commission":  amount,
		"available_balance": amount,
	}).Error; err != nil {
		t.Fatalf("set user balance failed: %v", err)
	}
}

func reloadTestUser(t *testing.T, db *gorm.DB, userID uint) *models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	return &user
}

func createPaidTestOrder(t *testing.T, db *gorm.DB, buyerID uint, affiliateUserID, affiliateLinkID *uint, total int64) *models.Order {
	t.Helper()
	now := time.Now()
	paidAt := now
	order := &models.Order{
		OrderNo:         fmt.Sprintf("VCTEST%d", time.Now().UnixNano()),
		UserID:          buyerID,
		Status:          constants.OrderStatusPaid,
		Currency:        constants.SiteCurrencyDefault,
		TotalAmount:     models.NewMoneyFromInt(total),
		AffiliateLinkID: affiliateLinkID,
		AffiliateUserID: affiliateUserID,
		PaidAt:          &paidAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func setupCommissionServiceTest(t *testing.T) (*CommissionService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "commission_service_test")
	settingService := newTestSettingService(t, db)
	return NewCommissionService(
		repository.NewCommissionRepository(db),
		repository.NewUserRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAffiliateLinkRepository(db),
		settingService,
	), db
}

func TestCommissionCreateRejectsInvalidRate(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	user := createTestUser(t, db, 201)
	order := createPaidTestOrder(t, db, 202, nil, nil, 1000000)

	_, err := svc.CreateCommission(CreateCommissionInput{
		UserID:         user.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(1.5),
	})
	if !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got: %v", err)
	}
}

func TestCommissionCreateDuplicate(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	user := createTestUser(t, db, 203)
	order := createPaidTestOrder(t, db, 204, nil, nil, 1000000)

	input := CreateCommissionInput{
		UserID:         user.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(0.05),
	}
	commission, err := svc.CreateCommission(input)
	if err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	if !commission.Amount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected commission amount: %s", commission.Amount.String())
	}
	if commission.Status != constants.CommissionStatusPending {
		t.Fatalf("unexpected commission status: %s", commission.Status)
	}

	if _, err := svc.CreateCommission(input); !errors.Is(err, ErrDuplicateCommission) {
		t.Fatalf("expected duplicate commission, got: %v", err)
	}
}

func TestCommissionHandleOrderPaidTwoLevels(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	buyer := createTestUser(t, db, 211)
	referrer := createTestUser(t, db, 213)
	earner := createTestUser(t, db, 212)
	earner.ReferredByUserID = &referrer.ID
	if err := db.Save(earner).Error; err != nil {
		t.Fatalf("bind referrer failed: %v", err)
	}

	earnerID := earner.ID
	order := createPaidTestOrder(t, db, buyer.ID, &earnerID, nil, 1000000)
	if err := svc.HandleOrderPaid(order); err != nil {
		t.Fatalf("handle order paid failed: %v", err)
	}

	var commissions []models.Commission
	if err := db.Where("order_id = ?", order.ID).Order("level ASC").Find(&commissions).Error; err != nil {
		t.Fatalf("load commissions failed: %v", err)
	}
	if len(commissions) != 2 {
		t.Fatalf("expected 2 commissions, got %d", len(commissions))
	}
	if commissions[0].UserID != earner.ID || !commissions[0].Amount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected level1 commission: %+v", commissions[0])
	}
	if commissions[1].UserID != referrer.ID || !commissions[1].Amount.Decimal.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected level2 commission: %+v", commissions[1])
	}
	if commissions[0].ConfirmAt == nil || commissions[1].ConfirmAt == nil {
		t.Fatalf("expected confirm_at to be set")
	}

	// 重复结算不重复建佣金
	if err := svc.HandleOrderPaid(order); err != nil {
		t.Fatalf("re-handle order paid failed: %v", err)
	}
	var total int64
	if err := db.Model(&models.Commission{}).Where("order_id = ?", order.ID).Count(&total).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 commissions after resettle, got %d", total)
	}
}

func TestCommissionHandleOrderPaidSelfPurchase(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	buyer := createTestUser(t, db, 221)

	buyerID := buyer.ID
	order := createPaidTestOrder(t, db, buyer.ID, &buyerID, nil, 1000000)
	if err := svc.HandleOrderPaid(order); err != nil {
		t.Fatalf("handle order paid failed: %v", err)
	}

	var total int64
	if err := db.Model(&models.Commission{}).Where("order_id = ?", order.ID).Count(&total).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("self purchase must not earn commission, got %d records", total)
	}
}

func TestCommissionHandleOrderPaidLinkRateOverride(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	buyer := createTestUser(t, db, 231)
	earner := createTestUser(t, db, 232)

	linkRate := decimal.NewFromFloat(0.1)
	link := &models.AffiliateLink{
		UserID:         earner.ID,
		Slug:           "linkrate001",
		LinkType:       constants.AffiliateLinkTypeGeneral,
		Status:         constants.AffiliateLinkStatusActive,
		CommissionRate: &linkRate,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	earnerID := earner.ID
	linkID := link.ID
	order := createPaidTestOrder(t, db, buyer.ID, &earnerID, &linkID, 1000000)
	if err := svc.HandleOrderPaid(order); err != nil {
		t.Fatalf("handle order paid failed: %v", err)
	}

	var commission models.Commission
	if err := db.Where("order_id = ? AND level = ?", order.ID, constants.CommissionLevelDirect).First(&commission).Error; err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if !commission.Amount.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected link rate override amount 100000, got %s", commission.Amount.String())
	}

	var refreshed models.AffiliateLink
	if err := db.First(&refreshed, link.ID).Error; err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if refreshed.ConversionCount != 1 {
		t.Fatalf("expected conversion count 1, got %d", refreshed.ConversionCount)
	}
	if !refreshed.TotalCommission.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected link total commission: %s", refreshed.TotalCommission.String())
	}
}

func TestCommissionApproveCreditsOnce(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	earner := createTestUser(t, db, 241)
	order := createPaidTestOrder(t, db, 242, nil, nil, 1000000)

	commission, err := svc.CreateCommission(CreateCommissionInput{
		UserID:         earner.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(0.05),
	})
	if err != nil {
		t.Fatalf("create commission failed: %v", err)
	}

	if err := svc.Approve(1, []uint{commission.ID}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	var approved models.Commission
	if err := db.First(&approved, commission.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if approved.Status != constants.CommissionStatusPaid {
		t.Fatalf("expected status PAID, got %s", approved.Status)
	}
	if approved.CreditedAt == nil || approved.PaidAt == nil {
		t.Fatalf("expected credited_at and paid_at to be set")
	}

	user := reloadTestUser(t, db, earner.ID)
	if !user.AvailableBalance.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected balance after approve: %s", user.AvailableBalance.String())
	}
	if !user.TotalCommission.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected total commission: %s", user.TotalCommission.String())
	}

	// 重复批准为幂等空操作
	if err := svc.Approve(1, []uint{commission.ID}); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	user = reloadTestUser(t, db, earner.ID)
	if !user.AvailableBalance.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("balance must not double credit: %s", user.AvailableBalance.String())
	}

	var entries int64
	if err := db.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND entry_type = ?", earner.ID, constants.LedgerEntryCommissionCredit).
		Count(&entries).Error; err != nil {
		t.Fatalf("count ledger entries failed: %v", err)
	}
	if entries != 1 {
		t.Fatalf("expected exactly 1 credit entry, got %d", entries)
	}
}

func TestCommissionApproveRejectsCancelledBatch(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	earner := createTestUser(t, db, 251)
	order := createPaidTestOrder(t, db, 252, nil, nil, 1000000)

	commission, err := svc.CreateCommission(CreateCommissionInput{
		UserID:         earner.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(0.05),
	})
	if err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	if err := db.Model(&models.Commission{}).Where("id = ?", commission.ID).
		Update("status", constants.CommissionStatusCancelled).Error; err != nil {
		t.Fatalf("cancel commission failed: %v", err)
	}

	if err := svc.Approve(1, []uint{commission.ID}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
	user := reloadTestUser(t, db, earner.ID)
	if !user.AvailableBalance.Decimal.IsZero() {
		t.Fatalf("cancelled commission must not credit balance: %s", user.AvailableBalance.String())
	}
}

func TestCommissionRejectOnlyPending(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	earner := createTestUser(t, db, 261)
	order := createPaidTestOrder(t, db, 262, nil, nil, 1000000)

	commission, err := svc.CreateCommission(CreateCommissionInput{
		UserID:         earner.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(0.05),
	})
	if err != nil {
		t.Fatalf("create commission failed: %v", err)
	}

	if err := svc.Reject(1, []uint{commission.ID}, "刷单嫌疑"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	var rejected models.Commission
	if err := db.First(&rejected, commission.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if rejected.Status != constants.CommissionStatusCancelled || rejected.CancelReason != "刷单嫌疑" {
		t.Fatalf("unexpected rejected commission: %+v", rejected)
	}

	// 已作废记录不能再作废
	if err := svc.Reject(1, []uint{commission.ID}, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
}

func TestCommissionSettleConfirmDue(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	earner := createTestUser(t, db, 271)
	order := createPaidTestOrder(t, db, 272, nil, nil, 1000000)

	confirmAt := time.Now().Add(-time.Hour)
	commission, err := svc.CreateCommission(CreateCommissionInput{
		UserID:         earner.ID,
		OrderID:        order.ID,
		Level:          constants.CommissionLevelDirect,
		OrderAmount:    decimal.NewFromInt(1000000),
		CommissionRate: decimal.NewFromFloat(0.05),
		ConfirmAt:      &confirmAt,
	})
	if err != nil {
		t.Fatalf("create commission failed: %v", err)
	}

	settled, err := svc.SettleConfirmDue(time.Now())
	if err != nil {
		t.Fatalf("settle confirm due failed: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 settled commission, got %d", settled)
	}

	var approved models.Commission
	if err := db.First(&approved, commission.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if approved.Status != constants.CommissionStatusApproved || approved.CreditedAt == nil {
		t.Fatalf("unexpected settled commission: %+v", approved)
	}
	user := reloadTestUser(t, db, earner.ID)
	if !user.AvailableBalance.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected balance after settle: %s", user.AvailableBalance.String())
	}

	// 再次结算无可处理记录
	settled, err = svc.SettleConfirmDue(time.Now())
	if err != nil {
		t.Fatalf("re-settle failed: %v", err)
	}
	if settled != 0 {
		t.Fatalf("expected 0 settled on second run, got %d", settled)
	}
}
