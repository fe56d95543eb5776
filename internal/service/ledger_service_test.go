package service

import (
	"errors"
	"testing"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerServiceTest(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "ledger_service_test")
	return NewLedgerService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		repository.NewCommissionRepository(db),
		repository.NewWithdrawalRepository(db),
	), db
}

func createCreditedTestCommission(t *testing.T, db *gorm.DB, userID, orderID uint, level int, amount int64, status string) {
	t.Helper()
	now := time.Now()
	commission := &models.Commission{
		UserID:         userID,
		OrderID:        orderID,
		Level:          level,
		CommissionType: constants.CommissionTypeDirect,
		OrderAmount:    models.NewMoneyFromInt(amount * 20),
		CommissionRate: decimal.NewFromFloat(0.05),
		Amount:         models.NewMoneyFromInt(amount),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(commission).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
}

func createStatusTestWithdrawal(t *testing.T, db *gorm.DB, userID uint, amount int64, status string) {
	t.Helper()
	now := time.Now()
	withdrawal := &models.Withdrawal{
		UserID:        userID,
		BankAccountID: 1,
		Amount:        models.NewMoneyFromInt(amount),
		Fee:           models.NewMoneyFromInt(0),
		NetAmount:     models.NewMoneyFromInt(amount),
		Status:        status,
		RequestedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(withdrawal).Error; err != nil {
		t.Fatalf("create withdrawal failed: %v", err)
	}
}

func TestLedgerReconcileConsistent(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	user := createTestUser(t, db, 501)

	// 已入账 50000 + 30000，占用中提现 20000，余额应为 60000
	createCreditedTestCommission(t, db, user.ID, 9001, constants.CommissionLevelDirect, 50000, constants.CommissionStatusPaid)
	createCreditedTestCommission(t, db, user.ID, 9002, constants.CommissionLevelDirect, 30000, constants.CommissionStatusApproved)
	createStatusTestWithdrawal(t, db, user.ID, 20000, constants.WithdrawalStatusPending)
	setTestUserBalance(t, db, user.ID, 60000)

	result, err := svc.Reconcile(user.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.Consistent {
		t.Fatalf("expected consistent balance, got delta %s", result.Delta.String())
	}
	if !result.ExpectedBalance.Decimal.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("unexpected expected balance: %s", result.ExpectedBalance.String())
	}
}

func TestLedgerReconcileIgnoresPendingAndCancelled(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	user := createTestUser(t, db, 502)

	// 待确认与已作废佣金、已驳回/已取消提现都不计入
	createCreditedTestCommission(t, db, user.ID, 9101, constants.CommissionLevelDirect, 50000, constants.CommissionStatusPaid)
	createCreditedTestCommission(t, db, user.ID, 9102, constants.CommissionLevelDirect, 70000, constants.CommissionStatusPending)
	createCreditedTestCommission(t, db, user.ID, 9103, constants.CommissionLevelDirect, 90000, constants.CommissionStatusCancelled)
	createStatusTestWithdrawal(t, db, user.ID, 10000, constants.WithdrawalStatusRejected)
	createStatusTestWithdrawal(t, db, user.ID, 15000, constants.WithdrawalStatusCancelled)
	setTestUserBalance(t, db, user.ID, 50000)

	result, err := svc.Reconcile(user.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.Consistent {
		t.Fatalf("expected consistent balance, got delta %s", result.Delta.String())
	}
	if !result.ExpectedBalance.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected expected balance: %s", result.ExpectedBalance.String())
	}
}

func TestLedgerReconcileMismatch(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	user := createTestUser(t, db, 503)

	createCreditedTestCommission(t, db, user.ID, 9201, constants.CommissionLevelDirect, 50000, constants.CommissionStatusPaid)
	setTestUserBalance(t, db, user.ID, 80000)

	result, err := svc.Reconcile(user.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Consistent {
		t.Fatalf("expected mismatch")
	}
	if !result.Delta.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected delta 30000, got %s", result.Delta.String())
	}
}

func TestLedgerReconcileUnknownUser(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)
	if _, err := svc.Reconcile(99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestLedgerReconcileSweepReportsMismatch(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	good := createTestUser(t, db, 511)
	bad := createTestUser(t, db, 512)

	createCreditedTestCommission(t, db, good.ID, 9301, constants.CommissionLevelDirect, 40000, constants.CommissionStatusPaid)
	setTestUserBalance(t, db, good.ID, 40000)
	createCreditedTestCommission(t, db, bad.ID, 9302, constants.CommissionLevelDirect, 40000, constants.CommissionStatusPaid)
	setTestUserBalance(t, db, bad.ID, 70000)

	now := time.Now()
	entries := []models.LedgerEntry{
		{UserID: good.ID, EntryType: constants.LedgerEntryCommissionCredit, Direction: constants.LedgerDirectionIn, Amount: models.NewMoneyFromInt(40000), BalanceAfter: models.NewMoneyFromInt(40000), Reference: "commission:9301", CreatedAt: now},
		{UserID: bad.ID, EntryType: constants.LedgerEntryCommissionCredit, Direction: constants.LedgerDirectionIn, Amount: models.NewMoneyFromInt(40000), BalanceAfter: models.NewMoneyFromInt(70000), Reference: "commission:9302", CreatedAt: now},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("create ledger entry failed: %v", err)
		}
	}

	inconsistent, err := svc.ReconcileSweep(now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("reconcile sweep failed: %v", err)
	}
	if len(inconsistent) != 1 || inconsistent[0].UserID != bad.ID {
		t.Fatalf("expected single mismatch for user %d, got %+v", bad.ID, inconsistent)
	}
}

func TestLedgerLatestBalance(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	user := createTestUser(t, db, 521)

	balance, err := svc.LatestBalance(user.ID)
	if err != nil {
		t.Fatalf("latest balance failed: %v", err)
	}
	if !balance.Decimal.IsZero() {
		t.Fatalf("expected zero balance without entries, got %s", balance.String())
	}

	now := time.Now()
	entries := []models.LedgerEntry{
		{UserID: user.ID, EntryType: constants.LedgerEntryCommissionCredit, Direction: constants.LedgerDirectionIn, Amount: models.NewMoneyFromInt(50000), BalanceAfter: models.NewMoneyFromInt(50000), Reference: "commission:1", CreatedAt: now.Add(-time.Minute)},
		{UserID: user.ID, EntryType: constants.LedgerEntryWithdrawReserve, Direction: constants.LedgerDirectionOut, Amount: models.NewMoneyFromInt(20000), BalanceAfter: models.NewMoneyFromInt(30000), Reference: "withdrawal:1", CreatedAt: now},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("create ledger entry failed: %v", err)
		}
	}

	balance, err = svc.LatestBalance(user.ID)
	if err != nil {
		t.Fatalf("latest balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected latest balance 30000, got %s", balance.String())
	}
}
