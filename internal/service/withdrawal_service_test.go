package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWithdrawalServiceTest(t *testing.T) (*WithdrawalService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "withdrawal_service_test")
	settingService := newTestSettingService(t, db)
	return NewWithdrawalService(
		repository.NewWithdrawalRepository(db),
		repository.NewUserRepository(db),
		repository.NewBankAccountRepository(db),
		repository.NewLedgerRepository(db),
		settingService,
	), db
}

func createTestBankAccount(t *testing.T, db *gorm.DB, userID uint, verified bool) *models.BankAccount {
	t.Helper()
	now := time.Now()
	account := &models.BankAccount{
		UserID:        userID,
		BankName:      "Vietcombank",
		AccountNumber: fmt.Sprintf("00123%d", userID),
		AccountName:   "NGUYEN VAN A",
		IsVerified:    verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if verified {
		account.VerifiedAt = &now
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create bank account failed: %v", err)
	}
	return account
}

func TestWithdrawalRequestDeductsBalanceAndFee(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 301)
	setTestUserBalance(t, db, user.ID, 8500000)
	account := createTestBankAccount(t, db, user.ID, true)

	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(5000000),
		UserNote:      "rút tiền tháng 8",
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if !withdrawal.Fee.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected fee 100000, got %s", withdrawal.Fee.String())
	}
	if !withdrawal.NetAmount.Decimal.Equal(decimal.NewFromInt(4900000)) {
		t.Fatalf("expected net 4900000, got %s", withdrawal.NetAmount.String())
	}
	if withdrawal.Status != constants.WithdrawalStatusPending {
		t.Fatalf("unexpected status: %s", withdrawal.Status)
	}

	refreshed := reloadTestUser(t, db, user.ID)
	if !refreshed.AvailableBalance.Decimal.Equal(decimal.NewFromInt(3500000)) {
		t.Fatalf("expected balance 3500000 after reserve, got %s", refreshed.AvailableBalance.String())
	}

	var entry models.LedgerEntry
	if err := db.Where("user_id = ? AND entry_type = ?", user.ID, constants.LedgerEntryWithdrawReserve).
		First(&entry).Error; err != nil {
		t.Fatalf("load reserve entry failed: %v", err)
	}
	if entry.Direction != constants.LedgerDirectionOut || !entry.Amount.Decimal.Equal(decimal.NewFromInt(5000000)) {
		t.Fatalf("unexpected reserve entry: %+v", entry)
	}
	if !entry.BalanceAfter.Decimal.Equal(decimal.NewFromInt(3500000)) {
		t.Fatalf("unexpected balance snapshot: %s", entry.BalanceAfter.String())
	}
}

func TestWithdrawalRequestFeeFloor(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 302)
	setTestUserBalance(t, db, user.ID, 500000)
	account := createTestBankAccount(t, db, user.ID, true)

	// 2% 低于手续费下限，取下限 5000
	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(150000),
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if !withdrawal.Fee.Decimal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected floor fee 5000, got %s", withdrawal.Fee.String())
	}
	if !withdrawal.NetAmount.Decimal.Equal(decimal.NewFromInt(145000)) {
		t.Fatalf("expected net 145000, got %s", withdrawal.NetAmount.String())
	}
}

func TestWithdrawalRequestBelowMinimum(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 303)
	setTestUserBalance(t, db, user.ID, 500000)
	account := createTestBankAccount(t, db, user.ID, true)

	_, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(50000),
	})
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected below minimum, got: %v", err)
	}
}

func TestWithdrawalRequestUnverifiedAccount(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 304)
	setTestUserBalance(t, db, user.ID, 500000)
	account := createTestBankAccount(t, db, user.ID, false)

	_, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(200000),
	})
	if !errors.Is(err, ErrUnverifiedBankAccount) {
		t.Fatalf("expected unverified bank account, got: %v", err)
	}
}

func TestWithdrawalRequestInsufficientBalance(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 305)
	setTestUserBalance(t, db, user.ID, 100000)
	account := createTestBankAccount(t, db, user.ID, true)

	_, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(200000),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	refreshed := reloadTestUser(t, db, user.ID)
	if !refreshed.AvailableBalance.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("failed request must not change balance: %s", refreshed.AvailableBalance.String())
	}
}

func TestWithdrawalRequestOthersAccount(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 306)
	other := createTestUser(t, db, 307)
	setTestUserBalance(t, db, user.ID, 500000)
	account := createTestBankAccount(t, db, other.ID, true)

	_, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(200000),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for others account, got: %v", err)
	}
}

func TestWithdrawalCancelRestoresBalance(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 311)
	setTestUserBalance(t, db, user.ID, 1000000)
	account := createTestBankAccount(t, db, user.ID, true)

	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(400000),
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	cancelled, err := svc.Cancel(user.ID, withdrawal.ID)
	if err != nil {
		t.Fatalf("cancel withdrawal failed: %v", err)
	}
	if cancelled.Status != constants.WithdrawalStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled withdrawal: %+v", cancelled)
	}

	refreshed := reloadTestUser(t, db, user.ID)
	if !refreshed.AvailableBalance.Decimal.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("expected balance restored to 1000000, got %s", refreshed.AvailableBalance.String())
	}

	var entry models.LedgerEntry
	if err := db.Where("user_id = ? AND entry_type = ?", user.ID, constants.LedgerEntryWithdrawRelease).
		First(&entry).Error; err != nil {
		t.Fatalf("load release entry failed: %v", err)
	}
	if entry.Direction != constants.LedgerDirectionIn || !entry.Amount.Decimal.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("unexpected release entry: %+v", entry)
	}

	// 已取消的申请不能再取消
	if _, err := svc.Cancel(user.ID, withdrawal.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on re-cancel, got: %v", err)
	}
}

func TestWithdrawalReviewApprove(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 321)
	setTestUserBalance(t, db, user.ID, 1000000)
	account := createTestBankAccount(t, db, user.ID, true)

	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(500000),
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	reviewed, err := svc.Review(1, withdrawal.ID, ReviewWithdrawalInput{
		Action:        constants.WithdrawalActionApprove,
		AdminNote:     "đã chuyển khoản",
		TransactionID: "BANKTX001",
	})
	if err != nil {
		t.Fatalf("review approve failed: %v", err)
	}
	if reviewed.Status != constants.WithdrawalStatusCompleted {
		t.Fatalf("expected completed, got %s", reviewed.Status)
	}
	if reviewed.TransactionID != "BANKTX001" || reviewed.CompletedAt == nil {
		t.Fatalf("unexpected approved withdrawal: %+v", reviewed)
	}

	refreshed := reloadTestUser(t, db, user.ID)
	if !refreshed.TotalWithdrawn.Decimal.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("expected total withdrawn 500000, got %s", refreshed.TotalWithdrawn.String())
	}
	// 余额在申请时已扣减，打款不再二次扣减
	if !refreshed.AvailableBalance.Decimal.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("unexpected balance after approve: %s", refreshed.AvailableBalance.String())
	}

	var entry models.LedgerEntry
	if err := db.Where("user_id = ? AND entry_type = ?", user.ID, constants.LedgerEntryWithdrawComplete).
		First(&entry).Error; err != nil {
		t.Fatalf("load complete entry failed: %v", err)
	}
	if !entry.Amount.Decimal.Equal(decimal.NewFromInt(490000)) {
		t.Fatalf("complete entry should carry net amount, got %s", entry.Amount.String())
	}

	// 完成后用户不能再撤回
	if _, err := svc.Cancel(user.ID, withdrawal.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after complete, got: %v", err)
	}
}

func TestWithdrawalReviewRejectRequiresNote(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 331)
	setTestUserBalance(t, db, user.ID, 1000000)
	account := createTestBankAccount(t, db, user.ID, true)

	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(300000),
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	if _, err := svc.Review(1, withdrawal.ID, ReviewWithdrawalInput{
		Action: constants.WithdrawalActionReject,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without note, got: %v", err)
	}

	rejected, err := svc.Review(1, withdrawal.ID, ReviewWithdrawalInput{
		Action:    constants.WithdrawalActionReject,
		AdminNote: "thông tin tài khoản không khớp",
	})
	if err != nil {
		t.Fatalf("review reject failed: %v", err)
	}
	if rejected.Status != constants.WithdrawalStatusRejected || rejected.RejectedAt == nil {
		t.Fatalf("unexpected rejected withdrawal: %+v", rejected)
	}

	refreshed := reloadTestUser(t, db, user.ID)
	if !refreshed.AvailableBalance.Decimal.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("expected balance restored after reject, got %s", refreshed.AvailableBalance.String())
	}
	if !refreshed.TotalWithdrawn.Decimal.IsZero() {
		t.Fatalf("rejected withdrawal must not count as withdrawn: %s", refreshed.TotalWithdrawn.String())
	}
}

func TestWithdrawalReviewInvalidAction(t *testing.T) {
	svc, db := setupWithdrawalServiceTest(t)
	user := createTestUser(t, db, 341)
	setTestUserBalance(t, db, user.ID, 1000000)
	account := createTestBankAccount(t, db, user.ID, true)

	withdrawal, err := svc.Request(user.ID, RequestWithdrawalInput{
		BankAccountID: account.ID,
		Amount:        decimal.NewFromInt(300000),
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	if _, err := svc.Review(1, withdrawal.ID, ReviewWithdrawalInput{Action: "freeze"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}
