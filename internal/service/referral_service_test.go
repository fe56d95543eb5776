package service

import (
	"errors"
	"testing"

	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"gorm.io/gorm"
)

func setupReferralServiceTest(t *testing.T) (*ReferralService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "referral_service_test")
	return NewReferralService(repository.NewUserRepository(db)), db
}

func TestReferralEnsureReferralCode(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	user := createTestUser(t, db, 401)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("referral_code", "KEEPCODE").Error; err != nil {
		t.Fatalf("set referral code failed: %v", err)
	}
	user.ReferralCode = "KEEPCODE"

	// 已有推荐码保持不变
	if err := svc.EnsureReferralCode(user); err != nil {
		t.Fatalf("ensure referral code failed: %v", err)
	}
	if user.ReferralCode != "KEEPCODE" {
		t.Fatalf("existing code must be kept, got %s", user.ReferralCode)
	}

	fresh := createTestUser(t, db, 402)
	if err := db.Model(&models.User{}).Where("id = ?", fresh.ID).Update("referral_code", nil).Error; err != nil {
		t.Fatalf("clear referral code failed: %v", err)
	}
	fresh.ReferralCode = ""
	if err := svc.EnsureReferralCode(fresh); err != nil {
		t.Fatalf("ensure referral code failed: %v", err)
	}
	if len(fresh.ReferralCode) != referralCodeLength {
		t.Fatalf("expected generated code of length %d, got %q", referralCodeLength, fresh.ReferralCode)
	}
	reloaded := reloadTestUser(t, db, fresh.ID)
	if reloaded.ReferralCode != fresh.ReferralCode {
		t.Fatalf("generated code not persisted: %q vs %q", reloaded.ReferralCode, fresh.ReferralCode)
	}
}

func TestReferralResolveReferrerCaseInsensitive(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	user := createTestUser(t, db, 411)

	resolved, err := svc.ResolveReferrer("  code0411 ")
	if err != nil {
		t.Fatalf("resolve referrer failed: %v", err)
	}
	if resolved == nil || resolved.ID != user.ID {
		t.Fatalf("expected user %d, got %+v", user.ID, resolved)
	}

	missing, err := svc.ResolveReferrer("NOSUCHCODE")
	if err != nil {
		t.Fatalf("resolve missing code failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown code, got %+v", missing)
	}
}

func TestReferralSetReferrerOnce(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	user := createTestUser(t, db, 421)
	first := createTestUser(t, db, 422)
	second := createTestUser(t, db, 423)

	if err := svc.SetReferrer(user.ID, first.ID); err != nil {
		t.Fatalf("set referrer failed: %v", err)
	}
	reloaded := reloadTestUser(t, db, user.ID)
	if reloaded.ReferredByUserID == nil || *reloaded.ReferredByUserID != first.ID {
		t.Fatalf("referrer not persisted: %+v", reloaded.ReferredByUserID)
	}

	// 推荐关系只能绑定一次
	if err := svc.SetReferrer(user.ID, second.ID); !errors.Is(err, ErrCyclicReferral) {
		t.Fatalf("expected rebind rejection, got: %v", err)
	}

	referrer, err := svc.GetReferrer(user.ID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if referrer == nil || referrer.ID != first.ID {
		t.Fatalf("unexpected referrer: %+v", referrer)
	}
}

func TestReferralSetReferrerSelf(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	user := createTestUser(t, db, 431)

	if err := svc.SetReferrer(user.ID, user.ID); !errors.Is(err, ErrCyclicReferral) {
		t.Fatalf("expected self referral rejection, got: %v", err)
	}
}

func TestReferralSetReferrerRejectsCycle(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	a := createTestUser(t, db, 441)
	b := createTestUser(t, db, 442)
	c := createTestUser(t, db, 443)

	// a <- b <- c 链
	if err := svc.SetReferrer(b.ID, a.ID); err != nil {
		t.Fatalf("bind b->a failed: %v", err)
	}
	if err := svc.SetReferrer(c.ID, b.ID); err != nil {
		t.Fatalf("bind c->b failed: %v", err)
	}

	// a 绑定自己的下下级会成环
	if err := svc.SetReferrer(a.ID, c.ID); !errors.Is(err, ErrCyclicReferral) {
		t.Fatalf("expected cycle rejection, got: %v", err)
	}
}

func TestReferralCountAndList(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	root := createTestUser(t, db, 451)
	child1 := createTestUser(t, db, 452)
	child2 := createTestUser(t, db, 453)
	grandchild := createTestUser(t, db, 454)

	if err := svc.SetReferrer(child1.ID, root.ID); err != nil {
		t.Fatalf("bind child1 failed: %v", err)
	}
	if err := svc.SetReferrer(child2.ID, root.ID); err != nil {
		t.Fatalf("bind child2 failed: %v", err)
	}
	if err := svc.SetReferrer(grandchild.ID, child1.ID); err != nil {
		t.Fatalf("bind grandchild failed: %v", err)
	}

	count, err := svc.CountReferrals(root.ID, nil)
	if err != nil {
		t.Fatalf("count referrals failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 direct referrals, got %d", count)
	}

	list, total, err := svc.DirectReferrals(root.ID, 1, 10)
	if err != nil {
		t.Fatalf("list referrals failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expected 2 direct referrals, got total=%d len=%d", total, len(list))
	}
	for _, item := range list {
		if item.ID == grandchild.ID {
			t.Fatalf("direct referrals must not include second level")
		}
	}
}
