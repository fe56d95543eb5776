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

func setupAffiliateLinkServiceTest(t *testing.T) (*AffiliateLinkService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "affiliate_link_service_test")
	return NewAffiliateLinkService(
		repository.NewAffiliateLinkRepository(db),
		repository.NewUserRepository(db),
		72*time.Hour,
	), db
}

func TestAffiliateLinkCreate(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	user := createTestUser(t, db, 601)

	link, err := svc.Create(user.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create general link failed: %v", err)
	}
	if link.LinkType != constants.AffiliateLinkTypeGeneral || link.Status != constants.AffiliateLinkStatusActive {
		t.Fatalf("unexpected link: %+v", link)
	}
	if len(link.Slug) != linkSlugLength {
		t.Fatalf("unexpected slug length: %q", link.Slug)
	}

	// 商品链接必须携带目标ID
	if _, err := svc.Create(user.ID, CreateLinkInput{LinkType: constants.AffiliateLinkTypeProduct}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}

	badRate := decimal.NewFromFloat(1.2)
	if _, err := svc.Create(user.ID, CreateLinkInput{CommissionRate: &badRate}); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got: %v", err)
	}
}

func TestAffiliateLinkCreateDisabledUser(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	user := createTestUser(t, db, 602)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", constants.UserStatusInactive).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, err := svc.Create(user.ID, CreateLinkInput{}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected account disabled, got: %v", err)
	}
}

func TestAffiliateLinkTrackClickDedupe(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	user := createTestUser(t, db, 611)
	link, err := svc.Create(user.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.TrackClick(TrackClickInput{
			Slug:       link.Slug,
			VisitorKey: "visitor-a",
			ClientIP:   "203.0.113.1",
		}); err != nil {
			t.Fatalf("track click failed: %v", err)
		}
	}
	if _, err := svc.TrackClick(TrackClickInput{
		Slug:       link.Slug,
		VisitorKey: "visitor-b",
	}); err != nil {
		t.Fatalf("track click failed: %v", err)
	}

	var refreshed models.AffiliateLink
	if err := db.First(&refreshed, link.ID).Error; err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if refreshed.ClickCount != 2 {
		t.Fatalf("expected deduped click count 2, got %d", refreshed.ClickCount)
	}

	var clicks int64
	if err := db.Model(&models.AffiliateClick{}).Where("affiliate_link_id = ?", link.ID).Count(&clicks).Error; err != nil {
		t.Fatalf("count clicks failed: %v", err)
	}
	if clicks != 2 {
		t.Fatalf("expected 2 click records, got %d", clicks)
	}
}

func TestAffiliateLinkTrackClickInactive(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	user := createTestUser(t, db, 621)
	link, err := svc.Create(user.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if err := db.Model(&models.AffiliateLink{}).Where("id = ?", link.ID).
		Update("status", constants.AffiliateLinkStatusPaused).Error; err != nil {
		t.Fatalf("pause link failed: %v", err)
	}

	if _, err := svc.TrackClick(TrackClickInput{Slug: link.Slug, VisitorKey: "visitor-x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for paused link, got: %v", err)
	}
}

func TestAffiliateLinkResolveOrderAttributionLastClick(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	buyer := createTestUser(t, db, 631)
	ownerA := createTestUser(t, db, 632)
	ownerB := createTestUser(t, db, 633)

	linkA, err := svc.Create(ownerA.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	linkB, err := svc.Create(ownerB.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	if _, err := svc.TrackClick(TrackClickInput{Slug: linkA.Slug, VisitorKey: "visitor-last"}); err != nil {
		t.Fatalf("track click failed: %v", err)
	}
	// 后点击的链接覆盖先点击的
	later := time.Now().Add(time.Minute)
	if err := db.Create(&models.AffiliateClick{
		AffiliateLinkID: linkB.ID,
		UserID:          ownerB.ID,
		VisitorKey:      "visitor-last",
		CreatedAt:       later,
	}).Error; err != nil {
		t.Fatalf("create later click failed: %v", err)
	}

	attribution, err := svc.ResolveOrderAttribution(buyer.ID, "visitor-last")
	if err != nil {
		t.Fatalf("resolve attribution failed: %v", err)
	}
	if attribution.AffiliateLinkID == nil || *attribution.AffiliateLinkID != linkB.ID {
		t.Fatalf("expected last click link %d, got %+v", linkB.ID, attribution.AffiliateLinkID)
	}
	if attribution.AffiliateUserID == nil || *attribution.AffiliateUserID != ownerB.ID {
		t.Fatalf("expected owner %d, got %+v", ownerB.ID, attribution.AffiliateUserID)
	}
}

func TestAffiliateLinkResolveOrderAttributionSelfExcluded(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	buyer := createTestUser(t, db, 641)

	link, err := svc.Create(buyer.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if _, err := svc.TrackClick(TrackClickInput{Slug: link.Slug, VisitorKey: "visitor-self"}); err != nil {
		t.Fatalf("track click failed: %v", err)
	}

	attribution, err := svc.ResolveOrderAttribution(buyer.ID, "visitor-self")
	if err != nil {
		t.Fatalf("resolve attribution failed: %v", err)
	}
	if attribution.AffiliateLinkID != nil || attribution.AffiliateUserID != nil {
		t.Fatalf("self click must not attribute: %+v", attribution)
	}
}

func TestAffiliateLinkResolveOrderAttributionReferrerFallback(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	referrer := createTestUser(t, db, 651)
	buyer := createTestUser(t, db, 652)
	buyer.ReferredByUserID = &referrer.ID
	if err := db.Save(buyer).Error; err != nil {
		t.Fatalf("bind referrer failed: %v", err)
	}

	attribution, err := svc.ResolveOrderAttribution(buyer.ID, "")
	if err != nil {
		t.Fatalf("resolve attribution failed: %v", err)
	}
	if attribution.AffiliateLinkID != nil {
		t.Fatalf("referrer fallback must not carry a link: %+v", attribution)
	}
	if attribution.AffiliateUserID == nil || *attribution.AffiliateUserID != referrer.ID {
		t.Fatalf("expected referrer %d, got %+v", referrer.ID, attribution.AffiliateUserID)
	}
	if attribution.ReferralCode != referrer.ReferralCode {
		t.Fatalf("expected referral code %q, got %q", referrer.ReferralCode, attribution.ReferralCode)
	}
}

func TestAffiliateLinkResolveOrderAttributionWindowExpired(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	buyer := createTestUser(t, db, 661)
	owner := createTestUser(t, db, 662)

	link, err := svc.Create(owner.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	// 窗口外的点击不参与归因
	if err := db.Create(&models.AffiliateClick{
		AffiliateLinkID: link.ID,
		UserID:          owner.ID,
		VisitorKey:      "visitor-old",
		CreatedAt:       time.Now().Add(-96 * time.Hour),
	}).Error; err != nil {
		t.Fatalf("create old click failed: %v", err)
	}

	attribution, err := svc.ResolveOrderAttribution(buyer.ID, "visitor-old")
	if err != nil {
		t.Fatalf("resolve attribution failed: %v", err)
	}
	if attribution.AffiliateUserID != nil {
		t.Fatalf("expired click must not attribute: %+v", attribution)
	}
}

func TestAffiliateLinkExpireAndNoReactivate(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	user := createTestUser(t, db, 671)

	past := time.Now().Add(-time.Hour)
	link, err := svc.Create(user.ID, CreateLinkInput{ExpiresAt: &past})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	expired, err := svc.ExpireLinks(time.Now())
	if err != nil {
		t.Fatalf("expire links failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired link, got %d", expired)
	}

	var refreshed models.AffiliateLink
	if err := db.First(&refreshed, link.ID).Error; err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if refreshed.Status != constants.AffiliateLinkStatusExpired {
		t.Fatalf("expected expired status, got %s", refreshed.Status)
	}

	// 过期链接不能追踪点击，也不能重新激活
	if _, err := svc.TrackClick(TrackClickInput{Slug: link.Slug, VisitorKey: "visitor-e"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for expired link, got: %v", err)
	}
	active := constants.AffiliateLinkStatusActive
	if _, err := svc.Update(link.ID, &user.ID, UpdateLinkInput{Status: &active}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
}

func TestAffiliateLinkUpdateOwnership(t *testing.T) {
	svc, db := setupAffiliateLinkServiceTest(t)
	owner := createTestUser(t, db, 681)
	intruder := createTestUser(t, db, 682)

	link, err := svc.Create(owner.ID, CreateLinkInput{})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	paused := constants.AffiliateLinkStatusPaused
	if _, err := svc.Update(link.ID, &intruder.ID, UpdateLinkInput{Status: &paused}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got: %v", err)
	}

	updated, err := svc.Update(link.ID, &owner.ID, UpdateLinkInput{Status: &paused})
	if err != nil {
		t.Fatalf("update link failed: %v", err)
	}
	if updated.Status != constants.AffiliateLinkStatusPaused {
		t.Fatalf("expected paused, got %s", updated.Status)
	}

	rate := decimal.NewFromFloat(0.07)
	updated, err = svc.Update(link.ID, nil, UpdateLinkInput{CommissionRate: &rate})
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if updated.CommissionRate == nil || !updated.CommissionRate.Equal(rate) {
		t.Fatalf("unexpected commission rate: %+v", updated.CommissionRate)
	}

	updated, err = svc.Update(link.ID, nil, UpdateLinkInput{ClearRate: true})
	if err != nil {
		t.Fatalf("clear rate failed: %v", err)
	}
	if updated.CommissionRate != nil {
		t.Fatalf("expected cleared rate, got %+v", updated.CommissionRate)
	}
}
