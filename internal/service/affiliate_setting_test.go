package service

import (
	"testing"

	"github.com/vietcart-next/internal/repository"

	"github.com/shopspring/decimal"
)

func TestNormalizeAffiliateSettingClamps(t *testing.T) {
	normalized := NormalizeAffiliateSetting(AffiliateSetting{
		Enabled:           true,
		Level1Rate:        1.8,
		Level2Rate:        -0.5,
		ConfirmDays:       -3,
		MinWithdrawAmount: 99999.6,
		FeePercent:        0.02345,
		FeeFloor:          4999.4,
	})
	if normalized.Level1Rate != 1 {
		t.Fatalf("expected level1 rate clamped to 1, got %v", normalized.Level1Rate)
	}
	if normalized.Level2Rate != 0 {
		t.Fatalf("expected level2 rate clamped to 0, got %v", normalized.Level2Rate)
	}
	if normalized.ConfirmDays != 0 {
		t.Fatalf("expected confirm days clamped to 0, got %v", normalized.ConfirmDays)
	}
	if normalized.MinWithdrawAmount != 100000 {
		t.Fatalf("expected min withdraw rounded to 100000, got %v", normalized.MinWithdrawAmount)
	}
	if normalized.FeePercent != 0.0235 {
		t.Fatalf("expected fee percent rounded to 0.0235, got %v", normalized.FeePercent)
	}
	if normalized.FeeFloor != 4999 {
		t.Fatalf("expected fee floor rounded to 4999, got %v", normalized.FeeFloor)
	}
}

func TestAffiliateDefaultSetting(t *testing.T) {
	setting := AffiliateDefaultSetting()
	if !setting.Enabled {
		t.Fatalf("expected affiliate enabled by default")
	}
	if setting.Level1Rate != 0.05 || setting.Level2Rate != 0.02 {
		t.Fatalf("unexpected default rates: %v / %v", setting.Level1Rate, setting.Level2Rate)
	}
	if setting.ConfirmDays != 7 {
		t.Fatalf("unexpected default confirm days: %d", setting.ConfirmDays)
	}
	if setting.MinWithdrawAmount != 100000 || setting.FeePercent != 0.02 || setting.FeeFloor != 5000 {
		t.Fatalf("unexpected default withdraw config: %+v", setting)
	}
}

func TestCalculateFee(t *testing.T) {
	setting := AffiliateDefaultSetting()

	fee := CalculateFee(decimal.NewFromInt(5000000), setting)
	if !fee.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected fee 100000, got %s", fee.String())
	}

	// 2% 低于下限时取下限
	fee = CalculateFee(decimal.NewFromInt(100000), setting)
	if !fee.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected floor fee 5000, got %s", fee.String())
	}
}

func TestAffiliateSettingRoundTrip(t *testing.T) {
	db := openServiceTestDB(t, "affiliate_setting_test")
	svc := newTestSettingService(t, db)

	updated, err := svc.UpdateAffiliateSetting(AffiliateSetting{
		Enabled:           false,
		Level1Rate:        0.08,
		Level2Rate:        0.03,
		ConfirmDays:       14,
		MinWithdrawAmount: 200000,
		FeePercent:        0.01,
		FeeFloor:          10000,
	})
	if err != nil {
		t.Fatalf("update affiliate setting failed: %v", err)
	}
	if updated.Level1Rate != 0.08 || updated.ConfirmDays != 14 {
		t.Fatalf("unexpected updated setting: %+v", updated)
	}

	loaded, err := svc.GetAffiliateSetting()
	if err != nil {
		t.Fatalf("get affiliate setting failed: %v", err)
	}
	if loaded.Enabled {
		t.Fatalf("expected disabled affiliate after update")
	}
	if loaded.Level1Rate != 0.08 || loaded.Level2Rate != 0.03 || loaded.ConfirmDays != 14 {
		t.Fatalf("unexpected loaded setting: %+v", loaded)
	}
	if loaded.MinWithdrawAmount != 200000 || loaded.FeePercent != 0.01 || loaded.FeeFloor != 10000 {
		t.Fatalf("unexpected loaded withdraw config: %+v", loaded)
	}
}

func TestGetAffiliateSettingFallback(t *testing.T) {
	db := openServiceTestDB(t, "affiliate_setting_fallback_test")
	// 不写入任何配置，读取应回退默认值
	svc := NewSettingService(repository.NewSettingRepository(db))

	loaded, err := svc.GetAffiliateSetting()
	if err != nil {
		t.Fatalf("get affiliate setting failed: %v", err)
	}
	defaults := AffiliateDefaultSetting()
	if loaded != defaults {
		t.Fatalf("expected default setting, got %+v", loaded)
	}
}
