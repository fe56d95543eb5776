package service

import (
	"fmt"
	"math"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
)

const (
	affiliateRateMin           = 0
	affiliateRateMax           = 1
	affiliateConfirmDaysMin    = 0
	affiliateConfirmDaysMax    = 3650
	affiliateMinWithdrawFloor  = 0
	affiliateFeePercentMin     = 0
	affiliateFeePercentMax     = 1
	affiliateFeeFloorMin       = 0
)

// AffiliateSetting 分销后台配置
type AffiliateSetting struct {
	Enabled           bool    `json:"enabled"`
	Level1Rate        float64 `json:"level1_rate"`         // 直推佣金比例（0~1）
	Level2Rate        float64 `json:"level2_rate"`         // 二级佣金比例（0~1）
	ConfirmDays       int     `json:"confirm_days"`        // 佣金确认天数
	MinWithdrawAmount float64 `json:"min_withdraw_amount"` // 最低提现金额（VND）
	FeePercent        float64 `json:"fee_percent"`         // 提现手续费比例（0~1）
	FeeFloor          float64 `json:"fee_floor"`           // 提现手续费下限（VND）
}

// AffiliateDefaultSetting 默认分销配置
func AffiliateDefaultSetting() AffiliateSetting {
	return NormalizeAffiliateSetting(AffiliateSetting{
		Enabled:           true,
		Level1Rate:        0.05,
		Level2Rate:        0.02,
		ConfirmDays:       7,
		MinWithdrawAmount: 100000,
		FeePercent:        0.02,
		FeeFloor:          5000,
	})
}

// NormalizeAffiliateSetting 归一化分销配置
func NormalizeAffiliateSetting(setting AffiliateSetting) AffiliateSetting {
	setting.Level1Rate = roundAffiliateRate(setting.Level1Rate)
	setting.Level2Rate = roundAffiliateRate(setting.Level2Rate)
	if setting.Level1Rate < affiliateRateMin {
		setting.Level1Rate = affiliateRateMin
	}
	if setting.Level1Rate > affiliateRateMax {
		setting.Level1Rate = affiliateRateMax
	}
	if setting.Level2Rate < affiliateRateMin {
		setting.Level2Rate = affiliateRateMin
	}
	if setting.Level2Rate > affiliateRateMax {
		setting.Level2Rate = affiliateRateMax
	}

	if setting.ConfirmDays < affiliateConfirmDaysMin {
		setting.ConfirmDays = affiliateConfirmDaysMin
	}
	if setting.ConfirmDays > affiliateConfirmDaysMax {
		setting.ConfirmDays = affiliateConfirmDaysMax
	}

	setting.MinWithdrawAmount = math.Round(setting.MinWithdrawAmount)
	if setting.MinWithdrawAmount < affiliateMinWithdrawFloor {
		setting.MinWithdrawAmount = affiliateMinWithdrawFloor
	}

	setting.FeePercent = roundAffiliateRate(setting.FeePercent)
	if setting.FeePercent < affiliateFeePercentMin {
		setting.FeePercent = affiliateFeePercentMin
	}
	if setting.FeePercent > affiliateFeePercentMax {
		setting.FeePercent = affiliateFeePercentMax
	}

	setting.FeeFloor = math.Round(setting.FeeFloor)
	if setting.FeeFloor < affiliateFeeFloorMin {
		setting.FeeFloor = affiliateFeeFloorMin
	}
	return setting
}

// ValidateAffiliateSetting 校验分销配置
func ValidateAffiliateSetting(setting AffiliateSetting) error {
	normalized := NormalizeAffiliateSetting(setting)
	if normalized.Level1Rate < affiliateRateMin || normalized.Level1Rate > affiliateRateMax {
		return fmt.Errorf("%w: 直推佣金比例必须在 0-1 之间", ErrAffiliateConfigInvalid)
	}
	if normalized.Level2Rate < affiliateRateMin || normalized.Level2Rate > affiliateRateMax {
		return fmt.Errorf("%w: 二级佣金比例必须在 0-1 之间", ErrAffiliateConfigInvalid)
	}
	if normalized.ConfirmDays < affiliateConfirmDaysMin || normalized.ConfirmDays > affiliateConfirmDaysMax {
		return fmt.Errorf("%w: 佣金确认天数必须在 0-3650 之间", ErrAffiliateConfigInvalid)
	}
	if normalized.MinWithdrawAmount < affiliateMinWithdrawFloor {
		return fmt.Errorf("%w: 最低提现金额不能小于 0", ErrAffiliateConfigInvalid)
	}
	if normalized.FeePercent < affiliateFeePercentMin || normalized.FeePercent > affiliateFeePercentMax {
		return fmt.Errorf("%w: 手续费比例必须在 0-1 之间", ErrAffiliateConfigInvalid)
	}
	return nil
}

// AffiliateSettingToMap 将分销配置转换为 settings 存储结构
func AffiliateSettingToMap(setting AffiliateSetting) map[string]interface{} {
	normalized := NormalizeAffiliateSetting(setting)
	return map[string]interface{}{
		"enabled":             normalized.Enabled,
		"level1_rate":         normalized.Level1Rate,
		"level2_rate":         normalized.Level2Rate,
		"confirm_days":        normalized.ConfirmDays,
		"min_withdraw_amount": normalized.MinWithdrawAmount,
		"fee_percent":         normalized.FeePercent,
		"fee_floor":           normalized.FeeFloor,
	}
}

func affiliateSettingFromJSON(raw models.JSON, fallback AffiliateSetting) AffiliateSetting {
	result := fallback

	if enabledRaw, ok := raw["enabled"]; ok {
		result.Enabled = parseSettingBool(enabledRaw)
	}
	if rateRaw, ok := raw["level1_rate"]; ok {
		if parsed, err := parseSettingFloat(rateRaw); err == nil {
			result.Level1Rate = parsed
		}
	}
	if rateRaw, ok := raw["level2_rate"]; ok {
		if parsed, err := parseSettingFloat(rateRaw); err == nil {
			result.Level2Rate = parsed
		}
	}
	if confirmDaysRaw, ok := raw["confirm_days"]; ok {
		if parsed, err := parseSettingInt(confirmDaysRaw); err == nil {
			result.ConfirmDays = parsed
		}
	}
	if minWithdrawRaw, ok := raw["min_withdraw_amount"]; ok {
		if parsed, err := parseSettingFloat(minWithdrawRaw); err == nil {
			result.MinWithdrawAmount = parsed
		}
	}
	if feePercentRaw, ok := raw["fee_percent"]; ok {
		if parsed, err := parseSettingFloat(feePercentRaw); err == nil {
			result.FeePercent = parsed
		}
	}
	if feeFloorRaw, ok := raw["fee_floor"]; ok {
		if parsed, err := parseSettingFloat(feeFloorRaw); err == nil {
			result.FeeFloor = parsed
		}
	}

	return NormalizeAffiliateSetting(result)
}

func normalizeAffiliateSettingMap(value map[string]interface{}) models.JSON {
	setting := affiliateSettingFromJSON(models.JSON(value), AffiliateDefaultSetting())
	return models.JSON(AffiliateSettingToMap(setting))
}

// GetAffiliateSetting 获取分销设置（优先 settings，空时回退默认）
func (s *SettingService) GetAffiliateSetting() (AffiliateSetting, error) {
	fallback := AffiliateDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyAffiliateConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return affiliateSettingFromJSON(value, fallback), nil
}

// UpdateAffiliateSetting 更新分销设置
func (s *SettingService) UpdateAffiliateSetting(setting AffiliateSetting) (AffiliateSetting, error) {
	normalized := NormalizeAffiliateSetting(setting)
	if err := ValidateAffiliateSetting(normalized); err != nil {
		return AffiliateDefaultSetting(), err
	}
	if _, err := s.Update(constants.SettingKeyAffiliateConfig, AffiliateSettingToMap(normalized)); err != nil {
		return AffiliateDefaultSetting(), err
	}
	return normalized, nil
}

// roundAffiliateRate 比例保留 4 位小数
func roundAffiliateRate(value float64) float64 {
	return math.Round(value*10000) / 10000
}
