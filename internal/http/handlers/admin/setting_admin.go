package admin

import (
	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateSettingRequest 分销配置更新请求
type AffiliateSettingRequest struct {
	Enabled           bool    `json:"enabled"`
	Level1Rate        float64 `json:"level1_rate"`
	Level2Rate        float64 `json:"level2_rate"`
	ConfirmDays       int     `json:"confirm_days"`
	MinWithdrawAmount float64 `json:"min_withdraw_amount"`
	FeePercent        float64 `json:"fee_percent"`
	FeeFloor          float64 `json:"fee_floor"`
}

// GetSiteConfig 获取站点配置
func (h *Handler) GetSiteConfig(c *gin.Context) {
	config, err := h.SettingService.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, config)
}

// UpdateSiteConfig 更新站点配置
func (h *Handler) UpdateSiteConfig(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	config, err := h.SettingService.Update(constants.SettingKeySiteConfig, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, config)
}

// GetAffiliateConfig 获取分销配置
func (h *Handler) GetAffiliateConfig(c *gin.Context) {
	setting, err := h.SettingService.GetAffiliateSetting()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, setting)
}

// UpdateAffiliateConfig 更新分销配置
func (h *Handler) UpdateAffiliateConfig(c *gin.Context) {
	var req AffiliateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	setting, err := h.SettingService.UpdateAffiliateSetting(service.AffiliateSetting{
		Enabled:           req.Enabled,
		Level1Rate:        req.Level1Rate,
		Level2Rate:        req.Level2Rate,
		ConfirmDays:       req.ConfirmDays,
		MinWithdrawAmount: req.MinWithdrawAmount,
		FeePercent:        req.FeePercent,
		FeeFloor:          req.FeeFloor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, setting)
}
