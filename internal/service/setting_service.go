package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
)

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetConfig 获取站点配置（合并默认值）
func (s *SettingService) GetConfig(defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyAffiliateConfig:
		return normalizeAffiliateSettingMap(value)
	default:
		return models.JSON(value)
	}
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		return parsed
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
