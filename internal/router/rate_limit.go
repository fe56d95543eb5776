package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

// INCR + 首次设置过期时间，单 key 原子执行
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// runRateLimitScript 返回窗口内计数与剩余秒数
func runRateLimitScript(ctx context.Context, client *redis.Client, key string, windowSeconds int) (count, ttl int64, err error) {
	result, err := rateLimitScript.Run(ctx, client, []string{key}, windowSeconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script result: %T", result)
	}
	count, ok = toInt64(values[0])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count: %T", values[0])
	}
	ttl, _ = toInt64(values[1])
	return count, ttl, nil
}

// RateLimitMiddleware Redis 固定窗口限流中间件，client 为空时直接放行。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		locale := i18n.ResolveLocale(c.GetHeader("Accept-Language"))
		count, ttlSeconds, err := runRateLimitScript(c.Request.Context(), client, key, rule.WindowSeconds)
		if err != nil {
			response.Error(c, response.CodeInternal, i18n.T(locale, "error.rate_limit_unavailable"))
			c.Abort()
			return
		}

		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttlSeconds)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(locale, msgKey, waitSeconds))
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + 请求体 JSON 字段作为限流 key，
// 避免同一 IP 下不同账号互相占用额度。
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// readJSONField 窥取请求体字段后重置 Body 供后续绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
