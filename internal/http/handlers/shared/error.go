package shared

import (
	"errors"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/i18n"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// Locale 解析当前请求语言。
func Locale(c *gin.Context) string {
	if c == nil {
		return i18n.ResolveLocale("")
	}
	return i18n.ResolveLocale(c.GetHeader("Accept-Language"))
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(Locale(c), key)
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

type i18nKeyedError interface {
	Key() string
	Args() []interface{}
}

// RespondServiceError 将业务层错误映射为响应码与国际化文案。
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		response.Success(c, nil)
		return
	}

	var keyed i18nKeyedError
	if errors.As(err, &keyed) {
		msg := i18n.Sprintf(Locale(c), keyed.Key(), keyed.Args()...)
		response.Error(c, response.CodeBadRequest, msg)
		return
	}

	code, key := mapServiceError(err)
	if code == response.CodeInternal {
		RespondError(c, code, key, err)
		return
	}
	response.Error(c, code, i18n.T(Locale(c), key))
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return response.CodeNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return response.CodeUnauthorized, err.Error()
	case errors.Is(err, service.ErrAccountDisabled):
		return response.CodeForbidden, err.Error()
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateCommission),
		errors.Is(err, service.ErrEmailTaken):
		return response.CodeConflict, err.Error()
	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrUnverifiedBankAccount),
		errors.Is(err, service.ErrCyclicReferral),
		errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrOrderExpired),
		errors.Is(err, service.ErrAffiliateConfigInvalid):
		return response.CodeUnprocessable, unwrapKey(err)
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidRate),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrWeakPassword):
		return response.CodeBadRequest, unwrapKey(err)
	default:
		return response.CodeInternal, "error.internal"
	}
}

// unwrapKey 返回链上哨兵错误的 i18n 键（fmt.Errorf 包装时取最内层）
func unwrapKey(err error) string {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
	return "error.internal"
}
