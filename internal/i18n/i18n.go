package i18n

import (
	"fmt"
	"strings"

	"github.com/vietcart-next/internal/constants"
)

// messages 各语言消息表（键 -> 文案）
var messages = map[string]map[string]string{
	constants.LocaleViVN: {
		"error.bad_request":             "Yêu cầu không hợp lệ",
		"error.unauthorized":            "Vui lòng đăng nhập",
		"error.forbidden":               "Không có quyền truy cập",
		"error.not_found":               "Không tìm thấy dữ liệu",
		"error.too_many_requests":       "Thao tác quá thường xuyên, vui lòng thử lại sau",
		"error.rate_limited":            "Thao tác quá thường xuyên, vui lòng thử lại sau %d giây",
		"error.rate_limit_unavailable":  "Hệ thống đang bận, vui lòng thử lại sau",
		"error.internal":                "Lỗi hệ thống, vui lòng thử lại sau",
		"error.invalid_credentials":     "Tài khoản hoặc mật khẩu không đúng",
		"error.token_invalid":           "Phiên đăng nhập không hợp lệ",
		"error.token_revoked":           "Phiên đăng nhập đã hết hiệu lực, vui lòng đăng nhập lại",
		"error.auth_header_invalid":     "Thiếu hoặc sai thông tin xác thực",
		"error.account_disabled":        "Tài khoản đã bị khóa",
		"error.invalid_rate":            "Tỷ lệ hoa hồng không hợp lệ",
		"error.invalid_transition":      "Trạng thái không cho phép thao tác này",
		"error.insufficient_balance":    "Số dư không đủ",
		"error.below_minimum":           "Số tiền rút thấp hơn mức tối thiểu",
		"error.unverified_bank_account": "Tài khoản ngân hàng chưa được xác minh",
		"error.cyclic_referral":         "Quan hệ giới thiệu không hợp lệ",
		"error.duplicate_commission":    "Hoa hồng cho đơn hàng này đã tồn tại",
		"error.affiliate_config_invalid": "Cấu hình chương trình tiếp thị không hợp lệ",
		"error.out_of_stock":            "Sản phẩm đã hết hàng",
		"error.order_expired":           "Đơn hàng đã hết hạn thanh toán",
		"error.invalid_password":        "Mật khẩu hiện tại không đúng",
		"error.weak_password":           "Mật khẩu chưa đủ mạnh",
		"error.email_taken":             "Email đã được sử dụng",
		"error.password_min_length":     "Mật khẩu phải có ít nhất %d ký tự",
		"error.password_require_upper":  "Mật khẩu phải chứa chữ in hoa",
		"error.password_require_lower":  "Mật khẩu phải chứa chữ thường",
		"error.password_require_number": "Mật khẩu phải chứa chữ số",
		"error.password_require_special": "Mật khẩu phải chứa ký tự đặc biệt",
		"message.withdrawal_submitted":  "Đã gửi yêu cầu rút tiền",
		"message.withdrawal_cancelled":  "Đã hủy yêu cầu rút tiền",
	},
	constants.LocaleEnUS: {
		"error.bad_request":             "Bad request",
		"error.unauthorized":            "Please sign in",
		"error.forbidden":               "Forbidden",
		"error.not_found":               "Not found",
		"error.too_many_requests":       "Too many requests, please retry later",
		"error.rate_limited":            "Too many attempts, please retry in %d seconds",
		"error.rate_limit_unavailable":  "Service busy, please retry later",
		"error.internal":                "Internal error, please retry later",
		"error.invalid_credentials":     "Invalid account or password",
		"error.token_invalid":           "Invalid session",
		"error.token_revoked":           "Session expired, please sign in again",
		"error.auth_header_invalid":     "Missing or malformed credentials",
		"error.account_disabled":        "Account disabled",
		"error.invalid_rate":            "Invalid commission rate",
		"error.invalid_transition":      "Operation not allowed in current status",
		"error.insufficient_balance":    "Insufficient balance",
		"error.below_minimum":           "Withdrawal amount below minimum",
		"error.unverified_bank_account": "Bank account not verified",
		"error.cyclic_referral":         "Invalid referral relationship",
		"error.duplicate_commission":    "Commission for this order already exists",
		"error.affiliate_config_invalid": "Invalid affiliate program configuration",
		"error.out_of_stock":            "Product out of stock",
		"error.order_expired":           "Order payment expired",
		"error.invalid_password":        "Current password is incorrect",
		"error.weak_password":           "Password is too weak",
		"error.email_taken":             "Email already in use",
		"error.password_min_length":     "Password must be at least %d characters",
		"error.password_require_upper":  "Password must contain an uppercase letter",
		"error.password_require_lower":  "Password must contain a lowercase letter",
		"error.password_require_number": "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",
		"message.withdrawal_submitted":  "Withdrawal request submitted",
		"message.withdrawal_cancelled":  "Withdrawal request cancelled",
	},
}

// T 按语言取文案，缺失时回退默认语言，再回退键本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[constants.LocaleViVN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 按语言取文案并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	msg := T(locale, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// ResolveLocale 从 Accept-Language 头解析受支持的语言
func ResolveLocale(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		for _, supported := range constants.SupportedLocales {
			if strings.EqualFold(tag, supported) {
				return supported
			}
			// 仅语言前缀匹配（vi -> vi-VN）
			if prefix, _, ok := strings.Cut(supported, "-"); ok && strings.EqualFold(tag, prefix) {
				return supported
			}
		}
	}
	return constants.LocaleViVN
}
