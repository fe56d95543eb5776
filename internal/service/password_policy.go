package service

import (
	"unicode"

	"github.com/vietcart-next/internal/config"
)

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func (e passwordPolicyError) Key() string {
	return e.key
}

func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

// validatePassword 按配置校验密码强度，返回的错误可 errors.Is(ErrWeakPassword)。
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	checks := []struct {
		required bool
		ok       bool
		key      string
	}{
		{policy.RequireUpper, hasUpper, "error.password_require_upper"},
		{policy.RequireLower, hasLower, "error.password_require_lower"},
		{policy.RequireNumber, hasNumber, "error.password_require_number"},
		{policy.RequireSpecial, hasSpecial, "error.password_require_special"},
	}
	for _, check := range checks {
		if check.required && !check.ok {
			return passwordPolicyError{key: check.key}
		}
	}
	return nil
}
