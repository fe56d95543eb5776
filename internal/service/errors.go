package service

import "errors"

// 业务层统一错误定义，由 handler 映射为响应码与 i18n 文案
var (
	ErrNotFound              = errors.New("error.not_found")
	ErrValidation            = errors.New("error.bad_request")
	ErrInvalidCredentials    = errors.New("error.invalid_credentials")
	ErrAccountDisabled       = errors.New("error.account_disabled")
	ErrInvalidRate           = errors.New("error.invalid_rate")
	ErrInvalidTransition     = errors.New("error.invalid_transition")
	ErrInsufficientBalance   = errors.New("error.insufficient_balance")
	ErrBelowMinimum          = errors.New("error.below_minimum")
	ErrUnverifiedBankAccount = errors.New("error.unverified_bank_account")
	ErrCyclicReferral        = errors.New("error.cyclic_referral")
	ErrDuplicateCommission   = errors.New("error.duplicate_commission")
	ErrOutOfStock            = errors.New("error.out_of_stock")
	ErrOrderExpired          = errors.New("error.order_expired")
	ErrInvalidPassword       = errors.New("error.invalid_password")
	ErrWeakPassword          = errors.New("error.weak_password")
	ErrEmailTaken            = errors.New("error.email_taken")

	ErrAffiliateConfigInvalid = errors.New("error.affiliate_config_invalid")
)
