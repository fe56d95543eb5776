package i18n

import (
	"testing"

	"github.com/vietcart-next/internal/constants"
)

func TestTFallbackChain(t *testing.T) {
	if got := T(constants.LocaleEnUS, "error.not_found"); got != "Not found" {
		t.Fatalf("unexpected en-US message: %q", got)
	}
	// 未知语言回退默认语言
	if got := T("fr-FR", "error.not_found"); got != "Không tìm thấy dữ liệu" {
		t.Fatalf("unexpected fallback message: %q", got)
	}
	// 未知键回退键本身
	if got := T(constants.LocaleViVN, "error.no_such_key"); got != "error.no_such_key" {
		t.Fatalf("unexpected unknown-key result: %q", got)
	}
}

func TestSprintfFormatsArgs(t *testing.T) {
	got := Sprintf(constants.LocaleEnUS, "error.rate_limited", 30)
	if got != "Too many attempts, please retry in 30 seconds" {
		t.Fatalf("unexpected formatted message: %q", got)
	}
	// 无参数时原样返回
	if got := Sprintf(constants.LocaleEnUS, "error.not_found"); got != "Not found" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"vi-VN", constants.LocaleViVN},
		{"en-US", constants.LocaleEnUS},
		{"en-us", constants.LocaleEnUS},
		{"vi", constants.LocaleViVN},
		{"en", constants.LocaleEnUS},
		{"en-US;q=0.9,vi;q=0.8", constants.LocaleEnUS},
		{"fr-FR,en;q=0.5", constants.LocaleEnUS},
		{"fr-FR", constants.LocaleViVN},
		{"", constants.LocaleViVN},
	}
	for _, tc := range cases {
		if got := ResolveLocale(tc.header); got != tc.want {
			t.Fatalf("ResolveLocale(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
