package router

import (
	"errors"
	"testing"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "insufficient funds" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Start":     "start",
		"":           "unknown",
		" list all ": "list_all",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(codedErr{}); got != "INSUFFICIENT_FUNDS" {
		t.Fatalf("coded = %q", got)
	}
	if got := deriveErrorCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("pointer type = %q", got)
	}
	if got := deriveErrorCode(nil); got != "" {
		t.Fatalf("nil = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("errors.New = %q", got)
	}
}

func TestTrimSlash(t *testing.T) {
	if trimSlash("//topup") != "topup" || trimSlash("users") != "users" {
		t.Fatalf("trimSlash mismatch")
	}
}
