package units

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseFactor(t *testing.T) {
	factor, err := ParseFactor("0.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if factor.String() != "0.5" {
		t.Fatalf("unexpected factor: %s", factor)
	}

	for _, raw := range []string{"", "abc", "0", "-1", "-0.25"} {
		if _, err := ParseFactor(raw); !errors.Is(err, ErrInvalidFactor) {
			t.Fatalf("factor %q: expected ErrInvalidFactor, got %v", raw, err)
		}
	}
}

func TestToNative(t *testing.T) {
	factor := decimal.RequireFromString("0.25")
	if got := ToNative(3600, factor); got != "900" {
		t.Fatalf("expected 900, got %s", got)
	}
	if got := ToNative(0, factor); got != "0" {
		t.Fatalf("expected 0, got %s", got)
	}
	if got := ToNative(-400, factor); got != "-100" {
		t.Fatalf("expected -100, got %s", got)
	}
}

func TestFromNative(t *testing.T) {
	factor := decimal.RequireFromString("0.25")
	got, err := FromNative("900", factor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3600 {
		t.Fatalf("expected 3600, got %d", got)
	}

	// Banker's rounding on the half step.
	got, err = FromNative("1.125", decimal.RequireFromString("0.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}

	if _, err := FromNative("abc", factor); !errors.Is(err, ErrInvalidFactor) {
		t.Fatalf("expected ErrInvalidFactor, got %v", err)
	}
}
