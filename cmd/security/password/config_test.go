package password

import (
	"errors"
	"testing"
)

func TestCheck_Defaults(t *testing.T) {
	cfg, err := Config{}.Check()
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Cost != def.Cost {
		t.Fatalf("cost mismatch: %d", cfg.Cost)
	}
	if cfg.Policy.MinLength != def.Policy.MinLength {
		t.Fatalf("min length mismatch")
	}
	if cfg.Policy.MaxBytes != 72 {
		t.Fatalf("max bytes mismatch: %d", cfg.Policy.MaxBytes)
	}
	if cfg.Policy.Symbols != DefaultSymbols {
		t.Fatalf("symbols mismatch: %q", cfg.Policy.Symbols)
	}
}

func TestCheck_ClampsMaxBytes(t *testing.T) {
	cfg, err := Config{Policy: Policy{MaxBytes: 500}}.Check()
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if cfg.Policy.MaxBytes != 72 {
		t.Fatalf("expected clamp to 72, got %d", cfg.Policy.MaxBytes)
	}
}

func TestCheck_InvalidCost(t *testing.T) {
	for _, cost := range []int{1, MaxCost + 1} {
		if _, err := (Config{Cost: cost}).Check(); !errors.Is(err, ErrConfig) {
			t.Fatalf("cost %d: expected ErrConfig, got %v", cost, err)
		}
	}
}

func TestCheck_InvalidMinMax(t *testing.T) {
	_, err := Config{Policy: Policy{MinLength: 20, MaxBytes: 10}}.Check()
	if err == nil {
		t.Fatalf("expected error")
	}
}
