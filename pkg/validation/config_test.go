package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Checks(t *testing.T) {
	tests := []struct {
		name    string
		apply   func(*ConfigValidator)
		wantErr bool
	}{
		{"required empty", func(cv *ConfigValidator) { cv.Required("Name", "") }, true},
		{"required set", func(cv *ConfigValidator) { cv.Required("Name", "bfs") }, false},
		{"positive zero", func(cv *ConfigValidator) { cv.Positive("EpochSize", 0) }, true},
		{"positive one", func(cv *ConfigValidator) { cv.Positive("EpochSize", 1) }, false},
		{"non-negative", func(cv *ConfigValidator) { cv.NonNegative("MaximumTransitions", -1) }, true},
		{"non-negative zero", func(cv *ConfigValidator) { cv.NonNegative("MaximumTransitions", 0) }, false},
		{"duration negative", func(cv *ConfigValidator) { cv.NonNegativeDuration("MaximumTime", -time.Second) }, true},
		{"duration zero", func(cv *ConfigValidator) { cv.NonNegativeDuration("MaximumTime", 0) }, false},
		{"float NaN", func(cv *ConfigValidator) { cv.PositiveFloat("T0", math.NaN()) }, true},
		{"float inf", func(cv *ConfigValidator) { cv.NonNegativeFloat("Beta", math.Inf(1)) }, true},
		{"float positive", func(cv *ConfigValidator) { cv.PositiveFloat("T0", 2.5) }, false},
		{"open unit low", func(cv *ConfigValidator) { cv.OpenUnit("Alpha", 0) }, true},
		{"open unit high", func(cv *ConfigValidator) { cv.OpenUnit("Alpha", 1) }, true},
		{"open unit", func(cv *ConfigValidator) { cv.OpenUnit("Alpha", 0.9) }, false},
		{"one of miss", func(cv *ConfigValidator) { cv.OneOf("Strategy", "bogo", []string{"bfs", "dfs"}) }, true},
		{"one of hit", func(cv *ConfigValidator) { cv.OneOf("Strategy", "dfs", []string{"bfs", "dfs"}) }, false},
		{"custom", func(cv *ConfigValidator) { cv.Custom("Rules", func() error { return errors.New("bad") }) }, true},
		{"when false", func(cv *ConfigValidator) {
			cv.When(false, func(cv *ConfigValidator) { cv.Required("X", "") })
		}, false},
		{"when true", func(cv *ConfigValidator) {
			cv.When(true, func(cv *ConfigValidator) { cv.Required("X", "") })
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("Options")
			tt.apply(cv)
			if cv.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors() = %v, want %v (%v)", cv.HasErrors(), tt.wantErr, cv.Errors())
			}
		})
	}
}

func TestConfigValidator_CollectsAllErrors(t *testing.T) {
	sentinel := errors.New("no rules")
	err := NewConfigValidator("Options").
		Required("Strategy", "").
		Positive("EpochSize", 0).
		Custom("Rules", func() error { return sentinel }).
		Validate()

	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, sentinel) {
		t.Error("custom error is not wrapped")
	}
	for _, field := range []string{"Options.Strategy", "Options.EpochSize", "Options.Rules"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}

	if err := NewConfigValidator("Options").Positive("EpochSize", 1).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr(0, 5); got != 5 {
		t.Errorf("DefaultOr(0, 5) = %d", got)
	}
	if got := DefaultOr(3, 5); got != 3 {
		t.Errorf("DefaultOr(3, 5) = %d", got)
	}
	if got := DefaultOr(time.Duration(0), time.Second); got != time.Second {
		t.Errorf("DefaultOr(0s, 1s) = %v", got)
	}
}
