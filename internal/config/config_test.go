package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Project-FinanceHUB/financehub/internal/monthly"
)

func TestLoad_DefaultsAndAliases(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("PORT", "")
	t.Setenv("API_PORT", "9999")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("RABBIT_URI", "amqp://r/")
	t.Setenv("MUTATION_TIMEOUT", "3s")
	t.Setenv("MONTH_OUT_OF_RANGE", "exclude")
	t.Setenv("MERCHANT_TZ", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "9999" || c.RabbitURI != "amqp://r/" {
		t.Fatalf("aliases not applied: %+v", c)
	}
	if c.MutationTimeout != 3*time.Second || c.MonthPolicy != monthly.PolicyExclude {
		t.Fatalf("parsed values mismatch: %+v", c)
	}
	if c.Location.String() != "America/Sao_Paulo" {
		t.Fatalf("location=%s", c.Location)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("MONTH_OUT_OF_RANGE", "wrap")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown month policy")
	}

	t.Setenv("MONTH_OUT_OF_RANGE", "")
	t.Setenv("SNOWFLAKE_NODE", "5000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for snowflake node out of range")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}
