package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RabbitMQ.DrainTimeout != 5*time.Second {
		t.Errorf("expected 5s drain timeout, got %v", cfg.RabbitMQ.DrainTimeout)
	}
	if cfg.Publish.WindowDays != 2 {
		t.Errorf("expected window 2 days, got %d", cfg.Publish.WindowDays)
	}
	if len(cfg.BOM.SpecialItems) != 2 || cfg.BOM.SpecialItems[0] != "G8900" {
		t.Errorf("unexpected special items: %v", cfg.BOM.SpecialItems)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DRAIN_TIMEOUT", "750ms")
	t.Setenv("SPECIAL_ITEMS", " G1 , ,G2 ")
	t.Setenv("PUBLISH_WINDOW_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RabbitMQ.DrainTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.RabbitMQ.DrainTimeout)
	}
	if got := cfg.BOM.SpecialItems; len(got) != 2 || got[0] != "G1" || got[1] != "G2" {
		t.Errorf("unexpected special items: %v", got)
	}
	if cfg.Publish.WindowDays != 7 {
		t.Errorf("expected 7, got %d", cfg.Publish.WindowDays)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DRAIN_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid DRAIN_TIMEOUT")
	}
}

func TestLoad_SameExchanges(t *testing.T) {
	t.Setenv("MQ_EXCHANGE", "x")
	t.Setenv("MQ_DEAD_LETTER_EXCHANGE", "x")
	if _, err := Load(); err == nil {
		t.Error("expected error when exchanges collide")
	}
}
