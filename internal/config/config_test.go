package config_test

import (
	"testing"
	"time"

	"github.com/canopysites/canopy/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CANOPY_JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr default: %s", cfg.Addr)
	}
	if cfg.Table != "canopy_site" {
		t.Errorf("table default: %s", cfg.Table)
	}
	if cfg.AuditChannel != "canopy.audit" {
		t.Errorf("audit channel default: %s", cfg.AuditChannel)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("shutdown timeout default: %s", cfg.ShutdownTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CANOPY_JWT_SECRET", "s3cret")
	t.Setenv("CANOPY_ADDR", ":9999")
	t.Setenv("CANOPY_TABLE", "canopy_staging")
	t.Setenv("CANOPY_REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Table != "canopy_staging" || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("CANOPY_JWT_SECRET", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing required secret")
	}
}
