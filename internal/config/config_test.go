package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
	if cfg.AccessTokenTTL() != time.Hour {
		t.Fatalf("token ttl = %v, want 1h", cfg.AccessTokenTTL())
	}
	if cfg.AlertCacheTTL() != 30*time.Second {
		t.Fatalf("alert cache ttl = %v, want 30s", cfg.AlertCacheTTL())
	}
	if cfg.DigestHour != 21 {
		t.Fatalf("digest hour = %d, want 21", cfg.DigestHour)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Port)
	}
	if cfg.AccessTokenTTL() != 15*time.Minute {
		t.Fatalf("token ttl = %v, want 15m", cfg.AccessTokenTTL())
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("redis db = %d, invalid value must fall back", cfg.RedisDB)
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("empty timezone: loc = %v err = %v", loc, err)
	}

	cfg.Timezone = "Asia/Jakarta"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("jakarta: %v", err)
	}
	if loc.String() != "Asia/Jakarta" {
		t.Fatalf("loc = %v", loc)
	}

	cfg.Timezone = "Not/AZone"
	loc, err = cfg.Location()
	if err == nil {
		t.Fatalf("unknown timezone must error")
	}
	if loc != time.UTC {
		t.Fatalf("unknown timezone must fall back to UTC, got %v", loc)
	}
}
