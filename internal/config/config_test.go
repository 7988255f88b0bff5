package config

import (
	"testing"
	"time"
)

func TestLoadBookingConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "")
	t.Setenv("BOOKING_DECREMENT_ON_UPDATE", "")
	t.Setenv("BOOKING_RESTORE_ON_DELETE", "")

	cfg := LoadBookingConfig()
	if cfg.StorageDriver != StorageMySQL {
		t.Fatalf("driver = %q, want %q", cfg.StorageDriver, StorageMySQL)
	}
	if cfg.LockTimeout != 0 {
		t.Fatalf("lock timeout = %s, want blocking (0)", cfg.LockTimeout)
	}
	if !cfg.DecrementOnUpdate || cfg.RestoreOnDelete {
		t.Fatalf("legacy stock policy not the default: %+v", cfg)
	}
}

func TestLoadBookingConfigOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "750ms")
	t.Setenv("BOOKING_DECREMENT_ON_UPDATE", "off")
	t.Setenv("BOOKING_RESTORE_ON_DELETE", "yes")

	cfg := LoadBookingConfig()
	if cfg.StorageDriver != StorageMemory {
		t.Fatalf("driver = %q", cfg.StorageDriver)
	}
	if cfg.LockTimeout != 750*time.Millisecond {
		t.Fatalf("lock timeout = %s", cfg.LockTimeout)
	}
	if cfg.DecrementOnUpdate || !cfg.RestoreOnDelete {
		t.Fatalf("policy overrides ignored: %+v", cfg)
	}
}

func TestLoadBookingConfigRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("BOOKING_LOCK_TIMEOUT", "-5s")
	if got := LoadBookingConfig().LockTimeout; got != 0 {
		t.Fatalf("negative timeout should clamp to 0, got %s", got)
	}
}

func TestLoadRateLimitConfigClampsTTL(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.RefillInterval != 10*time.Second || cfg.RefillTokens != 1 {
		t.Fatalf("refill = %d per %s", cfg.RefillTokens, cfg.RefillInterval)
	}
	if cfg.TTL != 50*time.Second {
		t.Fatalf("ttl = %s, want 5 refill intervals", cfg.TTL)
	}
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6379" || !cfg.TLS {
		t.Fatalf("unexpected redis config %+v", cfg)
	}
}

func TestLoadEventsConfigFallbackURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	if got := LoadEventsConfig().URL; got != "amqp://u:p@broker:5672/" {
		t.Fatalf("url = %q", got)
	}
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,,")
	if !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Fatalf("parseMethods = %v", m)
	}
}
