package redis

import (
	"testing"
	"time"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error when url and address are both empty")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	cfg := config.RedisConfig{
		URL:         "redis://:pass@localhost:6380/2",
		PoolSize:    15,
		DialTimeout: 2 * time.Second,
	}
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 15 {
		t.Fatalf("pool size from config not applied, got %d", opts.PoolSize)
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("stripe_webhook", "evt_123"); got != "ff:idempotency:stripe_webhook:evt_123" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.GateFlagKey("user_abc"); got != "ff:gate_flag:user_abc" {
		t.Fatalf("unexpected gate flag key %q", got)
	}
}
