package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flexfitapp/flexfit-backend/pkg/redis"
)

// GuardScope namespaces idempotency keys for this webhook receiver.
const GuardScope = "stripe_webhook"

// IdempotencyGuard records processed event ids so provider redeliveries are
// acknowledged without re-running side effects. The mark is written before
// processing and removed again if processing fails, which re-opens the event
// for the provider's retry.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark claims the event id. It returns true when the event was
// already claimed by an earlier delivery.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(GuardScope, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete releases the claim after a failed handler run.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(GuardScope, eventID))
}
