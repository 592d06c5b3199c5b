package health

import (
	"context"
	"errors"
	"fmt"

	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/session"
)

// Pinger is anything that can verify its backing resource is reachable.
// The store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreCheck verifies that the persistence layer is reachable.
func StoreCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// AdapterCheck verifies that at least one provider adapter reports healthy.
func AdapterCheck(adapters map[providers.ID]providers.Adapter) CheckFunc {
	return func(ctx context.Context) error {
		healthy := 0
		for _, adapter := range adapters {
			if adapter.IsHealthy() {
				healthy++
			}
		}
		if healthy == 0 {
			return errors.New("no healthy provider adapters")
		}
		return nil
	}
}

// SessionCheck verifies that at least one provider session can take a
// request right now.
func SessionCheck(registry *session.Registry) CheckFunc {
	return func(ctx context.Context) error {
		ids := registry.Providers()
		if available := registry.Available(ids); len(available) == 0 {
			return fmt.Errorf("no available sessions among %d providers", len(ids))
		}
		return nil
	}
}
