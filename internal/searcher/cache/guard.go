package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
)

// Guard routes calls to b through a circuit breaker, so an unreachable Redis
// costs one fast ErrOpen per query instead of a network timeout. Missing
// keys are not failures.
func Guard(b Backend, breaker *resilience.Breaker) Backend {
	return &guarded{backend: b, breaker: breaker}
}

type guarded struct {
	backend Backend
	breaker *resilience.Breaker
}

func (g *guarded) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value  []byte
		getErr error
	)
	err := g.breaker.Do(func() error {
		value, getErr = g.backend.Get(ctx, key)
		if pkgredis.IsNil(getErr) {
			return nil
		}
		return getErr
	})
	if getErr == nil && err != nil {
		return nil, err
	}
	return value, getErr
}

func (g *guarded) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.backend.Set(ctx, key, value, ttl)
	})
}

func (g *guarded) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := g.breaker.Do(func() error {
		var err error
		n, err = g.backend.DeletePrefix(ctx, prefix)
		return err
	})
	return n, err
}
