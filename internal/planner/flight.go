package planner

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/oliverbray/shopsmart-backend/pkg/redis"
)

// flightControl is the single-flight and generation surface behind external
// searches: TryLock admits at most one live fetch per key per window, and the
// generation counter lets a finishing fetch detect it has been superseded.
type flightControl interface {
	TryLock(ctx context.Context, storeName, query string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, storeName, query string) error
	NextGeneration(ctx context.Context, storeName, query string) (int64, error)
	CurrentGeneration(ctx context.Context, storeName, query string) (int64, error)
}

// redisFlight coordinates across processes through shared redis keys.
type redisFlight struct {
	client *redis.Client
}

func (f *redisFlight) TryLock(ctx context.Context, storeName, query string, ttl time.Duration) (bool, error) {
	return f.client.SetNX(ctx, f.client.SearchLockKey(storeName, query), "1", ttl)
}

func (f *redisFlight) Unlock(ctx context.Context, storeName, query string) error {
	return f.client.Del(ctx, f.client.SearchLockKey(storeName, query))
}

func (f *redisFlight) NextGeneration(ctx context.Context, storeName, query string) (int64, error) {
	return f.client.Incr(ctx, f.client.SearchGenerationKey(storeName, query))
}

func (f *redisFlight) CurrentGeneration(ctx context.Context, storeName, query string) (int64, error) {
	raw, err := f.client.Get(ctx, f.client.SearchGenerationKey(storeName, query))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// localFlight is the in-process fallback used when redis is not configured.
// It gives the same guarantees within one process.
type localFlight struct {
	mu    sync.Mutex
	locks map[string]time.Time
	gens  map[string]int64
}

func newLocalFlight() *localFlight {
	return &localFlight{
		locks: make(map[string]time.Time),
		gens:  make(map[string]int64),
	}
}

func flightKey(storeName, query string) string {
	return storeName + "\x00" + query
}

func (f *localFlight) TryLock(_ context.Context, storeName, query string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := flightKey(storeName, query)
	if expiry, held := f.locks[key]; held && time.Now().Before(expiry) {
		return false, nil
	}
	f.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (f *localFlight) Unlock(_ context.Context, storeName, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, flightKey(storeName, query))
	return nil
}

func (f *localFlight) NextGeneration(_ context.Context, storeName, query string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := flightKey(storeName, query)
	f.gens[key]++
	return f.gens[key], nil
}

func (f *localFlight) CurrentGeneration(_ context.Context, storeName, query string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gens[flightKey(storeName, query)], nil
}
