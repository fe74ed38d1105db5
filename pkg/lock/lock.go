package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

const keyPrefix = "sigaa:sync:lock:"

// TermLock serializes sync runs per academic term across processes. Category
// and course creation stay non-atomic check-then-act, so two concurrent runs
// for the same term could race into duplicate rows; taking the lock at the job
// boundary removes that window in practice.
type TermLock struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a term lock. The TTL is a safety valve for crashed runs.
func New(client *redis.Client, ttl time.Duration) *TermLock {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TermLock{client: client, ttl: ttl}
}

// Acquire attempts to take the lock for a term. It reports false when another
// run currently holds it.
func (l *TermLock) Acquire(ctx context.Context, term models.TermKey) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+term.String(), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire term lock %s: %w", term, err)
	}
	return ok, nil
}

// Release frees the lock for a term.
func (l *TermLock) Release(ctx context.Context, term models.TermKey) error {
	if err := l.client.Del(ctx, keyPrefix+term.String()).Err(); err != nil {
		return fmt.Errorf("release term lock %s: %w", term, err)
	}
	return nil
}
