package events

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SentLog remembers notices that already went out, keyed by message id and
// recipient, so a redelivered message only retries the recipients that failed.
type SentLog interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// RedisSentLog shares the log between worker instances.
type RedisSentLog struct {
	RDB    *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisSentLog(rdb *redis.Client, ttl time.Duration) *RedisSentLog {
	return &RedisSentLog{RDB: rdb, Prefix: "notify:sent:", TTL: ttl}
}

func (l *RedisSentLog) Seen(ctx context.Context, key string) (bool, error) {
	n, err := l.RDB.Exists(ctx, l.Prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisSentLog) Mark(ctx context.Context, key string) error {
	return l.RDB.Set(ctx, l.Prefix+key, 1, l.TTL).Err()
}

// MemorySentLog is a per-process log. Requeued messages usually come back to
// the same consumer, so it covers the single-worker setup.
type MemorySentLog struct {
	mu   sync.Mutex
	TTL  time.Duration
	Now  func() time.Time
	sent map[string]time.Time
}

func NewMemorySentLog(ttl time.Duration) *MemorySentLog {
	return &MemorySentLog{TTL: ttl, Now: time.Now, sent: make(map[string]time.Time)}
}

func (l *MemorySentLog) Seen(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.sent[key]
	if !ok {
		return false, nil
	}
	if l.Now().Sub(at) > l.TTL {
		delete(l.sent, key)
		return false, nil
	}
	return true, nil
}

func (l *MemorySentLog) Mark(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.Now()
	for k, at := range l.sent {
		if now.Sub(at) > l.TTL {
			delete(l.sent, k)
		}
	}
	l.sent[key] = now
	return nil
}
