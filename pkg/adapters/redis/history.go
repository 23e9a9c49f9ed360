// Package redis stores launcher input history in a Redis list.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/arvis/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultMax is the number of entries kept when no maximum is given.
const DefaultMax = 100

// History implements ports.HistoryStore on a Redis list, newest at the head.
type History struct {
	client *backend.Client
	key    string
	max    int
	ttl    time.Duration
}

type Option func(*History)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(h *History) {
		h.key = key
	}
}

// WithMax caps the list length.
func WithMax(max int) Option {
	return func(h *History) {
		if max > 0 {
			h.max = max
		}
	}
}

// WithTTL expires the whole history after ttl without pushes.
func WithTTL(ttl time.Duration) Option {
	return func(h *History) {
		h.ttl = ttl
	}
}

// New creates a Redis history with its own client.
func New(address, password string, db int, opts ...Option) *History {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis history from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *History {
	h := &History{
		client: client,
		key:    "arvis:history",
		max:    DefaultMax,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push prepends the entry and trims the list to the maximum length.
func (h *History) Push(ctx context.Context, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, h.key, data)
	pipe.LTrim(ctx, h.key, 0, int64(h.max-1))
	if h.ttl > 0 {
		pipe.Expire(ctx, h.key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push history to redis: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (h *History) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	vals, err := h.client.LRange(ctx, h.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history from redis: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear deletes the history list.
func (h *History) Clear(ctx context.Context) error {
	return h.client.Del(ctx, h.key).Err()
}

// Close closes the redis client.
func (h *History) Close() error {
	return h.client.Close()
}
