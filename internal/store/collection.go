package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Collection reads and writes a whole JSON array of T under one key.
type Collection[T any] struct {
	kv     KV
	logger *slog.Logger
}

// NewCollection binds a collection codec to a KV.
func NewCollection[T any](kv KV, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{kv: kv, logger: logger}
}

// Load returns the stored items. A missing key, a failed read or corrupt
// JSON all yield an empty collection; the latter two are logged.
func (c *Collection[T]) Load(ctx context.Context, key string) []T {
	items, err := c.LoadStrict(ctx, key)
	if err != nil {
		c.logger.Warn("treating unreadable collection as empty", "key", key, "error", err)
		return []T{}
	}
	return items
}

// LoadStrict is Load for callers that must distinguish "empty" from
// "unreadable". A missing key is still an empty collection.
func (c *Collection[T]) LoadStrict(ctx context.Context, key string) ([]T, error) {
	raw, err := c.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save overwrites the collection.
func (c *Collection[T]) Save(ctx context.Context, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes the collection.
func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	return c.kv.Delete(ctx, key)
}

// LoadValue reads a single JSON value. ok is false when the key is absent.
func LoadValue[T any](ctx context.Context, kv KV, key string) (value T, ok bool, err error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, true, nil
}

// SaveValue writes a single JSON value.
func SaveValue[T any](ctx context.Context, kv KV, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
