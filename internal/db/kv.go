// internal/db/kv.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// KV stores string values in the kv_entries table.
type KV struct {
	queries *Queries
	now     func() time.Time
}

func NewKV(database *DB) *KV {
	return &KV{queries: database.Queries, now: func() time.Time { return time.Now().UTC() }}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := k.queries.GetKVEntry(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.queries.UpsertKVEntry(ctx, UpsertKVEntryParams{Key: key, Value: value, UpdatedAt: k.now()})
}

func (k *KV) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	n, err := k.queries.InsertKVEntryIfAbsent(ctx, UpsertKVEntryParams{Key: key, Value: value, UpdatedAt: k.now()})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
