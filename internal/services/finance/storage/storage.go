package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested snapshot is missing.
var ErrNotFound = errors.New("record not found")

// SnapshotStore persists whole snapshots under a fixed key.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
	PutSnapshot(ctx context.Context, key string, data []byte) error
	DeleteSnapshot(ctx context.Context, key string) error
}
