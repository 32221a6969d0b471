package projection

import (
	"context"
	"time"

	"github.com/rentlover/platform/internal/domain"
)

const (
	directoryKeyPrefix = "projection:directory:"
	directoryLatestKey = "projection:directory:latest"
)

// DirectoryProjection is a cached merged-user snapshot, valid only for the
// source watermark it was built from.
type DirectoryProjection struct {
	Watermark string        `json:"watermark"`
	Users     []domain.User `json:"users"`
	BuiltAt   time.Time     `json:"built_at"`
}

// PutDirectory caches a snapshot under its watermark and records it as the
// latest build.
func PutDirectory(ctx context.Context, store Store, p DirectoryProjection, ttl time.Duration) error {
	if p.BuiltAt.IsZero() {
		p.BuiltAt = time.Now().UTC()
	}
	if err := SetJSON(ctx, store, directoryKeyPrefix+p.Watermark, p, ttl); err != nil {
		return err
	}
	return store.Set(ctx, directoryLatestKey, []byte(p.Watermark), ttl)
}

// GetDirectory returns the snapshot built at watermark, or ErrMiss.
func GetDirectory(ctx context.Context, store Store, watermark string) (*DirectoryProjection, error) {
	var p DirectoryProjection
	if err := GetJSON(ctx, store, directoryKeyPrefix+watermark, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateDirectory drops the latest snapshot.
func InvalidateDirectory(ctx context.Context, store Store) error {
	wm, err := store.Get(ctx, directoryLatestKey)
	if err != nil {
		return nil
	}
	if err := store.Delete(ctx, directoryKeyPrefix+string(wm)); err != nil {
		return err
	}
	return store.Delete(ctx, directoryLatestKey)
}
