package translation

import (
	"context"
	"time"

	"telc-go/internal/model"
	"telc-go/internal/provider"
)

// Store is the persistence the service needs: exam lookup, the per-field
// translation cache and the per-language exam snapshots.
// Lookups return nil, nil when nothing matches.
type Store interface {
	GetExam(ctx context.Context, id int64) (*model.Exam, error)

	LookupCacheEntry(ctx context.Context, key model.CacheKey) (*model.CacheEntry, error)
	StoreCacheEntry(ctx context.Context, e *model.CacheEntry) error
	TouchCacheEntry(ctx context.Context, id string, at time.Time) error
	InvalidateCacheEntry(ctx context.Context, id string) error

	GetSnapshot(ctx context.Context, resourceID int64, targetLang string) (*model.DocumentSnapshot, error)
	UpsertSnapshot(ctx context.Context, snap *model.DocumentSnapshot) error
}

// Translator turns text into its translation. *provider.Chain implements it.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (provider.Result, bool)
}

// Recorder receives cache and validation events. The metrics package
// implements it for Prometheus.
type Recorder interface {
	CacheHit()
	CacheMiss()
	CacheInvalidated()
	SnapshotHit()
	SnapshotMiss()
	Validated(valid bool)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit()         {}
func (nopRecorder) CacheMiss()        {}
func (nopRecorder) CacheInvalidated() {}
func (nopRecorder) SnapshotHit()      {}
func (nopRecorder) SnapshotMiss()     {}
func (nopRecorder) Validated(bool)    {}
