package model

import (
	"errors"
	"time"
)

var (
	// ErrExamNotFound is returned when an exam id does not resolve.
	ErrExamNotFound = errors.New("exam not found")

	// ErrResultNotFound is returned when a result id does not resolve.
	ErrResultNotFound = errors.New("result not found")

	// ErrDuplicateKey is returned when a cache entry with an identical key tuple
	// already exists. Concurrent writers hit this when they race on the same field.
	ErrDuplicateKey = errors.New("duplicate cache key")
)

// ResourceExam is the resource type recorded on cache entries for exam fields.
const ResourceExam = "exam"

// CacheKey identifies a cached translation of one field's source text.
// SourceHash makes the key content-addressed: editing the source text produces
// a different key instead of overwriting the old entry.
type CacheKey struct {
	ResourceType string
	ResourceID   int64
	Path         string
	SourceLang   string
	TargetLang   string
	SourceHash   string
}

// CacheEntry is a stored translation of one field.
type CacheEntry struct {
	ID             string // UUID
	ResourceType   string
	ResourceID     int64
	Path           string // FieldPath wire format, e.g. "leseverstehen_teil1.titles[0]"
	SourceLang     string
	TargetLang     string
	SourceHash     string // SHA-256 of the source text
	TranslatedText string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key returns the uniqueness tuple of the entry.
func (e *CacheEntry) Key() CacheKey {
	return CacheKey{
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Path:         e.Path,
		SourceLang:   e.SourceLang,
		TargetLang:   e.TargetLang,
		SourceHash:   e.SourceHash,
	}
}

// DocumentSnapshot is the latest full translation of one exam into one language.
// There is at most one per (ResourceID, TargetLang); it is replaced, not versioned.
type DocumentSnapshot struct {
	ID                   string // UUID
	ResourceID           int64
	TargetLang           string
	SourceHash           string // SHA-256 over all translatable leaf values, in traversal order
	ValidatorFingerprint string // fingerprint of the validator settings the snapshot was built with
	Payload              []byte // translated document JSON
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
