package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"telc-go/internal/model"
)

var cacheColumns = []string{
	"id",
	"resource_type",
	"resource_id",
	"path",
	"source_lang",
	"target_lang",
	"source_hash",
	"translated_text",
	"created_at",
	"updated_at",
}

func scanCacheEntry(row scanner) (*model.CacheEntry, error) {
	var e model.CacheEntry
	var created, updated string
	if err := row.Scan(
		&e.ID,
		&e.ResourceType,
		&e.ResourceID,
		&e.Path,
		&e.SourceLang,
		&e.TargetLang,
		&e.SourceHash,
		&e.TranslatedText,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

// LookupCacheEntry returns the entry for key, or nil if there is none.
func (s *SQLiteDatabase) LookupCacheEntry(ctx context.Context, key model.CacheKey) (*model.CacheEntry, error) {
	q := s.sq.Select(cacheColumns...).
		From("translation_cache").
		Where(sq.Eq{
			"resource_type": key.ResourceType,
			"resource_id":   key.ResourceID,
			"path":          key.Path,
			"source_lang":   key.SourceLang,
			"target_lang":   key.TargetLang,
			"source_hash":   key.SourceHash,
		}).
		Limit(1)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building cache lookup: %w", err)
	}

	e, err := scanCacheEntry(s.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up cache entry %s: %w", key.Path, err)
	}
	return e, nil
}

// StoreCacheEntry inserts a new entry. It never overwrites: an entry with the
// same key tuple yields model.ErrDuplicateKey. Empty ID and timestamps are
// filled in.
func (s *SQLiteDatabase) StoreCacheEntry(ctx context.Context, e *model.CacheEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = nowOr(e.CreatedAt)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	q := s.sq.Insert("translation_cache").
		Columns(cacheColumns...).
		Values(
			e.ID,
			e.ResourceType,
			e.ResourceID,
			e.Path,
			e.SourceLang,
			e.TargetLang,
			e.SourceHash,
			e.TranslatedText,
			formatTime(e.CreatedAt),
			formatTime(e.UpdatedAt),
		)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building cache insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storing cache entry %s: %w", e.Path, model.ErrDuplicateKey)
		}
		return fmt.Errorf("storing cache entry %s: %w", e.Path, err)
	}
	return nil
}

// TouchCacheEntry refreshes updated_at of an entry that was reused.
func (s *SQLiteDatabase) TouchCacheEntry(ctx context.Context, id string, at time.Time) error {
	q := s.sq.Update("translation_cache").
		Set("updated_at", formatTime(nowOr(at))).
		Where(sq.Eq{"id": id})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building cache touch: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("touching cache entry %s: %w", id, err)
	}
	return nil
}

// InvalidateCacheEntry deletes an entry. Deleting a missing entry is not an error.
func (s *SQLiteDatabase) InvalidateCacheEntry(ctx context.Context, id string) error {
	sqlStr, args, err := s.sq.Delete("translation_cache").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building cache delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("invalidating cache entry %s: %w", id, err)
	}
	return nil
}

// CountCacheEntries returns how many entries exist for a resource.
func (s *SQLiteDatabase) CountCacheEntries(ctx context.Context, resourceType string, resourceID int64) (int, error) {
	sqlStr, args, err := s.sq.Select("COUNT(*)").
		From("translation_cache").
		Where(sq.Eq{"resource_type": resourceType, "resource_id": resourceID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building cache count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func deleteCacheEntriesTx(ctx context.Context, tx *sql.Tx, b sq.StatementBuilderType, resourceType string, resourceID int64) error {
	sqlStr, args, err := b.Delete("translation_cache").
		Where(sq.Eq{"resource_type": resourceType, "resource_id": resourceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building cache purge: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("purging cache entries: %w", err)
	}
	return nil
}
