package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"telc-go/internal/model"
)

// GetSnapshot returns the stored translation of an exam into targetLang, or
// nil if there is none.
func (s *SQLiteDatabase) GetSnapshot(ctx context.Context, resourceID int64, targetLang string) (*model.DocumentSnapshot, error) {
	sqlStr, args, err := s.sq.Select(
		"id",
		"resource_id",
		"target_lang",
		"source_hash",
		"validator_fingerprint",
		"payload",
		"created_at",
		"updated_at",
	).
		From("exam_translations").
		Where(sq.Eq{"resource_id": resourceID, "target_lang": targetLang}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building snapshot lookup: %w", err)
	}

	var snap model.DocumentSnapshot
	var payload, created, updated string
	err = s.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&snap.ID,
		&snap.ResourceID,
		&snap.TargetLang,
		&snap.SourceHash,
		&snap.ValidatorFingerprint,
		&payload,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting snapshot for exam %d/%s: %w", resourceID, targetLang, err)
	}
	snap.Payload = []byte(payload)
	snap.CreatedAt = parseTime(created)
	snap.UpdatedAt = parseTime(updated)
	return &snap, nil
}

// UpsertSnapshot stores snap, replacing any snapshot for the same exam and
// language. The row keeps its original id and created_at.
func (s *SQLiteDatabase) UpsertSnapshot(ctx context.Context, snap *model.DocumentSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	snap.CreatedAt = nowOr(snap.CreatedAt)
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = snap.CreatedAt
	}

	sqlStr, args, err := s.sq.Insert("exam_translations").
		Columns(
			"id",
			"resource_id",
			"target_lang",
			"source_hash",
			"validator_fingerprint",
			"payload",
			"created_at",
			"updated_at",
		).
		Values(
			snap.ID,
			snap.ResourceID,
			snap.TargetLang,
			snap.SourceHash,
			snap.ValidatorFingerprint,
			string(snap.Payload),
			formatTime(snap.CreatedAt),
			formatTime(snap.UpdatedAt),
		).
		Suffix("ON CONFLICT(resource_id, target_lang) DO UPDATE SET " +
			"source_hash=excluded.source_hash, " +
			"validator_fingerprint=excluded.validator_fingerprint, " +
			"payload=excluded.payload, " +
			"updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building snapshot upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upserting snapshot for exam %d/%s: %w", snap.ResourceID, snap.TargetLang, err)
	}
	return nil
}
