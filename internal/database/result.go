package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"telc-go/internal/model"
)

// CreateResult stores a graded submission and sets its ID and CompletedAt.
func (s *SQLiteDatabase) CreateResult(ctx context.Context, r *model.ExamResult) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}
	r.CompletedAt = nowOr(r.CompletedAt)

	sqlStr, args, err := s.sq.Insert("exam_results").
		Columns("exam_id", "student_name", "answers", "score", "completed_at").
		Values(r.ExamID, r.StudentName, string(answers), r.Score, formatTime(r.CompletedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building result insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading result id: %w", err)
	}
	r.ID = id
	return nil
}

// GetResult returns the result with id, or nil if it does not exist.
func (s *SQLiteDatabase) GetResult(ctx context.Context, id int64) (*model.ExamResult, error) {
	sqlStr, args, err := s.sq.Select("id", "exam_id", "student_name", "answers", "score", "completed_at").
		From("exam_results").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building result lookup: %w", err)
	}

	var r model.ExamResult
	var answers, completed string
	err = s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&r.ID, &r.ExamID, &r.StudentName, &answers, &r.Score, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting result %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers of result %d: %w", id, err)
	}
	r.CompletedAt = parseTime(completed)
	return &r, nil
}
