package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"telc-go/internal/model"
)

// CreateExam inserts exam and sets its ID and CreatedAt.
func (s *SQLiteDatabase) CreateExam(ctx context.Context, exam *model.Exam) error {
	doc, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("encoding exam: %w", err)
	}
	exam.CreatedAt = nowOr(exam.CreatedAt)
	ts := formatTime(exam.CreatedAt)

	sqlStr, args, err := s.sq.Insert("exams").
		Columns("title", "document", "created_at", "updated_at").
		Values(exam.Title, string(doc), ts, ts).
		ToSql()
	if err != nil {
		return fmt.Errorf("building exam insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("inserting exam: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading exam id: %w", err)
	}
	exam.ID = id
	return nil
}

// GetExam returns the exam with id, or nil if it does not exist.
func (s *SQLiteDatabase) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	sqlStr, args, err := s.sq.Select("id", "title", "document", "created_at").
		From("exams").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building exam lookup: %w", err)
	}

	var examID int64
	var title, doc, created string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&examID, &title, &doc, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting exam %d: %w", id, err)
	}

	var exam model.Exam
	if err := json.Unmarshal([]byte(doc), &exam); err != nil {
		return nil, fmt.Errorf("decoding exam %d: %w", id, err)
	}
	exam.ID = examID
	exam.Title = title
	exam.CreatedAt = parseTime(created)
	return &exam, nil
}

// ListExams returns all exams, oldest first.
func (s *SQLiteDatabase) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	sqlStr, args, err := s.sq.Select("id", "title", "created_at").
		From("exams").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building exam list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exams: %w", err)
	}
	defer rows.Close()

	out := []model.ExamSummary{}
	for rows.Next() {
		var e model.ExamSummary
		var created string
		if err := rows.Scan(&e.ID, &e.Title, &created); err != nil {
			return nil, fmt.Errorf("scanning exam: %w", err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing exams: %w", err)
	}
	return out, nil
}

// UpdateExam replaces the title and content of an existing exam. It returns
// model.ErrExamNotFound if exam.ID does not exist.
func (s *SQLiteDatabase) UpdateExam(ctx context.Context, exam *model.Exam) error {
	doc, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("encoding exam: %w", err)
	}

	sqlStr, args, err := s.sq.Update("exams").
		Set("title", exam.Title).
		Set("document", string(doc)).
		Set("updated_at", formatTime(time.Now())).
		Where(sq.Eq{"id": exam.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building exam update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("updating exam %d: %w", exam.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrExamNotFound
	}
	return nil
}

// DeleteExam removes an exam together with its cached field translations,
// snapshots and results. It returns model.ErrExamNotFound if the exam does not exist.
func (s *SQLiteDatabase) DeleteExam(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteCacheEntriesTx(ctx, tx, s.sq, model.ResourceExam, id); err != nil {
		return err
	}

	sqlStr, args, err := s.sq.Delete("exam_translations").Where(sq.Eq{"resource_id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building snapshot purge: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("purging snapshots: %w", err)
	}

	sqlStr, args, err = s.sq.Delete("exam_results").Where(sq.Eq{"exam_id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building result purge: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("purging results: %w", err)
	}

	sqlStr, args, err = s.sq.Delete("exams").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building exam delete: %w", err)
	}
	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("deleting exam %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrExamNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
