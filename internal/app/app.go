// Package app wires configuration, storage, providers and the HTTP server into
// the telcd application used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"telc-go/internal/config"
	"telc-go/internal/database"
	"telc-go/internal/database/migrations"
	"telc-go/internal/metrics"
	"telc-go/internal/model"
	"telc-go/internal/provider"
	"telc-go/internal/quality"
	"telc-go/internal/server"
	"telc-go/internal/translation"
)

// TelcApp is the application layer between the CLI and the translation
// service. It constructs all dependencies from config and manages the DB and
// log file lifecycle on Close.
type TelcApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	chain   *provider.Chain
	service *translation.Service
	metrics *metrics.Metrics
	log     zerolog.Logger
	op      *Operation
	logFile *os.File
}

// NewTelcApp creates a fully wired TelcApp from the given config.
// operation identifies the CLI command being run (e.g. "Serve", "ImportExams").
// The caller must call Close when done.
func NewTelcApp(cfg *config.Config, operation string) (*TelcApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := NewOperation(operation, time.Now())
	logger, logFile, err := newLogger(cfg.Log, cfg.LogDir, op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	providers, skipped, err := provider.NewFromConfig(context.Background(), cfg.Providers)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating providers: %w", err)
	}
	for _, name := range skipped {
		logger.Warn().Str("provider", name).Msg("provider not configured, skipping")
	}

	m := metrics.New()
	chain := provider.NewChain(providers...).WithObserver(func(name string, err error) {
		m.RecordProviderAttempt(name, err)
		if err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("provider attempt failed")
		}
	})
	if len(providers) == 0 {
		logger.Warn().Msg("no translation providers available, text will be returned untranslated")
	}

	svc := translation.NewService(
		db,
		chain,
		quality.NewFromConfig(cfg.Validator),
		&zerologAdapter{l: logger},
		translation.RealClock{},
		translation.UUIDGenerator{},
	).WithConcurrency(cfg.Translation.Concurrency).WithRecorder(m)

	logger.Info().
		Str("operation", op.Name).
		Strs("providers", chain.Names()).
		Str("database", cfg.Database.Type).
		Msg("telcd started")

	return &TelcApp{
		cfg:     cfg,
		db:      db,
		chain:   chain,
		service: svc,
		metrics: m,
		log:     logger,
		op:      op,
		logFile: logFile,
	}, nil
}

// openDatabase opens the configured database. In-memory databases are migrated
// on open; file databases must already be at the latest schema version.
func openDatabase(cfg config.DatabaseConfig) (*database.SQLiteDatabase, error) {
	db, err := database.NewDatabaseFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if cfg.Type == "memory" {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run 'telcd migrate'): %w", err)
	}
	return db, nil
}

// Server builds the HTTP server for the configured routes and limits.
func (a *TelcApp) Server() *server.Server {
	var limiter middleware.RateLimiterStore
	var retryAfter time.Duration
	if !a.cfg.RateLimit.Disabled {
		window := time.Duration(a.cfg.RateLimit.WindowSeconds) * time.Second
		limiter = server.NewRateLimiterStore(a.cfg.RateLimit.Requests, window)
		retryAfter = window / time.Duration(a.cfg.RateLimit.Requests)
	}

	return server.New(server.Config{
		BasePath:       a.cfg.Server.BasePath,
		FrontendOrigin: a.cfg.Server.FrontendOrigin,
		BodyLimit:      a.cfg.Server.BodyLimit,
		AdminToken:     a.cfg.Server.AdminToken,
		Debug:          a.cfg.Server.Debug,
		RetryAfter:     retryAfter,
	}, a.service, a.db, limiter, a.metrics, a.log)
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *TelcApp) Serve(ctx context.Context) error {
	if a.cfg.Server.AdminToken == "" && !a.cfg.Server.Debug {
		a.log.Warn().Msg("no admin token configured, exam writes and exam translation are disabled")
	}
	return a.Server().Run(ctx, a.cfg.Server.Addr)
}

// ImportExams reads one or more YAML exam documents from path and stores each
// as a new exam. It returns the created exams in document order.
func (a *TelcApp) ImportExams(ctx context.Context, path string) ([]*model.Exam, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening exam file: %w", err)
	}
	defer f.Close()

	exams, err := decodeExams(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	for i, exam := range exams {
		if err := a.db.CreateExam(ctx, exam); err != nil {
			return exams[:i], fmt.Errorf("creating exam %q: %w", exam.Title, err)
		}
		a.log.Info().Int64("exam_id", exam.ID).Str("title", exam.Title).Msg("exam imported")
	}
	return exams, nil
}

// decodeExams decodes a stream of YAML documents separated by "---".
func decodeExams(r io.Reader) ([]*model.Exam, error) {
	dec := yaml.NewDecoder(r)
	var exams []*model.Exam
	for n := 1; ; n++ {
		var exam model.Exam
		err := dec.Decode(&exam)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		exam.Title = strings.TrimSpace(exam.Title)
		if exam.Title == "" {
			return nil, fmt.Errorf("document %d: title required", n)
		}
		exams = append(exams, &exam)
	}
	if len(exams) == 0 {
		return nil, errors.New("no exam documents found")
	}
	return exams, nil
}

// ListExams returns all stored exams, oldest first.
func (a *TelcApp) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	return a.db.ListExams(ctx)
}

// TranslateExam translates a stored exam, using the caches.
func (a *TelcApp) TranslateExam(ctx context.Context, examID int64, sourceLang, targetLang string) (*translation.ExamTranslation, error) {
	return a.service.TranslateExam(ctx, examID, sourceLang, targetLang)
}

// Validate scores a translation with the configured quality rules.
func (a *TelcApp) Validate(original, translated, sourceLang, targetLang string) quality.Result {
	return a.service.Validate(original, translated, sourceLang, targetLang)
}

// Close closes the database and the log file.
func (a *TelcApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	a.log.Info().
		Str("operation", a.op.Name).
		Dur("elapsed", a.op.Elapsed(time.Now())).
		Msg("telcd finished")

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// Migrate brings the configured database to the latest schema version and
// returns the resulting status.
func Migrate(cfg config.DatabaseConfig) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return migrations.Status{}, err
	}
	return db.MigrationStatus()
}

// MigrationStatus reports the schema version of the configured database
// without changing it.
func MigrationStatus(cfg config.DatabaseConfig) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	return db.MigrationStatus()
}
