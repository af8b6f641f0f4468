// Package server exposes the exam and translation API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"telc-go/internal/metrics"
	"telc-go/internal/model"
	"telc-go/internal/quality"
	"telc-go/internal/translation"
)

// Version is reported by the root health endpoint.
const Version = "1.0.0"

// Translator is the translation service the handlers call.
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) string
	TranslateExam(ctx context.Context, examID int64, sourceLang, targetLang string) (*translation.ExamTranslation, error)
	TranslateParts(ctx context.Context, examID int64, paths []string, sourceLang, targetLang string) (*translation.PartsTranslation, error)
	Validate(original, translated, sourceLang, targetLang string) quality.Result
}

// ExamStore is the exam and result persistence the handlers call. Lookups return nil, nil
// for unknown ids; updates and deletes return model.ErrExamNotFound.
type ExamStore interface {
	ListExams(ctx context.Context) ([]model.ExamSummary, error)
	GetExam(ctx context.Context, id int64) (*model.Exam, error)
	CreateExam(ctx context.Context, exam *model.Exam) error
	UpdateExam(ctx context.Context, exam *model.Exam) error
	DeleteExam(ctx context.Context, id int64) error
	CreateResult(ctx context.Context, r *model.ExamResult) error
	GetResult(ctx context.Context, id int64) (*model.ExamResult, error)
	Ping() error
}

// Config holds the HTTP settings of the server.
type Config struct {
	BasePath       string
	FrontendOrigin string
	BodyLimit      string
	AdminToken     string
	Debug          bool
	// RetryAfter is advertised to clients that hit the rate limit.
	RetryAfter time.Duration
}

// Server is the HTTP API.
type Server struct {
	echo    *echo.Echo
	cfg     Config
	svc     Translator
	exams   ExamStore
	limiter middleware.RateLimiterStore
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New builds the server and registers all routes. A nil limiter disables rate
// limiting; a nil m disables metrics.
func New(cfg Config, svc Translator, exams ExamStore, limiter middleware.RateLimiterStore, m *metrics.Metrics, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		cfg:     cfg,
		svc:     svc,
		exams:   exams,
		limiter: limiter,
		metrics: m,
		log:     log,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(s.requestLogger())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(permissionsPolicy)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		MaxAge:       600,
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	api := s.echo.Group(s.cfg.BasePath)

	api.POST("/translate", s.handleTranslateText)
	api.POST("/translation/validate", s.handleValidate)
	api.POST("/exams/:id/translate", s.handleTranslateExam, s.requireAdmin, s.rateLimit())
	api.POST("/exams/:id/translate_parts", s.handleTranslateParts)

	api.GET("/exams", s.handleListExams)
	api.GET("/exams/:id", s.handleGetExam)
	api.POST("/exams", s.handleCreateExam, s.requireAdmin)
	api.PUT("/exams/:id", s.handleUpdateExam, s.requireAdmin)
	api.DELETE("/exams/:id", s.handleDeleteExam, s.requireAdmin)

	api.POST("/exams/:id/submit", s.handleSubmitExam, s.rateLimit())
	api.GET("/results/:id", s.handleGetResult)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Whole-exam translations call slow providers field by field.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("base_path", s.cfg.BasePath).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
