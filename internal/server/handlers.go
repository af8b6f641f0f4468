package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"telc-go/internal/grading"
	"telc-go/internal/model"
	"telc-go/internal/translation"
)

type translateTextRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateTextResponse struct {
	Translated string `json:"translated"`
	Error      string `json:"error,omitempty"`
}

type translateExamRequest struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateExamResponse struct {
	ExamID     int64           `json:"exam_id"`
	TargetLang string          `json:"target_lang"`
	Payload    json.RawMessage `json:"payload"`
}

type translatePartsRequest struct {
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Paths      []string `json:"paths"`
}

type translatePartsResponse struct {
	Translations map[string]string        `json:"translations"`
	TargetLang   string                   `json:"target_lang"`
	QualityStats translation.QualityStats `json:"quality_stats"`
}

type submitRequest struct {
	StudentName string            `json:"student_name"`
	Answers     model.ExamAnswers `json:"answers"`
}

type submitResponse struct {
	ResultID        int64             `json:"result_id"`
	TotalScore      int               `json:"total_score"`
	MaxScore        int               `json:"max_score"`
	ScorePercentage float64           `json:"score_percentage"`
	DetailedScores  map[string]string `json:"detailed_scores"`
}

type validateRequest struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "telc B2 Exam System Backend API",
		"version": Version,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.exams.Ping(); err != nil {
		s.log.Error().Err(err).Msg("health check: database unreachable")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "ok",
	})
}

// handleTranslateText never fails the request: bad input or an internal
// failure yields an empty translation and an error message.
func (s *Server) handleTranslateText(c echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("translate text failed")
			err = c.JSON(http.StatusOK, translateTextResponse{Error: fmt.Sprint(r)})
		}
	}()

	req := translateTextRequest{SourceLang: "DE", TargetLang: "EN"}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, translateTextResponse{Error: bindMessage(err)})
	}
	translated := s.svc.TranslateText(c.Request().Context(), req.Text, req.SourceLang, req.TargetLang)
	return c.JSON(http.StatusOK, translateTextResponse{Translated: translated})
}

func (s *Server) handleTranslateExam(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	req := translateExamRequest{SourceLang: "DE", TargetLang: "EN"}
	if err := c.Bind(&req); err != nil {
		return err
	}

	tr, err := s.svc.TranslateExam(c.Request().Context(), id, req.SourceLang, req.TargetLang)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, translateExamResponse{
		ExamID:     tr.ExamID,
		TargetLang: tr.TargetLang,
		Payload:    tr.Payload,
	})
}

func (s *Server) handleTranslateParts(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	req := translatePartsRequest{SourceLang: "DE", TargetLang: "FA"}
	if err := c.Bind(&req); err != nil {
		return err
	}

	tr, err := s.svc.TranslateParts(c.Request().Context(), id, req.Paths, req.SourceLang, req.TargetLang)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, translatePartsResponse{
		Translations: tr.Translations,
		TargetLang:   tr.TargetLang,
		QualityStats: tr.Stats,
	})
}

func (s *Server) handleValidate(c echo.Context) error {
	req := validateRequest{SourceLang: "DE", TargetLang: "FA"}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Original == "" || req.Translated == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Original and translated text required"})
	}
	return c.JSON(http.StatusOK, s.svc.Validate(req.Original, req.Translated, req.SourceLang, req.TargetLang))
}

func (s *Server) handleListExams(c echo.Context) error {
	exams, err := s.exams.ListExams(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, exams)
}

func (s *Server) handleGetExam(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	exam, err := s.exams.GetExam(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if exam == nil {
		return model.ErrExamNotFound
	}
	return c.JSON(http.StatusOK, exam)
}

func (s *Server) handleCreateExam(c echo.Context) error {
	var exam model.Exam
	if err := c.Bind(&exam); err != nil {
		return err
	}
	exam.ID = 0
	exam.Title = strings.TrimSpace(exam.Title)
	if exam.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if err := s.exams.CreateExam(c.Request().Context(), &exam); err != nil {
		return err
	}
	s.log.Info().Int64("exam_id", exam.ID).Str("title", exam.Title).Msg("exam created")
	return c.JSON(http.StatusCreated, exam)
}

func (s *Server) handleUpdateExam(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	var exam model.Exam
	if err := c.Bind(&exam); err != nil {
		return err
	}
	exam.ID = id
	exam.Title = strings.TrimSpace(exam.Title)
	if exam.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if err := s.exams.UpdateExam(c.Request().Context(), &exam); err != nil {
		return err
	}
	s.log.Info().Int64("exam_id", id).Msg("exam updated")
	return c.JSON(http.StatusOK, exam)
}

func (s *Server) handleDeleteExam(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	if err := s.exams.DeleteExam(c.Request().Context(), id); err != nil {
		return err
	}
	s.log.Info().Int64("exam_id", id).Msg("exam deleted")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSubmitExam(c echo.Context) error {
	id, err := examID(c)
	if err != nil {
		return err
	}
	exam, err := s.exams.GetExam(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if exam == nil {
		return model.ErrExamNotFound
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.StudentName)
	if name == "" {
		name = "Unbekannt"
	}

	report := grading.Grade(exam, req.Answers)
	result := &model.ExamResult{
		ExamID:      id,
		StudentName: name,
		Answers:     req.Answers,
		Score:       report.ScorePercentage,
	}
	if err := s.exams.CreateResult(c.Request().Context(), result); err != nil {
		return err
	}
	s.log.Info().Int64("exam_id", id).Int64("result_id", result.ID).Int("score", report.TotalScore).Msg("exam submitted")

	return c.JSON(http.StatusOK, submitResponse{
		ResultID:        result.ID,
		TotalScore:      report.TotalScore,
		MaxScore:        report.MaxScore,
		ScorePercentage: report.ScorePercentage,
		DetailedScores:  report.Detailed(),
	})
}

func (s *Server) handleGetResult(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return model.ErrResultNotFound
	}
	result, err := s.exams.GetResult(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if result == nil {
		return model.ErrResultNotFound
	}
	return c.JSON(http.StatusOK, result)
}

func examID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "unknown exam id")
	}
	return id, nil
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
