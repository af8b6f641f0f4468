package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telc-go/internal/database"
	"telc-go/internal/metrics"
	"telc-go/internal/provider"
	"telc-go/internal/quality"
	"telc-go/internal/testutil"
	"telc-go/internal/translation"
)

type testServer struct {
	srv      *Server
	db       *database.SQLiteDatabase
	provider *testutil.StubProvider
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T, cfg Config, limiter ...*testLimiter) *testServer {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	p := testutil.NewStubProvider("stub", map[string]string{
		"Urlaub am Meer": "تعطیلات در دریا",
	})
	p.Err = nil
	p.Prefix = "en "

	svc := translation.NewService(
		db,
		provider.NewChain(p),
		quality.New(quality.DefaultConfig()),
		translation.NewNopLogger(),
		testutil.FixedClock(),
		testutil.NewStubIDGenerator(),
	)
	if cfg.BasePath == "" {
		cfg.BasePath = "/api"
	}
	if cfg.FrontendOrigin == "" {
		cfg.FrontendOrigin = "http://localhost:5173"
	}
	m := metrics.New()

	var srv *Server
	if len(limiter) > 0 {
		srv = New(cfg, svc, db, limiter[0], m, zerolog.Nop())
	} else {
		srv = New(cfg, svc, db, nil, m, zerolog.Nop())
	}
	return &testServer{srv: srv, db: db, provider: p, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// testLimiter allows the first n requests.
type testLimiter struct {
	n int
}

func (l *testLimiter) Allow(identifier string) (bool, error) {
	if l.n <= 0 {
		return false, nil
	}
	l.n--
	return true, nil
}

func TestServer_Root(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]string
	decode(t, rec, &got)
	if got["status"] != "healthy" || got["version"] != Version {
		t.Errorf("body = %v", got)
	}

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `telcd_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("metrics output missing health request:\n%s", rec.Body.String())
	}
}

func TestServer_TranslateText(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name      string
		body      string
		want      string
		wantError bool
	}{
		{"defaults", `{"text":"Guten Tag"}`, "en Guten Tag", false},
		{"explicit languages", `{"text":"Urlaub am Meer","source_lang":"de","target_lang":"fa"}`, "تعطیلات در دریا", false},
		{"empty text", `{"text":""}`, "", false},
		{"malformed body", `{"text":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/translate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var got translateTextResponse
			decode(t, rec, &got)
			if got.Translated != tt.want {
				t.Errorf("translated = %q, want %q", got.Translated, tt.want)
			}
			if (got.Error != "") != tt.wantError {
				t.Errorf("error = %q, wantError %v", got.Error, tt.wantError)
			}
		})
	}
}

func TestServer_Validate(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodPost, "/api/translation/validate", `{"original":"Hallo","translated":"Hallo","source_lang":"DE","target_lang":"DE"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got quality.Result
	decode(t, rec, &got)
	if got.Valid || got.Score != 0 || len(got.Issues) != 1 || got.Issues[0] != quality.IssueIdentical {
		t.Errorf("result = %+v", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/translation/validate", `{"original":"Hallo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing translated: status = %d, want 400", rec.Code)
	}
}

func TestServer_TranslateParts(t *testing.T) {
	ts := newTestServer(t, Config{})
	exam := testutil.NewTestExam(t, ts.db)

	body := `{"paths":["leseverstehen_teil1.titles[0]","nope[1]"]}`
	target := fmt.Sprintf("/api/exams/%d/translate_parts", exam.ID)

	rec := ts.do(t, http.MethodPost, target, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var first translatePartsResponse
	decode(t, rec, &first)
	if first.TargetLang != "FA" {
		t.Errorf("target_lang = %q, want FA", first.TargetLang)
	}
	if got := first.Translations["leseverstehen_teil1.titles[0]"]; got != "تعطیلات در دریا" {
		t.Errorf("translation = %q", got)
	}
	if len(first.Translations) != 1 {
		t.Errorf("translations = %v, want one entry", first.Translations)
	}

	rec = ts.do(t, http.MethodPost, target, body)
	var second translatePartsResponse
	decode(t, rec, &second)
	if second.QualityStats.CachedTranslations != 1 {
		t.Errorf("cached_translations = %d, want 1", second.QualityStats.CachedTranslations)
	}

	var raw map[string]any
	decode(t, rec, &raw)
	stats, ok := raw["quality_stats"].(map[string]any)
	if !ok {
		t.Fatalf("quality_stats missing: %v", raw)
	}
	for _, key := range []string{"total_translations", "high_quality", "good_quality", "poor_quality", "cached_translations", "average_score"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("quality_stats missing %q", key)
		}
	}
}

func TestServer_UnknownExam(t *testing.T) {
	ts := newTestServer(t, Config{Debug: true})

	for _, target := range []string{
		"/api/exams/99",
		"/api/exams/abc",
	} {
		rec := ts.do(t, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodPost, "/api/exams/99/translate_parts", `{"paths":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var got errorBody
	decode(t, rec, &got)
	if got != (errorBody{Error: "not_found", Status: 404}) {
		t.Errorf("body = %+v", got)
	}
}

func TestServer_RouteErrors(t *testing.T) {
	ts := newTestServer(t, Config{BodyLimit: "1K"})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
		code   string
	}{
		{"unknown route", http.MethodGet, "/api/nothing", "", 404, "not_found"},
		{"wrong method", http.MethodPatch, "/api/translate", "", 405, "method_not_allowed"},
		{"body too large", http.MethodPost, "/api/translate", `{"text":"` + strings.Repeat("a", 2048) + `"}`, 413, "payload_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			var got errorBody
			decode(t, rec, &got)
			if got.Error != tt.code || got.Status != tt.want {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestServer_AdminGuard(t *testing.T) {
	examBody := `{"title":"Modelltest 2","schriftlicher_ausdruck":{"task_a":"Schreiben Sie."}}`

	tests := []struct {
		name    string
		cfg     Config
		headers []string
		want    int
		code    string
	}{
		{"no token, production", Config{}, nil, 403, "admin_token_not_configured"},
		{"no token, debug", Config{Debug: true}, nil, 201, ""},
		{"missing bearer", Config{AdminToken: "secret"}, nil, 401, "unauthorized"},
		{"basic auth", Config{AdminToken: "secret"}, []string{"Authorization", "Basic c2VjcmV0"}, 401, "unauthorized"},
		{"wrong token", Config{AdminToken: "secret"}, []string{"Authorization", "Bearer nope"}, 403, "forbidden"},
		{"right token", Config{AdminToken: "secret"}, []string{"Authorization", "Bearer secret"}, 201, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.cfg)

			rec := ts.do(t, http.MethodPost, "/api/exams", examBody, tt.headers...)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.code != "" {
				var got errorBody
				decode(t, rec, &got)
				if got.Error != tt.code {
					t.Errorf("error = %q, want %q", got.Error, tt.code)
				}
			}

			if rec := ts.do(t, http.MethodGet, "/api/exams", ""); rec.Code != http.StatusOK {
				t.Errorf("GET /api/exams status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestServer_ExamCRUD(t *testing.T) {
	ts := newTestServer(t, Config{AdminToken: "secret"})
	auth := []string{"Authorization", "Bearer secret"}

	rec := ts.do(t, http.MethodPost, "/api/exams", `{"title":"  "}`, auth...)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/exams", `{"title":"Modelltest 2","leseverstehen_teil1":{"titles":["Ein Titel"]}}`, auth...)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)
	target := fmt.Sprintf("/api/exams/%d", created.ID)

	rec = ts.do(t, http.MethodGet, "/api/exams", "")
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 || list[0]["title"] != "Modelltest 2" {
		t.Errorf("list = %v", list)
	}

	rec = ts.do(t, http.MethodPut, target, `{"title":"Modelltest 2b","leseverstehen_teil1":{"titles":["Neuer Titel"]}}`, auth...)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, target, "")
	var got struct {
		Title              string `json:"title"`
		LeseverstehenTeil1 struct {
			Titles []string `json:"titles"`
		} `json:"leseverstehen_teil1"`
	}
	decode(t, rec, &got)
	if got.Title != "Modelltest 2b" || len(got.LeseverstehenTeil1.Titles) != 1 || got.LeseverstehenTeil1.Titles[0] != "Neuer Titel" {
		t.Errorf("exam = %+v", got)
	}

	rec = ts.do(t, http.MethodDelete, target, "", auth...)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodDelete, target, "", auth...)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	rec = ts.do(t, http.MethodPut, target, `{"title":"x"}`, auth...)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update after delete status = %d, want 404", rec.Code)
	}
}

func TestServer_TranslateExam(t *testing.T) {
	limiter := &testLimiter{n: 2}
	ts := newTestServer(t, Config{Debug: true, RetryAfter: 3 * time.Second}, limiter)
	exam := testutil.NewTestExam(t, ts.db)
	target := fmt.Sprintf("/api/exams/%d/translate", exam.ID)

	rec := ts.do(t, http.MethodPost, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ExamID     int64           `json:"exam_id"`
		TargetLang string          `json:"target_lang"`
		Payload    json.RawMessage `json:"payload"`
	}
	decode(t, rec, &got)
	if got.ExamID != exam.ID || got.TargetLang != "EN" {
		t.Errorf("response = %+v", got)
	}
	var payload struct {
		SchriftlicherAusdruck struct {
			TaskA string `json:"task_a"`
		} `json:"schriftlicher_ausdruck"`
	}
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.SchriftlicherAusdruck.TaskA != "en Schreiben Sie eine Beschwerde." {
		t.Errorf("task_a = %q", payload.SchriftlicherAusdruck.TaskA)
	}

	if rec := ts.do(t, http.MethodPost, target, `{"target_lang":"en"}`); rec.Code != http.StatusOK {
		t.Errorf("second request status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, target, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After = %q, want 3", got)
	}
	var limited rateLimitedBody
	decode(t, rec, &limited)
	if limited.Error != "rate_limited" || limited.RetryAfter != 3 {
		t.Errorf("body = %+v", limited)
	}
}

func TestServer_SubmitExam(t *testing.T) {
	ts := newTestServer(t, Config{})
	exam := testutil.NewTestExam(t, ts.db)
	target := fmt.Sprintf("/api/exams/%d/submit", exam.ID)

	body := `{"student_name":"Mina","answers":{"leseverstehen_teil1":["a"],"leseverstehen_teil2":["c"],"hoerverstehen":{"teil1":["+"]}}}`
	rec := ts.do(t, http.MethodPost, target, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var got submitResponse
	decode(t, rec, &got)
	if got.ResultID == 0 || got.TotalScore != 2 || got.MaxScore != 60 {
		t.Errorf("submit = %+v", got)
	}
	if got.ScorePercentage < 3.33 || got.ScorePercentage > 3.34 {
		t.Errorf("score_percentage = %v, want 2/60", got.ScorePercentage)
	}
	wantDetails := map[string]string{
		"leseverstehen_teil1": "1/5",
		"leseverstehen_teil2": "0/5",
		"hoerverstehen":       "1/20",
	}
	for section, want := range wantDetails {
		if got.DetailedScores[section] != want {
			t.Errorf("detailed_scores[%q] = %q, want %q", section, got.DetailedScores[section], want)
		}
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/results/%d", got.ResultID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		ID          int64   `json:"id"`
		ExamID      int64   `json:"exam_id"`
		StudentName string  `json:"student_name"`
		Score       float64 `json:"score"`
		Answers     struct {
			LeseverstehenTeil1 []string `json:"leseverstehen_teil1"`
		} `json:"answers"`
	}
	decode(t, rec, &result)
	if result.ID != got.ResultID || result.ExamID != exam.ID || result.StudentName != "Mina" {
		t.Errorf("result = %+v", result)
	}
	if result.Score != got.ScorePercentage {
		t.Errorf("score = %v, want %v", result.Score, got.ScorePercentage)
	}
	if len(result.Answers.LeseverstehenTeil1) != 1 || result.Answers.LeseverstehenTeil1[0] != "a" {
		t.Errorf("answers = %+v", result.Answers)
	}

	t.Run("anonymous student", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, target, `{"answers":{}}`)
		var got submitResponse
		decode(t, rec, &got)
		stored, err := ts.db.GetResult(context.Background(), got.ResultID)
		if err != nil || stored == nil {
			t.Fatalf("GetResult() = %v, %v", stored, err)
		}
		if stored.StudentName != "Unbekannt" {
			t.Errorf("StudentName = %q, want %q", stored.StudentName, "Unbekannt")
		}
	})

	t.Run("unknown exam and result", func(t *testing.T) {
		for _, path := range []string{"/api/exams/999/submit", "/api/exams/abc/submit"} {
			if rec := ts.do(t, http.MethodPost, path, `{"answers":{}}`); rec.Code != http.StatusNotFound {
				t.Errorf("POST %s status = %d, want 404", path, rec.Code)
			}
		}
		for _, path := range []string{"/api/results/999", "/api/results/x"} {
			if rec := ts.do(t, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
				t.Errorf("GET %s status = %d, want 404", path, rec.Code)
			}
		}
	})
}

// panickingTranslator fails inside TranslateText; other methods are unused.
type panickingTranslator struct {
	Translator
}

func (panickingTranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) string {
	panic("provider client misconfigured")
}

func TestServer_TranslateTextRecoversFromPanic(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	srv := New(Config{BasePath: "/api", FrontendOrigin: "http://localhost:5173"}, panickingTranslator{}, db, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{"text":"Hallo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got translateTextResponse
	decode(t, rec, &got)
	if got.Translated != "" || got.Error != "provider client misconfigured" {
		t.Errorf("response = %+v", got)
	}
}

func TestServer_CORS(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodOptions, "/api/translate", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Access-Control-Max-Age = %q", got)
	}

	rec = ts.do(t, http.MethodOptions, "/api/translate", "",
		"Origin", "http://evil.example",
		"Access-Control-Request-Method", "POST")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestNewRateLimiterStore(t *testing.T) {
	store := NewRateLimiterStore(2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := store.Allow("1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("Allow() #%d = %v, %v, want true", i+1, ok, err)
		}
	}
	if ok, _ := store.Allow("1.2.3.4"); ok {
		t.Error("Allow() over the burst = true, want false")
	}
	if ok, _ := store.Allow("5.6.7.8"); !ok {
		t.Error("Allow() for another client = false, want true")
	}
}
