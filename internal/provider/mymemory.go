package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMyMemoryURL is the public MyMemory endpoint.
const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory is the translation-memory service at mymemory.translated.net.
type MyMemory struct {
	endpoint string
	email    string
	http     *resty.Client
}

// NewMyMemory returns a MyMemory adapter. email is optional and raises the
// anonymous daily quota.
func NewMyMemory(endpoint, email string, timeout time.Duration) *MyMemory {
	if endpoint == "" {
		endpoint = DefaultMyMemoryURL
	}
	return &MyMemory{
		endpoint: endpoint,
		email:    email,
		http:     resty.New().SetTimeout(timeout),
	}
}

func (m *MyMemory) Name() string { return "mymemory" }

func (m *MyMemory) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var resp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}

	req := m.http.R().SetContext(ctx).
		SetQueryParam("q", text).
		SetQueryParam("langpair", apiLang(sourceLang)+"|"+apiLang(targetLang)).
		SetResult(&resp)
	if m.email != "" {
		req.SetQueryParam("de", m.email)
	}

	r, err := req.Get(m.endpoint)
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	if r.IsError() {
		return "", fmt.Errorf("mymemory translate: %s; body: %s", r.Status(), abbreviate(r.String(), 200))
	}

	t := strings.TrimSpace(resp.ResponseData.TranslatedText)
	if strings.HasPrefix(strings.ToUpper(t), "MYMEMORY WARNING") {
		return "", fmt.Errorf("mymemory quota: %s", abbreviate(t, 200))
	}
	if t == "" {
		return "", ErrNoTranslation
	}
	return t, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
