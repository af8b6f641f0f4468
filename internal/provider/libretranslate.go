package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultLibreTranslateURL is the public LibreTranslate instance.
const DefaultLibreTranslateURL = "https://libretranslate.com/translate"

// LibreTranslate talks to a LibreTranslate server, public or self-hosted.
type LibreTranslate struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

// NewLibreTranslate returns an adapter posting to endpoint (the full
// /translate URL).
func NewLibreTranslate(endpoint, apiKey string, timeout time.Duration) *LibreTranslate {
	return &LibreTranslate{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     resty.New().SetTimeout(timeout),
	}
}

func (l *LibreTranslate) Name() string { return "libretranslate" }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (l *LibreTranslate) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var resp, errResp libreResponse

	r, err := l.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(libreRequest{
			Q:      text,
			Source: apiLang(sourceLang),
			Target: apiLang(targetLang),
			Format: "text",
			APIKey: l.apiKey,
		}).
		SetResult(&resp).
		SetError(&errResp).
		Post(l.endpoint)
	if err != nil {
		return "", fmt.Errorf("libretranslate request: %w", err)
	}
	if r.IsError() {
		if errResp.Error != "" {
			return "", fmt.Errorf("libretranslate translate: %s: %s", r.Status(), errResp.Error)
		}
		return "", fmt.Errorf("libretranslate translate: %s; body: %s", r.Status(), abbreviate(r.String(), 200))
	}

	t := strings.TrimSpace(resp.TranslatedText)
	if t == "" {
		return "", ErrNoTranslation
	}
	return t, nil
}
