package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultLLMBaseURL is the OpenRouter OpenAI-compatible API root.
const DefaultLLMBaseURL = "https://openrouter.ai/api/v1"

// DefaultLLMModel is used when no model is configured.
const DefaultLLMModel = "openai/gpt-oss-20b:free"

// generator is the part of an eino chat model the adapter needs.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMConfig configures an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	SiteURL  string
	SiteName string
	Timeout  time.Duration
}

// LLM translates with a chat completion model and a fixed translator prompt.
type LLM struct {
	chat generator
}

// NewLLM builds an LLM adapter on an eino OpenAI chat model.
func NewLLM(ctx context.Context, cfg LLMConfig) (*LLM, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLLMBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &attributionTransport{
				base:     http.DefaultTransport,
				siteURL:  cfg.SiteURL,
				siteName: cfg.SiteName,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return &LLM{chat: chat}, nil
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := l.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt(sourceLang, targetLang)),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if resp == nil {
		return "", ErrNoTranslation
	}

	t := strings.TrimSpace(resp.Content)
	if t == "" {
		return "", ErrNoTranslation
	}
	return t, nil
}

func systemPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"You are a professional translator. Translate the user text accurately from %s to %s. "+
			"Return only the translated text without explanations.",
		strings.ToUpper(sourceLang), strings.ToUpper(targetLang))
}

// attributionTransport adds the OpenRouter app attribution headers.
type attributionTransport struct {
	base     http.RoundTripper
	siteURL  string
	siteName string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.siteURL == "" && t.siteName == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	if t.siteURL != "" {
		req.Header.Set("HTTP-Referer", t.siteURL)
	}
	if t.siteName != "" {
		req.Header.Set("X-Title", t.siteName)
	}
	return t.base.RoundTrip(req)
}
