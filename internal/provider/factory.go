package provider

import (
	"context"
	"fmt"
	"time"

	"telc-go/internal/config"
)

var defaultTimeouts = map[string]time.Duration{
	"mymemory":       15 * time.Second,
	"libretranslate": 20 * time.Second,
	"llm":            25 * time.Second,
}

// NewFromConfig creates the configured providers in order. Providers that lack
// the endpoint or credentials they need are skipped and reported by type.
func NewFromConfig(ctx context.Context, cfgs []config.ProviderConfig) ([]Provider, []string, error) {
	var providers []Provider
	var skipped []string

	for i, cfg := range cfgs {
		timeout := defaultTimeouts[cfg.Type]
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}

		switch cfg.Type {
		case "mymemory":
			providers = append(providers, NewMyMemory(cfg.Endpoint, cfg.Email, timeout))
		case "libretranslate":
			if cfg.Endpoint == "" {
				skipped = append(skipped, cfg.Type)
				continue
			}
			providers = append(providers, NewLibreTranslate(cfg.Endpoint, cfg.APIKey, timeout))
		case "llm":
			if cfg.APIKey == "" {
				skipped = append(skipped, cfg.Type)
				continue
			}
			p, err := NewLLM(ctx, LLMConfig{
				BaseURL:  cfg.Endpoint,
				APIKey:   cfg.APIKey,
				Model:    cfg.Model,
				SiteURL:  cfg.SiteURL,
				SiteName: cfg.SiteName,
				Timeout:  timeout,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("providers[%d]: %w", i, err)
			}
			providers = append(providers, p)
		default:
			return nil, nil, fmt.Errorf("providers[%d]: unknown provider type: %s", i, cfg.Type)
		}
	}
	return providers, skipped, nil
}
