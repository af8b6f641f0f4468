// Package provider adapts external machine translation services to a single
// Provider interface and chains them in a fixed fallback order.
package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrNoTranslation is returned when a provider answers but without a usable
// translation (empty text, or the input echoed back).
var ErrNoTranslation = errors.New("provider returned no translation")

// Provider translates a single piece of text.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Observer is told the outcome of every provider attempt. err is nil on success.
type Observer func(provider string, err error)

// Result is a successful chain translation.
type Result struct {
	Text     string
	Provider string
}

// Chain tries providers in order and returns the first usable translation.
type Chain struct {
	providers []Provider
	observe   Observer
}

// NewChain returns a Chain over providers, tried in the given order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// WithObserver sets the attempt observer and returns the chain.
func (c *Chain) WithObserver(o Observer) *Chain {
	c.observe = o
	return c
}

// Names lists the provider names in fallback order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Translate asks each provider in turn. Errors, empty answers and answers equal
// to the input fall through to the next provider without retry. It reports
// false when no provider produced a translation.
func (c *Chain) Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, bool) {
	input := strings.TrimSpace(text)
	if input == "" {
		return Result{}, false
	}

	for _, p := range c.providers {
		if ctx.Err() != nil {
			return Result{}, false
		}

		out, err := p.Translate(ctx, input, sourceLang, targetLang)
		if err == nil {
			out = strings.TrimSpace(out)
			if out == "" || out == input {
				err = ErrNoTranslation
			}
		}
		if c.observe != nil {
			c.observe(p.Name(), err)
		}
		if err == nil {
			return Result{Text: out, Provider: p.Name()}, true
		}
	}
	return Result{}, false
}

// apiLang converts a language code to the lower-case form the services expect.
func apiLang(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
