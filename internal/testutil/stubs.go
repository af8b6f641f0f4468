package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential IDs: "id-1", "id-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// StubProvider is a scripted translation provider. Texts found in Replies are
// translated to the mapped value; anything else gets Err, or Prefix prepended
// when Err is nil. Safe for concurrent use.
type StubProvider struct {
	ProviderName string
	Replies      map[string]string
	Prefix       string
	Err          error

	mu    sync.Mutex
	calls []string
}

// NewStubProvider returns a provider named name that answers from replies and
// fails everything else.
func NewStubProvider(name string, replies map[string]string) *StubProvider {
	return &StubProvider{
		ProviderName: name,
		Replies:      replies,
		Err:          fmt.Errorf("%s: no scripted reply", name),
	}
}

func (p *StubProvider) Name() string { return p.ProviderName }

func (p *StubProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, text)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply, ok := p.Replies[text]; ok {
		return reply, nil
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Prefix + text, nil
}

// Calls returns the texts the provider was asked to translate, in call order.
func (p *StubProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallCount returns how many times Translate was called.
func (p *StubProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
