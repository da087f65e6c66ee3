package ai

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, priority []string, observers []provider.AttemptObserver, generators ...*fakeGenerator) *Service {
	t.Helper()
	registry := provider.NewRegistry[Generator](Domain)
	for _, g := range generators {
		require.NoError(t, registry.Register(g.name, g.name, g))
	}
	return NewService(registry, priority, testLogger, observers...)
}

func TestGenerateWithBestProviderFallsBack(t *testing.T) {
	openai := &fakeGenerator{name: "openai", err: stderrors.New("quota exceeded")}
	gemini := &fakeGenerator{name: "gemini", content: "Experienced engineer."}
	s := newTestService(t, []string{"openai", "gemini"}, nil, openai, gemini)

	result, err := s.GenerateWithBestProvider(context.Background(), "Write a summary", Options{MaxTokens: 1000})

	require.NoError(t, err)
	assert.Equal(t, "gemini", result.ProviderUsed)
	assert.Equal(t, "Experienced engineer.", result.Content)
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 1000, gemini.lastReq.MaxTokens)
}

func TestGenerateContentExplicitProviderDoesNotFallBack(t *testing.T) {
	openai := &fakeGenerator{name: "openai", err: stderrors.New("invalid key")}
	gemini := &fakeGenerator{name: "gemini", content: "ok"}
	s := newTestService(t, []string{"gemini", "openai"}, nil, openai, gemini)

	_, err := s.GenerateContent(context.Background(), "openai", "x", Options{})

	assert.ErrorIs(t, err, errors.ErrProviderInvocationFailed)
	assert.Equal(t, "openai", errors.ProviderOf(err))
	assert.Equal(t, 0, gemini.calls)

	_, err = s.GenerateContent(context.Background(), "claude", "x", Options{})
	assert.ErrorIs(t, err, errors.ErrProviderNotConfigured)
}

func TestGenerateContentAutoMode(t *testing.T) {
	claude := &fakeGenerator{name: "claude", content: "from claude"}
	s := newTestService(t, nil, nil, claude)

	text, err := s.GenerateContent(context.Background(), "", "x", Options{SystemPrompt: "sys", Temperature: Float(0.8)})

	require.NoError(t, err)
	assert.Equal(t, "from claude", text)
	assert.Equal(t, "sys", claude.lastReq.SystemPrompt)
	assert.Equal(t, 0.8, *claude.lastReq.Temperature)
}

func TestGenerateValidatesBeforeDispatch(t *testing.T) {
	openai := &fakeGenerator{name: "openai", content: "ok"}
	s := newTestService(t, nil, nil, openai)

	_, err := s.GenerateContent(context.Background(), "", "", Options{})

	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.Equal(t, 0, openai.calls)
}

func TestGenerateNoProviders(t *testing.T) {
	s := newTestService(t, []string{"openai"}, nil)

	_, err := s.GenerateWithBestProvider(context.Background(), "x", Options{})

	assert.ErrorIs(t, err, errors.ErrNoProvidersConfigured)
}

func TestGenerateAllProvidersFailed(t *testing.T) {
	last := stderrors.New("claude down")
	s := newTestService(t, []string{"openai", "claude"}, nil,
		&fakeGenerator{name: "openai", err: stderrors.New("openai down")},
		&fakeGenerator{name: "claude", err: last},
	)

	_, err := s.GenerateWithBestProvider(context.Background(), "x", Options{})

	assert.ErrorIs(t, err, errors.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, last)
}

type recordingUsageObserver struct {
	mu       sync.Mutex
	attempts int
	usage    map[string]TokenUsage
}

func (r *recordingUsageObserver) ObserveAttempt(context.Context, provider.Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
}

func (r *recordingUsageObserver) ObserveTokens(_ context.Context, provider string, usage TokenUsage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.usage == nil {
		r.usage = make(map[string]TokenUsage)
	}
	r.usage[provider] = usage
}

func TestGenerateReportsUsage(t *testing.T) {
	usage := &TokenUsage{InputTokens: 5, OutputTokens: 10, TotalTokens: 15}
	observer := &recordingUsageObserver{}
	s := newTestService(t, nil, []provider.AttemptObserver{observer},
		&fakeGenerator{name: "perplexity", content: "ok", usage: usage})

	result, err := s.GenerateWithBestProvider(context.Background(), "x", Options{})

	require.NoError(t, err)
	assert.Equal(t, usage, result.Usage)
	assert.Equal(t, 1, observer.attempts)
	assert.Equal(t, *usage, observer.usage["perplexity"])
}

func TestListAvailableProviders(t *testing.T) {
	s := newTestService(t, []string{"claude"}, nil,
		&fakeGenerator{name: "openai"}, &fakeGenerator{name: "claude"})

	providers := s.ListAvailableProviders()

	require.Len(t, providers, 2)
	assert.Equal(t, "openai", providers[0].ID)
	assert.True(t, providers[0].Available)
	assert.Equal(t, []string{"claude", "openai"}, s.Priority())
}

func TestBuildRegistryRegistersConfiguredBackends(t *testing.T) {
	cfg := &config.AIConfig{
		HTTPTimeout: 10 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 3, FailureThreshold: 0.6,
		},
		OpenAI: config.ChatProviderConfig{APIKey: "sk-test", Model: "gpt-4-turbo-preview", BaseURL: "https://api.openai.com/v1"},
		Claude: config.ChatProviderConfig{APIKey: "claude-key", Model: "claude-3-sonnet-20240229", BaseURL: "https://api.anthropic.com"},
		// Missing base URL makes the factory fail, so perplexity is skipped.
		Perplexity: config.ChatProviderConfig{APIKey: "pplx-key"},
	}

	registry := BuildRegistry(context.Background(), cfg, testLogger)

	assert.Equal(t, []string{ProviderOpenAI, ProviderClaude}, registry.IDs())
	assert.Equal(t, Domain, registry.Domain())

	s := NewService(registry, []string{"claude"}, testLogger)
	stats := s.CircuitBreakerStats()
	assert.Equal(t, "AI-openai", stats["openai"].(map[string]any)["name"])
	assert.Equal(t, true, stats["claude"].(map[string]any)["enabled"])
}

func TestBuildRegistryPerBackend(t *testing.T) {
	full := config.AIConfig{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  1,
		OpenAI:      config.ChatProviderConfig{APIKey: "sk-test", Model: "gpt-4-turbo-preview", BaseURL: "https://api.openai.com/v1"},
		Gemini:      config.ChatProviderConfig{APIKey: "gemini-key", Model: "gemini-1.5-pro", BaseURL: "https://generativelanguage.googleapis.com"},
		Perplexity:  config.ChatProviderConfig{APIKey: "pplx-key", Model: "llama-3.1-sonar-large-128k-online", BaseURL: "https://api.perplexity.ai"},
		Claude:      config.ChatProviderConfig{APIKey: "claude-key", Model: "claude-3-sonnet-20240229", BaseURL: "https://api.anthropic.com"},
	}

	tests := []struct {
		id    string
		clear func(c *config.AIConfig)
	}{
		{ProviderOpenAI, func(c *config.AIConfig) { c.OpenAI = config.ChatProviderConfig{} }},
		{ProviderGemini, func(c *config.AIConfig) { c.Gemini = config.ChatProviderConfig{} }},
		{ProviderPerplexity, func(c *config.AIConfig) { c.Perplexity = config.ChatProviderConfig{} }},
		{ProviderClaude, func(c *config.AIConfig) { c.Claude = config.ChatProviderConfig{} }},
	}

	for _, tt := range tests {
		t.Run(tt.id+" without credentials", func(t *testing.T) {
			cfg := full
			tt.clear(&cfg)

			registry := BuildRegistry(context.Background(), &cfg, testLogger)

			assert.False(t, registry.Has(tt.id))
			assert.Equal(t, len(tests)-1, registry.Len())
		})

		t.Run(tt.id+" with credentials", func(t *testing.T) {
			cfg := full
			for _, other := range tests {
				if other.id != tt.id {
					other.clear(&cfg)
				}
			}

			registry := BuildRegistry(context.Background(), &cfg, testLogger)

			assert.Equal(t, []string{tt.id}, registry.IDs())
			generator, ok := registry.Get(tt.id)
			require.True(t, ok)
			assert.NotNil(t, generator)
		})
	}
}
