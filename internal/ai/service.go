package ai

import (
	"context"

	"resumeforge/internal/errors"
	"resumeforge/internal/provider"
)

// UsageObserver receives the token usage of successful generations.
// Attempt observers passed to NewService that also implement it are
// registered for both.
type UsageObserver interface {
	ObserveTokens(ctx context.Context, provider string, usage TokenUsage)
}

// Service handles AI generation over the provider registry
type Service struct {
	dispatcher *provider.Dispatcher[Generator]
	usage      []UsageObserver
	logger     *errors.Logger
}

// NewService creates a service dispatching over registry with the given
// auto-mode priority.
func NewService(registry *provider.Registry[Generator], priority []string, logger *errors.Logger, observers ...provider.AttemptObserver) *Service {
	var usage []UsageObserver
	for _, o := range observers {
		if u, ok := o.(UsageObserver); ok {
			usage = append(usage, u)
		}
	}

	return &Service{
		dispatcher: provider.NewDispatcher(registry, priority, logger, observers...),
		usage:      usage,
		logger:     logger,
	}
}

// Generate runs req against the preferred provider, or in auto mode when
// preferred is empty.
func (s *Service) Generate(ctx context.Context, req GenerationRequest, preferred string) (*GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var completion *Completion
	used, err := s.dispatcher.Dispatch(ctx, preferred, func(ctx context.Context, g Generator) error {
		c, err := g.Generate(ctx, req)
		if err != nil {
			return err
		}
		completion = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completion.Usage != nil {
		for _, u := range s.usage {
			u.ObserveTokens(ctx, used, *completion.Usage)
		}
	}

	s.logger.Debug("AI generation completed",
		"provider_used", used,
		"model", completion.Model,
		"content_length", len(completion.Content))

	return &GenerationResult{
		Content:      completion.Content,
		ProviderUsed: used,
		Model:        completion.Model,
		Usage:        completion.Usage,
	}, nil
}

// GenerateContent generates text with the given provider. An empty provider
// selects auto mode.
func (s *Service) GenerateContent(ctx context.Context, providerID, prompt string, opts Options) (string, error) {
	result, err := s.Generate(ctx, opts.Request(prompt), providerID)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// GenerateWithBestProvider tries providers in priority order until one
// succeeds.
func (s *Service) GenerateWithBestProvider(ctx context.Context, prompt string, opts Options) (*GenerationResult, error) {
	return s.Generate(ctx, opts.Request(prompt), "")
}

// ListAvailableProviders returns the registered providers in registration order.
func (s *Service) ListAvailableProviders() []provider.Descriptor {
	return s.dispatcher.Registry().List()
}

// Priority returns the effective auto-mode order.
func (s *Service) Priority() []string {
	return s.dispatcher.Order()
}

// CircuitBreakerStats reports breaker state per registered provider.
func (s *Service) CircuitBreakerStats() map[string]any {
	registry := s.dispatcher.Registry()
	stats := make(map[string]any, registry.Len())
	for _, id := range registry.IDs() {
		g, _ := registry.Get(id)
		stats[id] = BreakerStats(g)
	}
	return stats
}
