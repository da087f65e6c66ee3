package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumeforge/internal/errors"
)

// Mode tells how a provider was selected.
type Mode string

const (
	ModeExplicit Mode = "explicit"
	ModeAuto     Mode = "auto"
	ModeFanOut   Mode = "fanout"
)

// Attempt records one backend invocation.
type Attempt struct {
	Domain   string
	Provider string
	Mode     Mode
	Duration time.Duration
	Err      error
}

// AttemptObserver receives every attempt made by a Dispatcher.
// Implementations must not block.
type AttemptObserver interface {
	ObserveAttempt(ctx context.Context, attempt Attempt)
}

// Dispatcher selects backends from a Registry.
//
// With a preferred provider the call is all-or-nothing: an unregistered
// provider fails with ProviderNotConfigured and a failing one returns its
// error. Without a preference the registered providers are tried in
// priority order, then in registration order, until one succeeds.
type Dispatcher[T any] struct {
	registry  *Registry[T]
	priority  []string
	logger    *errors.Logger
	observers []AttemptObserver
}

func NewDispatcher[T any](registry *Registry[T], priority []string, logger *errors.Logger, observers ...AttemptObserver) *Dispatcher[T] {
	var active []AttemptObserver
	for _, o := range observers {
		if o != nil {
			active = append(active, o)
		}
	}

	return &Dispatcher[T]{
		registry:  registry,
		priority:  priority,
		logger:    logger,
		observers: active,
	}
}

func (d *Dispatcher[T]) Registry() *Registry[T] {
	return d.registry
}

// Order returns the auto-mode attempt order: registered providers from the
// priority list first, then the remaining ones in registration order.
func (d *Dispatcher[T]) Order() []string {
	order := make([]string, 0, d.registry.Len())
	seen := make(map[string]bool, d.registry.Len())

	for _, want := range d.priority {
		if id, ok := d.registry.Resolve(want); ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for _, id := range d.registry.IDs() {
		if !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	return order
}

// Dispatch runs fn against the preferred provider, or against providers in
// auto-mode order when preferred is empty. It returns the provider used.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, preferred string, fn func(context.Context, T) error) (string, error) {
	domain := d.registry.Domain()

	if d.registry.Len() == 0 {
		return "", errors.NewNoProvidersConfigured(domain)
	}

	if preferred = strings.TrimSpace(preferred); preferred != "" {
		id, ok := d.registry.Resolve(preferred)
		if !ok {
			return "", errors.NewProviderNotConfigured(preferred)
		}
		if err := d.attempt(ctx, id, ModeExplicit, fn); err != nil {
			return "", err
		}
		return id, nil
	}

	var lastErr error
	for i, id := range d.Order() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s dispatch cancelled: %w", domain, err)
		}

		err := d.attempt(ctx, id, ModeAuto, fn)
		if err == nil {
			if i > 0 {
				d.logger.Info("Fallback provider succeeded", "domain", domain, "provider_used", id, "failed_attempts", i)
			}
			return id, nil
		}

		d.logger.Warn("Provider failed, trying next provider",
			"domain", domain,
			"provider", id,
			"error", err.Error())
		lastErr = err
	}

	return "", errors.NewAllProvidersFailed(domain, lastErr)
}

// Invoke runs fn against exactly one provider, without fallback.
func (d *Dispatcher[T]) Invoke(ctx context.Context, id string, fn func(context.Context, T) error) error {
	registered, ok := d.registry.Resolve(id)
	if !ok {
		return errors.NewProviderNotConfigured(strings.TrimSpace(id))
	}
	return d.attempt(ctx, registered, ModeExplicit, fn)
}

// FanOut runs fn against every registered provider in registration order
// and reports which succeeded. Failures are logged and collected.
func (d *Dispatcher[T]) FanOut(ctx context.Context, fn func(context.Context, T) error) ([]string, []error) {
	var (
		succeeded []string
		failures  []error
	)

	for _, id := range d.registry.IDs() {
		if err := d.attempt(ctx, id, ModeFanOut, fn); err != nil {
			d.logger.Warn("Provider failed during fan-out", "domain", d.registry.Domain(), "provider", id, "error", err.Error())
			failures = append(failures, err)
			continue
		}
		succeeded = append(succeeded, id)
	}

	return succeeded, failures
}

func (d *Dispatcher[T]) attempt(ctx context.Context, id string, mode Mode, fn func(context.Context, T) error) error {
	start := time.Now()
	err := d.registry.Invoke(ctx, id, fn)

	attempt := Attempt{
		Domain:   d.registry.Domain(),
		Provider: id,
		Mode:     mode,
		Duration: time.Since(start),
		Err:      err,
	}
	for _, o := range d.observers {
		o.ObserveAttempt(ctx, attempt)
	}

	return err
}
