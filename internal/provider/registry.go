// Package provider holds the registry and dispatcher shared by the AI and
// storage layers. The type parameter is the backend capability interface.
package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"resumeforge/internal/errors"
)

// Descriptor describes a registered backend.
type Descriptor struct {
	ID          string `json:"key"`
	DisplayName string `json:"name"`
	Available   bool   `json:"available"`
}

// Candidate is a backend kind considered at build time. Factory is only
// called when Configured is true.
type Candidate[T any] struct {
	ID          string
	DisplayName string
	Configured  bool
	Factory     func() (T, error)
}

// Entry is a registered backend.
type Entry[T any] struct {
	Descriptor
	Backend T
}

// Registry maps provider ids to backends in registration order. It is
// populated once and only read afterwards, so it needs no locking.
type Registry[T any] struct {
	domain  string
	entries []Entry[T]
	index   map[string]int
}

func NewRegistry[T any](domain string) *Registry[T] {
	return &Registry[T]{
		domain: domain,
		index:  make(map[string]int),
	}
}

// Build registers every configured candidate in order. A backend whose
// factory fails is left out, the same as one without credentials.
func Build[T any](domain string, candidates []Candidate[T], logger *errors.Logger) *Registry[T] {
	r := NewRegistry[T](domain)

	for _, c := range candidates {
		if !c.Configured {
			logger.Debug("Provider not configured, skipping", "domain", domain, "provider", c.ID)
			continue
		}

		backend, err := c.Factory()
		if err != nil {
			logger.LogError(err, "Failed to initialize provider", "domain", domain, "provider", c.ID)
			continue
		}

		if err := r.Register(c.ID, c.DisplayName, backend); err != nil {
			logger.Warn("Duplicate provider ignored", "domain", domain, "provider", c.ID)
			continue
		}
		logger.Info("Provider registered", "domain", domain, "provider", c.ID, "name", c.DisplayName)
	}

	return r
}

// Register adds a backend. It must not be called once the registry is shared.
// The id is kept as given; lookups ignore case and surrounding space.
func (r *Registry[T]) Register(id, displayName string, backend T) error {
	id = strings.TrimSpace(id)
	key := NormalizeID(id)
	if key == "" {
		return fmt.Errorf("%s provider id must not be empty", r.domain)
	}
	if _, exists := r.index[key]; exists {
		return fmt.Errorf("%s provider %q already registered", r.domain, id)
	}

	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry[T]{
		Descriptor: Descriptor{ID: id, DisplayName: displayName, Available: true},
		Backend:    backend,
	})
	return nil
}

func (r *Registry[T]) Domain() string {
	return r.domain
}

// List returns the registered providers in registration order.
func (r *Registry[T]) List() []Descriptor {
	result := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		result[i] = e.Descriptor
	}
	return result
}

func (r *Registry[T]) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

func (r *Registry[T]) Len() int {
	return len(r.entries)
}

func (r *Registry[T]) Has(id string) bool {
	_, ok := r.index[NormalizeID(id)]
	return ok
}

// Resolve returns the id a provider was registered under.
func (r *Registry[T]) Resolve(id string) (string, bool) {
	i, ok := r.index[NormalizeID(id)]
	if !ok {
		return "", false
	}
	return r.entries[i].ID, true
}

func (r *Registry[T]) Get(id string) (T, bool) {
	i, ok := r.index[NormalizeID(id)]
	if !ok {
		var zero T
		return zero, false
	}
	return r.entries[i].Backend, true
}

// Invoke runs fn against one backend. No retries happen here.
func (r *Registry[T]) Invoke(ctx context.Context, id string, fn func(context.Context, T) error) error {
	i, ok := r.index[NormalizeID(id)]
	if !ok {
		return errors.NewProviderNotConfigured(strings.TrimSpace(id))
	}
	entry := r.entries[i]

	if err := fn(ctx, entry.Backend); err != nil {
		if stderrors.Is(err, errors.ErrProviderInvocationFailed) {
			return err
		}
		return errors.NewProviderInvocationFailed(entry.ID, err)
	}
	return nil
}

// NormalizeID lowercases and trims a provider id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
