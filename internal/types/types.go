package types

import (
	"resumeforge/internal/ai"
	"resumeforge/internal/provider"
	"resumeforge/internal/storage"
)

// GenerationOutput represents the result of an AI-backed command
type GenerationOutput struct {
	Task     string         `json:"task"`
	Subject  string         `json:"subject,omitempty"` // Section name for generate and suggest
	Content  string         `json:"content"`
	Provider string         `json:"provider"`
	Model    string         `json:"model,omitempty"`
	Usage    *ai.TokenUsage `json:"usage,omitempty"`
}

// NewGenerationOutput wraps a generation result
func NewGenerationOutput(task, subject string, result *ai.GenerationResult) GenerationOutput {
	return GenerationOutput{
		Task:     task,
		Subject:  subject,
		Content:  result.Content,
		Provider: result.ProviderUsed,
		Model:    result.Model,
		Usage:    result.Usage,
	}
}

// ProviderListing represents the registered backends of one domain
type ProviderListing struct {
	Domain    string                `json:"domain"`
	Providers []provider.Descriptor `json:"providers"`
	Priority  []string              `json:"priority"`
}

// ProvidersOutput represents the output of the providers command
type ProvidersOutput struct {
	AI      ProviderListing `json:"ai"`
	Storage ProviderListing `json:"storage"`
}

// StorageFailure represents a backend that failed during a sync
type StorageFailure struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// UploadOutput represents the output of the upload command
type UploadOutput struct {
	Size     int                 `json:"size"`
	Results  []storage.ObjectRef `json:"results"`
	Failures []StorageFailure    `json:"failures,omitempty"`
}

// FileURLOutput represents a resolved file URL
type FileURLOutput struct {
	Provider string `json:"provider"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

// DeleteOutput represents the outcome of a delete
type DeleteOutput struct {
	Provider string `json:"provider"`
	Path     string `json:"path"`
	Deleted  bool   `json:"deleted"`
}
