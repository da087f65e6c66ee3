package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/provider"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "GenerationOutput", &GenerationTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerationOutput", &GenerationMarkdownFormatter{})
	registry.RegisterFormatter("text", "ProvidersOutput", &ProvidersFormatter{markdown: false})
	registry.RegisterFormatter("markdown", "ProvidersOutput", &ProvidersFormatter{markdown: true})
	registry.RegisterFormatter("text", "UploadOutput", &UploadFormatter{markdown: false})
	registry.RegisterFormatter("markdown", "UploadOutput", &UploadFormatter{markdown: true})
	registry.RegisterFormatter("text", "any", &KeyValueFormatter{})
	registry.RegisterFormatter("markdown", "any", &KeyValueFormatter{markdown: true})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerationOutput:
		return "GenerationOutput"
	case types.ProvidersOutput:
		return "ProvidersOutput"
	case types.UploadOutput:
		return "UploadOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

var taskTitles = map[string]string{
	"section":         "Resume Section",
	"coverLetter":     "Cover Letter",
	"atsOptimization": "ATS-Optimized Resume",
	"jobAnalysis":     "Job Analysis",
	"suggestions":     "Suggestions",
}

func titleFor(result types.GenerationOutput) string {
	title, ok := taskTitles[result.Task]
	if !ok {
		title = result.Task
	}
	if result.Subject != "" {
		title += ": " + result.Subject
	}
	return title
}

func usageLine(result types.GenerationOutput) string {
	if result.Usage == nil {
		return ""
	}
	return fmt.Sprintf("Tokens: %d input, %d output, %d total",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalTokens)
}

// GenerationTextFormatter handles text formatting for generated content
type GenerationTextFormatter struct{}

func (gtf *GenerationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerationOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerationOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("=== %s ===\n\n", strings.ToUpper(titleFor(result))))
	output.WriteString(strings.TrimSpace(result.Content))
	output.WriteString("\n\n")

	output.WriteString(fmt.Sprintf("Provider: %s\n", result.Provider))
	if result.Model != "" {
		output.WriteString(fmt.Sprintf("Model: %s\n", result.Model))
	}
	if line := usageLine(result); line != "" {
		output.WriteString(line + "\n")
	}

	return output.String(), nil
}

func (gtf *GenerationTextFormatter) SupportedType() string {
	return "GenerationOutput"
}

// GenerationMarkdownFormatter handles markdown formatting for generated content
type GenerationMarkdownFormatter struct{}

func (gmf *GenerationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerationOutput)
	if !ok {
		return "", fmt.Errorf("expected GenerationOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", titleFor(result)))
	output.WriteString(strings.TrimSpace(result.Content))
	output.WriteString("\n\n---\n\n")

	output.WriteString(fmt.Sprintf("- **Provider:** %s\n", result.Provider))
	if result.Model != "" {
		output.WriteString(fmt.Sprintf("- **Model:** %s\n", result.Model))
	}
	if line := usageLine(result); line != "" {
		output.WriteString(fmt.Sprintf("- **%s\n", strings.Replace(line, ":", ":**", 1)))
	}

	return output.String(), nil
}

func (gmf *GenerationMarkdownFormatter) SupportedType() string {
	return "GenerationOutput"
}

// ProvidersFormatter lists registered backends as text or markdown
type ProvidersFormatter struct {
	markdown bool
}

func (pf *ProvidersFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ProvidersOutput)
	if !ok {
		return "", fmt.Errorf("expected ProvidersOutput, got %T", data)
	}

	var output strings.Builder
	for i, listing := range []types.ProviderListing{result.AI, result.Storage} {
		if i > 0 {
			output.WriteString("\n")
		}
		pf.writeListing(&output, listing)
	}
	return output.String(), nil
}

func (pf *ProvidersFormatter) writeListing(output *strings.Builder, listing types.ProviderListing) {
	if pf.markdown {
		output.WriteString(fmt.Sprintf("## %s providers\n\n", strings.ToUpper(listing.Domain)))
	} else {
		output.WriteString(fmt.Sprintf("=== %s PROVIDERS ===\n", strings.ToUpper(listing.Domain)))
	}

	if len(listing.Providers) == 0 {
		output.WriteString("No providers configured\n")
		return
	}

	for _, d := range listing.Providers {
		output.WriteString(pf.providerLine(d))
	}
	if pf.markdown {
		output.WriteString(fmt.Sprintf("\n**Auto order:** %s\n", strings.Join(listing.Priority, " -> ")))
	} else {
		output.WriteString(fmt.Sprintf("Auto order: %s\n", strings.Join(listing.Priority, " -> ")))
	}
}

func (pf *ProvidersFormatter) providerLine(d provider.Descriptor) string {
	if pf.markdown {
		return fmt.Sprintf("- `%s` %s\n", d.ID, d.DisplayName)
	}
	return fmt.Sprintf("  %-12s %s\n", d.ID, d.DisplayName)
}

func (pf *ProvidersFormatter) SupportedType() string {
	return "ProvidersOutput"
}

// UploadFormatter reports stored copies and sync failures
type UploadFormatter struct {
	markdown bool
}

func (uf *UploadFormatter) Format(data any) (string, error) {
	result, ok := data.(types.UploadOutput)
	if !ok {
		return "", fmt.Errorf("expected UploadOutput, got %T", data)
	}

	var output strings.Builder
	size := utils.FormatFileSize(int64(result.Size))

	if uf.markdown {
		output.WriteString(fmt.Sprintf("# Upload (%s)\n\n", size))
		for _, ref := range result.Results {
			output.WriteString(fmt.Sprintf("- **%s** `%s`: %s\n", ref.ProviderUsed, ref.Path, ref.URL))
		}
		if len(result.Failures) > 0 {
			output.WriteString("\n## Failures\n\n")
			for _, f := range result.Failures {
				output.WriteString(fmt.Sprintf("- **%s**: %s\n", f.Provider, f.Error))
			}
		}
		return output.String(), nil
	}

	output.WriteString(fmt.Sprintf("Uploaded %s to %d provider(s)\n", size, len(result.Results)))
	for _, ref := range result.Results {
		output.WriteString(fmt.Sprintf("  %-12s %s\n  %-12s %s\n", ref.ProviderUsed, ref.Path, "", ref.URL))
	}
	for _, f := range result.Failures {
		output.WriteString(fmt.Sprintf("FAILED %s: %s\n", f.Provider, f.Error))
	}
	return output.String(), nil
}

func (uf *UploadFormatter) SupportedType() string {
	return "UploadOutput"
}

// KeyValueFormatter renders any value through its JSON field names, one
// field per line. Nested values are written as JSON.
type KeyValueFormatter struct {
	markdown bool
}

func (kf *KeyValueFormatter) Format(data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return string(raw) + "\n", nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var output strings.Builder
	for _, k := range keys {
		value := fields[k]
		if _, scalar := value.(string); !scalar {
			encoded, _ := json.Marshal(value)
			value = string(encoded)
		}
		if kf.markdown {
			output.WriteString(fmt.Sprintf("- **%s:** %v\n", k, value))
		} else {
			output.WriteString(fmt.Sprintf("%s: %v\n", k, value))
		}
	}
	return output.String(), nil
}

func (kf *KeyValueFormatter) SupportedType() string {
	return "any"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
