package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/resume"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

// addOutputFlags registers the flags shared by commands that print results.
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// addProviderFlag registers --provider with completion over known ids.
func addProviderFlag(cmd *cobra.Command, target *string, ids ...string) {
	cmd.Flags().StringVarP(target, "provider", "p", "", "Provider to use without fallback (default: auto)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return ids, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput applies the configured default format and file size limit.
func resolveOutput(cmd *cobra.Command, cc *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	format, err := common.ResolveOutputFormat(cc.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return err
	}
	cc.OutputFormat = format
	cc.MaxFileSize = cfg.App.MaxFileSize
	return nil
}

// runWithServices builds the application services for one command.
func runWithServices(cmd *cobra.Command, fn func(ctx context.Context, app *appServices, cfg *config.Config, logger *errors.Logger) error) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	app, err := newAppServices(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	return fn(ctx, app, cfg, logger)
}

// runGeneration runs a file-based generation command through the shared
// command runner.
func runGeneration[Input any](
	cmd *cobra.Command,
	cc common.CommandConfig,
	args []string,
	createInput common.CreateInputFunc[Input],
	generate func(context.Context, *resume.Service, Input) (types.GenerationOutput, error),
	logDetails common.LogDetailsFunc[Input],
) error {
	return runWithServices(cmd, func(ctx context.Context, app *appServices, _ *config.Config, logger *errors.Logger) error {
		operation := func(ctx context.Context, input Input) (types.GenerationOutput, error) {
			return generate(ctx, app.Resume, input)
		}
		return common.RunAICommand(ctx, logger, cc, args, createInput, operation, logDetails)
	})
}

func parseProfile(content string) (resume.UserProfile, error) {
	var profile resume.UserProfile
	if err := json.Unmarshal([]byte(content), &profile); err != nil {
		return resume.UserProfile{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"profile file must contain a JSON user profile", err)
	}
	return profile, nil
}

func generationOutput(task resume.Task, subject string, result *ai.GenerationResult, err error) (types.GenerationOutput, error) {
	if err != nil {
		return types.GenerationOutput{}, fmt.Errorf("%s generation failed: %w", task, err)
	}
	return types.NewGenerationOutput(string(task), subject, result), nil
}

var aiProviderIDs = []string{ai.ProviderOpenAI, ai.ProviderGemini, ai.ProviderPerplexity, ai.ProviderClaude}
