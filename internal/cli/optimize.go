package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/resume"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Rewrite a resume for applicant tracking systems",
	Long: `Rewrite a resume so it parses well in applicant tracking systems and
matches the keywords of a job description, without inventing experience.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &optimizeConfig)
	},
	RunE: runOptimize,
}

var optimizeConfig common.CommandConfig

var suggestCmd = &cobra.Command{
	Use:   "suggest [content-file]",
	Short: "Suggest improvements for a resume section",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &suggestConfig)
	},
	RunE: runSuggest,
}

var (
	suggestConfig      common.CommandConfig
	suggestSection     string
	suggestProfileFile string
)

func init() {
	addOutputFlags(optimizeCmd, &optimizeConfig)
	addProviderFlag(optimizeCmd, &optimizeConfig.Provider, aiProviderIDs...)

	suggestCmd.Flags().StringVarP(&suggestSection, "section", "s", "", "Resume section the content belongs to (required)")
	suggestCmd.Flags().StringVar(&suggestProfileFile, "profile", "", "Optional JSON user profile for context")
	_ = suggestCmd.MarkFlagRequired("section")
	addOutputFlags(suggestCmd, &suggestConfig)
	addProviderFlag(suggestCmd, &suggestConfig.Provider, aiProviderIDs...)
}

type optimizeInput struct {
	resumeText     string
	jobDescription string
}

func runOptimize(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (optimizeInput, error) {
		if len(contents) != 2 {
			return optimizeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return optimizeInput{resumeText: contents[0], jobDescription: contents[1]}, nil
	}

	logDetails := func(input optimizeInput, cfg common.CommandConfig) {
		logger.Info("Starting ATS optimization",
			"resume_chars", len(input.resumeText),
			"job_chars", len(input.jobDescription),
			"provider", cfg.Provider,
			"output_format", cfg.OutputFormat)
	}

	optimize := func(ctx context.Context, svc *resume.Service, input optimizeInput) (types.GenerationOutput, error) {
		result, err := svc.OptimizeForATS(ctx, input.resumeText, input.jobDescription, optimizeConfig.Provider)
		return generationOutput(resume.TaskATSOptimization, "", result, err)
	}

	if err := runGeneration(cmd, optimizeConfig, args, createInput, optimize, logDetails); err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}
	return nil
}

type suggestInput struct {
	content string
	profile *resume.UserProfile
}

func runSuggest(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	files := args
	if suggestProfileFile != "" {
		files = append([]string{args[0]}, suggestProfileFile)
	}

	createInput := func(contents []string) (suggestInput, error) {
		input := suggestInput{content: contents[0]}
		if len(contents) > 1 {
			profile, err := parseProfile(contents[1])
			if err != nil {
				return suggestInput{}, err
			}
			input.profile = &profile
		}
		return input, nil
	}

	logDetails := func(input suggestInput, cfg common.CommandConfig) {
		logger.Info("Starting suggestion generation",
			"section", suggestSection,
			"content_chars", len(input.content),
			"with_profile", input.profile != nil,
			"output_format", cfg.OutputFormat)
	}

	suggest := func(ctx context.Context, svc *resume.Service, input suggestInput) (types.GenerationOutput, error) {
		result, err := svc.Suggest(ctx, suggestSection, input.content, input.profile, suggestConfig.Provider)
		return generationOutput(resume.TaskSuggestions, suggestSection, result, err)
	}

	if err := runGeneration(cmd, suggestConfig, files, createInput, suggest, logDetails); err != nil {
		return fmt.Errorf("failed to generate suggestions: %w", err)
	}
	return nil
}
