package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/resume"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file]",
	Short: "Analyze a job description for requirements and keywords",
	Long: `Analyze a job description and break it down into the information a job
seeker needs to tailor an application.

The analysis includes:
- Key requirements and qualifications
- Important skills and keywords
- Company culture indicators
- Application strategy tips
- Interview preparation points`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &analyzeConfig)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
	addProviderFlag(analyzeCmd, &analyzeConfig.Provider, aiProviderIDs...)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(jobDescription string, cfg common.CommandConfig) {
		logger.Info("Starting job description analysis",
			"job_chars", len(jobDescription),
			"provider", cfg.Provider,
			"output_format", cfg.OutputFormat)
	}

	analyze := func(ctx context.Context, svc *resume.Service, jobDescription string) (types.GenerationOutput, error) {
		result, err := svc.AnalyzeJob(ctx, jobDescription, analyzeConfig.Provider)
		return generationOutput(resume.TaskJobAnalysis, "", result, err)
	}

	if err := runGeneration(cmd, analyzeConfig, args, createInput, analyze, logDetails); err != nil {
		return fmt.Errorf("failed to analyze job description: %w", err)
	}
	logger.Info("Job description analysis completed successfully")
	return nil
}
