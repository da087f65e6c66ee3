package cli

import (
	"context"
	"fmt"
	"strings"

	"resumeforge/internal/common"
	"resumeforge/internal/resume"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [profile-file]",
	Short: "Generate a resume section from a JSON user profile",
	Long: `Generate one resume section from a user profile stored as JSON, for example:

  {"name": "Ada", "jobTitle": "Backend Engineer", "skills": ["Go", "PostgreSQL"]}

Supported sections: summary, experience, skills, education, projects,
objective and achievements. Unknown sections fall back to a summary.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &generateConfig)
	},
	RunE: runGenerate,
}

var (
	generateConfig  common.CommandConfig
	generateSection string
)

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter [job-description-file] [profile-file]",
	Short: "Write a cover letter for a job description",
	Args:  cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &coverLetterConfig)
	},
	RunE: runCoverLetter,
}

var coverLetterConfig common.CommandConfig

func init() {
	generateCmd.Flags().StringVarP(&generateSection, "section", "s", string(resume.SectionSummary), "Resume section to generate")
	_ = generateCmd.RegisterFlagCompletionFunc("section", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		sections := make([]string, len(resume.Sections))
		for i, s := range resume.Sections {
			sections[i] = string(s)
		}
		return sections, cobra.ShellCompDirectiveNoFileComp
	})
	addOutputFlags(generateCmd, &generateConfig)
	addProviderFlag(generateCmd, &generateConfig.Provider, aiProviderIDs...)

	addOutputFlags(coverLetterCmd, &coverLetterConfig)
	addProviderFlag(coverLetterCmd, &coverLetterConfig.Provider, aiProviderIDs...)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	section := strings.ToLower(strings.TrimSpace(generateSection))

	createInput := func(contents []string) (resume.UserProfile, error) {
		return parseProfile(contents[0])
	}

	logDetails := func(profile resume.UserProfile, cfg common.CommandConfig) {
		logger.Info("Starting resume section generation",
			"section", section,
			"job_title", profile.JobTitle,
			"provider", cfg.Provider,
			"output_format", cfg.OutputFormat)
	}

	generate := func(ctx context.Context, svc *resume.Service, profile resume.UserProfile) (types.GenerationOutput, error) {
		result, err := svc.GenerateSection(ctx, section, profile, generateConfig.Provider)
		return generationOutput(resume.TaskSection, section, result, err)
	}

	if err := runGeneration(cmd, generateConfig, args, createInput, generate, logDetails); err != nil {
		return fmt.Errorf("failed to generate resume section: %w", err)
	}
	return nil
}

type coverLetterInput struct {
	jobDescription string
	profile        resume.UserProfile
}

func runCoverLetter(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (coverLetterInput, error) {
		if len(contents) != 2 {
			return coverLetterInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		profile, err := parseProfile(contents[1])
		if err != nil {
			return coverLetterInput{}, err
		}
		return coverLetterInput{jobDescription: contents[0], profile: profile}, nil
	}

	logDetails := func(input coverLetterInput, cfg common.CommandConfig) {
		logger.Info("Starting cover letter generation",
			"job_chars", len(input.jobDescription),
			"provider", cfg.Provider,
			"output_format", cfg.OutputFormat)
	}

	write := func(ctx context.Context, svc *resume.Service, input coverLetterInput) (types.GenerationOutput, error) {
		result, err := svc.GenerateCoverLetter(ctx, input.jobDescription, input.profile, coverLetterConfig.Provider)
		return generationOutput(resume.TaskCoverLetter, "", result, err)
	}

	if err := runGeneration(cmd, coverLetterConfig, args, createInput, write, logDetails); err != nil {
		return fmt.Errorf("failed to write cover letter: %w", err)
	}
	return nil
}
