package common

import (
	"context"
	"fmt"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// CreateInputFunc defines how to create the specific AI input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc runs one generation for an input.
type AIOperationFunc[Input any] func(context.Context, Input) (types.GenerationOutput, error)

// RunAICommand encapsulates the common logic for file-based generation
// commands: read the input files, generate, report token usage and write
// the formatted result.
func RunAICommand[Input any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	if usage := result.Usage; usage != nil {
		logger.Info("AI token usage",
			"provider", result.Provider,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
