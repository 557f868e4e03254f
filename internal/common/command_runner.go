package common

import (
	"context"
	"fmt"

	"resumelens/internal/errors"
)

// CreateInputFunc builds an operation input from the raw file contents,
// in the order the paths appeared on the command line.
type CreateInputFunc[In any] func(contents []string) (In, error)

// LogDetailsFunc announces the operation before it runs.
type LogDetailsFunc[In any] func(input In, cfg CommandConfig)

// EngineOperationFunc is the shape every engine entry point shares.
type EngineOperationFunc[In, Out any] func(context.Context, In) (Out, error)

// RunEngineCommand is the shared skeleton for file-driven CLI commands.
// It validates and reads the input files, assembles the operation input,
// runs the operation, and routes the result through the output handler.
func RunEngineCommand[In, Out any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[In],
	operation EngineOperationFunc[In, Out],
	logDetails LogDetailsFunc[In],
) error {
	fileProcessor := NewFileProcessor(logger)
	fileProcessor.SetMaxFileSize(cmdConfig.MaxFileSize)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
