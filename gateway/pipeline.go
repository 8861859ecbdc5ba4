package gateway

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one fallible stage of a submission pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline executes steps in order. The first failing step short-circuits the
// remainder and its error, wrapped with the step name, becomes the pipeline
// result. Typed gateway errors survive the wrapping for status mapping.
type Pipeline struct {
	logger *slog.Logger
	steps  []Step
}

// NewPipeline builds a pipeline over the given steps.
func NewPipeline(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context) error {
	for _, step := range p.steps {
		p.logger.Debug("Running pipeline step", slog.String("step", step.Name))
		if err := step.Run(ctx); err != nil {
			p.logger.Error("Pipeline step failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()))
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}
