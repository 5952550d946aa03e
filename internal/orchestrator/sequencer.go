package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/errors"
)

// Stage is one step of a provisioning run. A stage may only read keys it
// lists in Requires and must write every key it lists in Produces.
type Stage interface {
	Name() string
	Requires() []Key
	Produces() []Key
	Run(ctx context.Context, state *State) error
}

// StageError reports which stage aborted a run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Sequencer runs stages strictly in order
type Sequencer struct {
	stages []Stage
}

// NewSequencer creates a Sequencer over an explicit stage list
func NewSequencer(stages ...Stage) *Sequencer {
	return &Sequencer{stages: stages}
}

// Stages returns the stage list in run order
func (s *Sequencer) Stages() []Stage {
	return s.stages
}

// Validate checks that every requirement is produced by a strictly earlier
// stage and that no key is produced twice
func (s *Sequencer) Validate() error {
	producedBy := map[Key]string{}
	seen := map[string]bool{}

	for _, stage := range s.stages {
		if seen[stage.Name()] {
			return fmt.Errorf("duplicate stage %s", stage.Name())
		}
		seen[stage.Name()] = true

		for _, key := range stage.Requires() {
			if _, ok := producedBy[key]; !ok {
				return fmt.Errorf("%w: stage %s requires %s", errors.ErrMissingInput, stage.Name(), key)
			}
		}
		for _, key := range stage.Produces() {
			if prior, ok := producedBy[key]; ok {
				return fmt.Errorf("key %s produced by both %s and %s", key, prior, stage.Name())
			}
			producedBy[key] = stage.Name()
		}
	}
	return nil
}

// Run executes each stage in order. The first failure stops the run and is
// returned as a *StageError; nothing already created is rolled back.
func (s *Sequencer) Run(ctx context.Context, state *State) error {
	logger := zerolog.Ctx(ctx)

	for i, stage := range s.stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage.Name(), Err: err}
		}

		for _, key := range stage.Requires() {
			if _, ok := state.Get(key); !ok {
				return &StageError{Stage: stage.Name(), Err: fmt.Errorf("%w: %s", errors.ErrMissingInput, key)}
			}
		}

		logger.Info().
			Str("stage", stage.Name()).
			Int("step", i+1).
			Int("of", len(s.stages)).
			Msg("Starting stage")

		start := time.Now()
		if err := stage.Run(ctx, state); err != nil {
			return &StageError{Stage: stage.Name(), Err: err}
		}

		for _, key := range stage.Produces() {
			if _, ok := state.Get(key); !ok {
				return &StageError{Stage: stage.Name(), Err: fmt.Errorf("stage did not produce %s", key)}
			}
		}

		logger.Info().
			Str("stage", stage.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Completed stage")
	}
	return nil
}

// stage adapts a function into a Stage
type stage struct {
	name     string
	requires []Key
	produces []Key
	run      func(ctx context.Context, state *State) error
}

func (s stage) Name() string { return s.name }
func (s stage) Requires() []Key { return s.requires }
func (s stage) Produces() []Key { return s.produces }
func (s stage) Run(ctx context.Context, state *State) error {
	return s.run(ctx, state)
}
