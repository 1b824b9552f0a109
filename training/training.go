// Package training holds the pieces an external training loop plugs in: extensions invoked
// around each iteration, and the lookup of the optimizers they adjust.
//
// The loop owns the extensions (and so their state) and calls them from a single goroutine:
// Initialize once before the first iteration (also when resuming from a checkpoint), then Step
// exactly once after each completed iteration.
package training

import (
	"github.com/gomlx/go-ner/optimizer"
	"github.com/pkg/errors"
)

// MainOptimizer is the name of the optimizer extensions use by default.
const MainOptimizer = "main"

// Trainer is the view of the training loop that extensions need.
type Trainer interface {
	// Optimizer returns the optimizer registered with the given name.
	Optimizer(name string) (optimizer.Optimizer, error)
}

// Extension is invoked by the training loop.
type Extension interface {
	// Initialize is called once before the training loop starts, or resumes.
	Initialize(trainer Trainer) error

	// Step is called once after each completed iteration.
	Step(trainer Trainer) error
}

// Optimizers implements Trainer with a fixed set of named optimizers.
type Optimizers map[string]optimizer.Optimizer

// Compile time assert that Optimizers implements Trainer interface.
var _ Trainer = Optimizers{}

// Optimizer implements Trainer.
func (o Optimizers) Optimizer(name string) (optimizer.Optimizer, error) {
	opt, found := o[name]
	if !found {
		return nil, errors.Errorf("no optimizer named %q", name)
	}
	return opt, nil
}
