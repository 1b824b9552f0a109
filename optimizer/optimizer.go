// Package optimizer builds gradient-descent optimizers from a declarative configuration.
//
// The variants here only carry their hyperparameters and hooks: the numerical update rules are
// implemented by the training framework, which reads the hyperparameters at each update.
// Hyperparameters are updated during training (see training.LearningRateDecay) through
// SetHyperparameter, which writes the corresponding named field.
package optimizer

import (
	"sort"
	"strings"

	"github.com/gomlx/go-ner/config"
	"github.com/pkg/errors"
)

// Hyperparameter names a scalar hyperparameter of an optimizer.
type Hyperparameter string

const (
	LR       Hyperparameter = "lr"
	Momentum Hyperparameter = "momentum"
	Rho      Hyperparameter = "rho"
	Alpha    Hyperparameter = "alpha"
	Beta1    Hyperparameter = "beta1"
	Beta2    Hyperparameter = "beta2"
	Eps      Hyperparameter = "eps"
)

// Optimizer is the configuration of one gradient-descent optimizer.
type Optimizer interface {
	// Name of the variant, in lower case (e.g.: "adam").
	Name() string

	// Hyperparameter returns the current value of h, or an error if the variant doesn't have it.
	Hyperparameter(h Hyperparameter) (float64, error)

	// SetHyperparameter sets the value of h, or returns an error if the variant doesn't have it.
	SetHyperparameter(h Hyperparameter, value float64) error

	// AddHook appends a hook, called on the gradients before each update.
	AddHook(hook Hook)

	// Hooks returns the hooks in the order they were added.
	Hooks() []Hook

	// CallHooks calls every hook, in order, on params.
	CallHooks(params []*Param)
}

// Constructor creates an optimizer variant from its configuration.
type Constructor func(p config.Params) (Optimizer, error)

var registerOfVariants = make(map[string]Constructor)

// RegisterVariant makes a variant available to Create. Names are case-insensitive.
func RegisterVariant(name string, constructor Constructor) {
	registerOfVariants[strings.ToLower(name)] = constructor
}

// Variants returns the registered variant names, sorted.
func Variants() []string {
	names := make([]string, 0, len(registerOfVariants))
	for name := range registerOfVariants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterVariant("sgd", func(p config.Params) (Optimizer, error) {
		lr, err := p.MustFloat("learning_rate")
		if err != nil {
			return nil, err
		}
		return NewSGD(lr), nil
	})
	RegisterVariant("momentumsgd", func(p config.Params) (Optimizer, error) {
		lr, err := p.MustFloat("learning_rate")
		if err != nil {
			return nil, err
		}
		return NewMomentumSGD(lr), nil
	})
	RegisterVariant("adadelta", func(config.Params) (Optimizer, error) {
		return NewAdaDelta(), nil
	})
	RegisterVariant("adam", func(p config.Params) (Optimizer, error) {
		var values [3]float64
		for ii, key := range []string{"alpha", "beta1", "beta2"} {
			var err error
			if values[ii], err = p.MustFloat(key); err != nil {
				return nil, err
			}
		}
		return NewAdam(values[0], values[1], values[2]), nil
	})
}

// Create builds the optimizer named by the "name" key (case-insensitive) of p:
//
//   - "sgd", "momentumsgd": require "learning_rate".
//   - "adadelta": uses its defaults.
//   - "adam": requires "alpha", "beta1" and "beta2".
//
// Unknown names and missing or non-numeric parameters fail with config.ErrConfig.
func Create(p config.Params) (Optimizer, error) {
	name, ok := p.String("name")
	if !ok {
		return nil, config.Errorf("optimizer %q must be a string, got %v", "name", p["name"])
	}
	constructor, found := registerOfVariants[strings.ToLower(name)]
	if !found {
		return nil, config.Errorf("unknown optimizer %q, valid values are %q", name, Variants())
	}
	opt, err := constructor(p)
	if err != nil {
		return nil, errors.WithMessagef(err, "optimizer %q", name)
	}
	return opt, nil
}

// hookList implements the hooks part of Optimizer.
type hookList struct {
	hooks []Hook
}

func (l *hookList) AddHook(hook Hook) {
	l.hooks = append(l.hooks, hook)
}

func (l *hookList) Hooks() []Hook {
	return l.hooks
}

func (l *hookList) CallHooks(params []*Param) {
	for _, hook := range l.hooks {
		hook.Call(params)
	}
}

func unknownHyperparameter(opt Optimizer, h Hyperparameter) error {
	return errors.Errorf("optimizer %q has no hyperparameter %q", opt.Name(), h)
}
