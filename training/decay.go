package training

import (
	"bytes"
	"encoding/json"

	"github.com/gomlx/go-ner/checkpoint"
	"github.com/gomlx/go-ner/optimizer"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LearningRateDecayName is the default checkpoint entry name of LearningRateDecay.
const LearningRateDecayName = "learning_rate_decay"

// DecayState is the mutable state of LearningRateDecay, saved in checkpoints.
type DecayState struct {
	// Iteration is the number of completed iterations.
	Iteration int `json:"t"`

	// LastValue is the last value set on the optimizer, or nil if none was set yet.
	LastValue *float64 `json:"last_value"`
}

// UnmarshalJSON implements json.Unmarshaler. It accepts "last_value" either as a number,
// null, or boxed in a one-element array.
func (s *DecayState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Iteration int             `json:"t"`
		LastValue json.RawMessage `json:"last_value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to decode learning rate decay state")
	}
	s.Iteration = raw.Iteration
	s.LastValue = nil
	lastValue := bytes.TrimSpace(raw.LastValue)
	if len(lastValue) == 0 || bytes.Equal(lastValue, []byte("null")) {
		return nil
	}
	if lastValue[0] == '[' {
		var boxed []float64
		if err := json.Unmarshal(lastValue, &boxed); err != nil {
			return errors.Wrap(err, "failed to decode boxed last_value")
		}
		if len(boxed) != 1 {
			return errors.Errorf("last_value must hold a single value, got %d", len(boxed))
		}
		s.LastValue = &boxed[0]
		return nil
	}
	var v float64
	if err := json.Unmarshal(lastValue, &v); err != nil {
		return errors.Wrap(err, "failed to decode last_value")
	}
	s.LastValue = &v
	return nil
}

// LearningRateDecay is an Extension that decays an optimizer hyperparameter as in Ma and Hovy (2016):
// after iteration t its value is Rate / (1 + Decay * t).
//
// If a target is set, the value stops at the target once it reaches it.
type LearningRateDecay struct {
	// Attr is the decayed hyperparameter, e.g. optimizer.LR for SGD or optimizer.Alpha for Adam.
	Attr optimizer.Hyperparameter

	Rate, Decay float64

	// Target value, or nil for no target.
	Target *float64

	// Optimizer to adjust. If nil, the trainer's MainOptimizer is used.
	Optimizer optimizer.Optimizer

	// State is exported so the training loop can inspect it; use Save and Restore for checkpoints.
	State DecayState
}

// Compile time assert that LearningRateDecay implements Extension interface.
var _ Extension = &LearningRateDecay{}

// DecayOption configures a LearningRateDecay.
type DecayOption func(d *LearningRateDecay)

// WithTarget sets the value at which the decay stops.
func WithTarget(target float64) DecayOption {
	return func(d *LearningRateDecay) {
		d.Target = &target
	}
}

// WithOptimizer sets the optimizer to adjust, instead of the trainer's MainOptimizer.
func WithOptimizer(opt optimizer.Optimizer) DecayOption {
	return func(d *LearningRateDecay) {
		d.Optimizer = opt
	}
}

// NewLearningRateDecay creates the extension decaying attr from rate.
func NewLearningRateDecay(attr optimizer.Hyperparameter, rate, decay float64, opts ...DecayOption) *LearningRateDecay {
	d := &LearningRateDecay{Attr: attr, Rate: rate, Decay: decay}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initialize sets the hyperparameter to the last value (when resuming from a checkpoint) or to Rate.
func (d *LearningRateDecay) Initialize(trainer Trainer) error {
	opt, err := d.optimizer(trainer)
	if err != nil {
		return err
	}
	if d.State.LastValue != nil {
		return d.update(opt, *d.State.LastValue)
	}
	return d.update(opt, d.Rate)
}

// Step advances one iteration and sets the decayed value on the optimizer.
func (d *LearningRateDecay) Step(trainer Trainer) error {
	opt, err := d.optimizer(trainer)
	if err != nil {
		return err
	}
	d.State.Iteration++
	value := d.Rate / (1 + d.Decay*float64(d.State.Iteration))
	if d.Target != nil {
		target := *d.Target
		// Same as value = max(value, target) for positive rates, but the ratio also handles negative ones.
		if d.Rate > 0 {
			if target/value > 1 {
				value = target
			}
		} else if target/value < 1 {
			value = target
		}
	}
	klog.V(2).Infof("iteration %d: %s=%g", d.State.Iteration, d.Attr, value)
	return d.update(opt, value)
}

// Value returns the last value set on the optimizer, and false if none was set yet.
func (d *LearningRateDecay) Value() (float64, bool) {
	if d.State.LastValue == nil {
		return 0, false
	}
	return *d.State.LastValue, true
}

// Save stores the state in the snapshot, under name.
func (d *LearningRateDecay) Save(s *checkpoint.Snapshot, name string) error {
	return s.Put(name, d.State)
}

// Restore loads the state saved under name. It returns false, and leaves the state untouched,
// if the snapshot has no such entry.
func (d *LearningRateDecay) Restore(s *checkpoint.Snapshot, name string) (bool, error) {
	var state DecayState
	found, err := s.Get(name, &state)
	if err != nil || !found {
		return found, err
	}
	d.State = state
	return true, nil
}

func (d *LearningRateDecay) optimizer(trainer Trainer) (optimizer.Optimizer, error) {
	if d.Optimizer != nil {
		return d.Optimizer, nil
	}
	if trainer == nil {
		return nil, errors.New("no optimizer set and no trainer given")
	}
	return trainer.Optimizer(MainOptimizer)
}

func (d *LearningRateDecay) update(opt optimizer.Optimizer, value float64) error {
	if err := opt.SetHyperparameter(d.Attr, value); err != nil {
		return errors.WithMessage(err, "learning rate decay")
	}
	d.State.LastValue = &value
	return nil
}
