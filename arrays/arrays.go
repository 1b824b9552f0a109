// Package arrays abstracts where the int32 id arrays fed to a model live.
//
// A Backend is selected once, at construction of the consumer (see dataset.NewConverter), and
// creates every array the consumer needs. The "host" backend is always registered and creates
// GoMLX tensors in host memory. Accelerator backends can be registered by name with Register.
package arrays

import (
	"slices"

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Names of the well-known backends.
const (
	Host        = "host"
	Accelerator = "accelerator"
)

// Backend creates the fixed-width integer arrays consumed by a model.
type Backend interface {
	// Name of the backend, as registered.
	Name() string

	// Int32s returns a rank-1 int32 array holding a copy of values.
	Int32s(values []int32) *tensors.Tensor
}

// Constructor creates a Backend.
type Constructor func() (Backend, error)

var registerOfBackends = make(map[string]Constructor)

// Register makes a Backend available by name. It replaces any previous registration with the same name.
func Register(name string, constructor Constructor) {
	registerOfBackends[name] = constructor
}

// New creates the Backend registered under name.
func New(name string) (Backend, error) {
	constructor, found := registerOfBackends[name]
	if !found {
		return nil, errors.Errorf("unknown array backend %q", name)
	}
	return constructor()
}

// ForDevice selects a backend by device number: negative numbers select Host,
// anything else selects Accelerator.
func ForDevice(device int) (Backend, error) {
	if device < 0 {
		return New(Host)
	}
	b, err := New(Accelerator)
	if err != nil {
		return nil, errors.WithMessagef(err, "device %d requested", device)
	}
	return b, nil
}

func init() {
	Register(Host, func() (Backend, error) { return hostBackend{}, nil })
}

// hostBackend keeps arrays in host memory.
type hostBackend struct{}

// Compile time assert that hostBackend implements Backend interface.
var _ Backend = hostBackend{}

func (hostBackend) Name() string { return Host }

func (hostBackend) Int32s(values []int32) *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(slices.Clone(values), len(values))
}

// Int32s converts ids of any integer type to int32.
func Int32s[T ~int | ~int32 | ~int64](ids []T) []int32 {
	out := make([]int32, len(ids))
	for ii, id := range ids {
		out[ii] = int32(id)
	}
	return out
}

// ToHost returns the values of a rank-1 int32 array, copied to host memory if needed.
func ToHost(t *tensors.Tensor) ([]int32, error) {
	if t == nil {
		return nil, errors.New("nil array")
	}
	shape := t.Shape()
	if shape.DType != dtypes.Int32 || shape.Rank() != 1 {
		return nil, errors.Errorf("expected a rank-1 %s array, got shape %s", dtypes.Int32, shape)
	}
	values, ok := t.Value().([]int32)
	if !ok {
		return nil, errors.Errorf("unexpected value type %T for shape %s", t.Value(), shape)
	}
	return values, nil
}

// ToInts is like ToHost, but converts the values to int.
func ToInts(t *tensors.Tensor) ([]int, error) {
	values, err := ToHost(t)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for ii, v := range values {
		out[ii] = int(v)
	}
	return out, nil
}
