package dataset

import (
	"github.com/gomlx/go-ner/arrays"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch holds the int32 arrays of a batch of examples, one array per sentence.
type Batch struct {
	Words []*tensors.Tensor

	// Chars holds, per sentence, one array per word. They are not padded.
	Chars [][]*tensors.Tensor

	// Tags is nil for inference batches.
	Tags []*tensors.Tensor
}

// Converter transposes batches of examples into Batch arrays created by its backend.
type Converter struct {
	backend arrays.Backend
}

// NewConverter creates a Converter whose arrays are created by backend.
func NewConverter(backend arrays.Backend) *Converter {
	return &Converter{backend: backend}
}

// ConverterForDevice creates a Converter for the given device number: negative for host memory,
// otherwise the registered accelerator backend (see arrays.ForDevice).
func ConverterForDevice(device int) (*Converter, error) {
	backend, err := arrays.ForDevice(device)
	if err != nil {
		return nil, err
	}
	return NewConverter(backend), nil
}

// Backend used to create the arrays.
func (c *Converter) Backend() arrays.Backend {
	return c.backend
}

// Convert transposes the batch into words, characters and tags arrays.
//
// If any example has no tags, the batch is an inference batch and Batch.Tags is nil.
func (c *Converter) Convert(batch []Example) (*Batch, error) {
	b := &Batch{
		Words: make([]*tensors.Tensor, len(batch)),
		Chars: make([][]*tensors.Tensor, len(batch)),
	}
	tagged := len(batch) > 0
	for ii, ex := range batch {
		if len(ex.CharIDs) != len(ex.WordIDs) {
			return nil, errors.Errorf("example %d has %d words but characters for %d", ii, len(ex.WordIDs), len(ex.CharIDs))
		}
		b.Words[ii] = c.backend.Int32s(arrays.Int32s(ex.WordIDs))
		b.Chars[ii] = make([]*tensors.Tensor, len(ex.CharIDs))
		for jj, chars := range ex.CharIDs {
			b.Chars[ii][jj] = c.backend.Int32s(arrays.Int32s(chars))
		}
		if ex.TagIDs == nil {
			tagged = false
		}
	}
	if tagged {
		b.Tags = make([]*tensors.Tensor, len(batch))
		for ii, ex := range batch {
			b.Tags[ii] = c.backend.Int32s(arrays.Int32s(ex.TagIDs))
		}
	}
	return b, nil
}
