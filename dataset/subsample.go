package dataset

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-ner/config"
	"github.com/gomlx/go-ner/corpus"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Mode names the split of the corpus: it is also the base name of the split's file.
type Mode string

// Well-known modes. Only ModeTrain is subsampled.
const (
	ModeTrain      Mode = "train"
	ModeValidation Mode = "validation"
	ModeTest       Mode = "test"
)

// UpdateInstances selects the instances used for the given mode and transposes them to
// column-major layout: result[field][instance] is the sequence of that field (e.g. the words,
// or the tags) of the instance.
//
// In ModeTrain only the first floor(trainSize * len(instances)) instances are kept. trainSize
// must be in (0, 1], otherwise it fails with config.ErrConfig. Other modes keep every instance and
// ignore trainSize.
//
// The number of fields is taken from the first row of the first instance. An empty list of
// instances yields an empty result.
func UpdateInstances(instances []corpus.Instance, trainSize float64, mode Mode) ([][][]string, error) {
	if mode != ModeTrain {
		trainSize = 1.0
	}
	if math.IsNaN(trainSize) || trainSize <= 0 || trainSize > 1 {
		return nil, config.Errorf("train_size must be in (0, 1], got %g", trainSize)
	}

	numInstances := int(trainSize * float64(len(instances)))
	klog.V(1).Infof("Use %s examples for %s (%.2f%%)", humanize.Comma(int64(numInstances)), mode, 100*trainSize)
	if len(instances) == 0 || len(instances[0]) == 0 {
		return [][][]string{}, nil
	}

	numFields := len(instances[0][0])
	result := make([][][]string, numFields)
	for field := range result {
		result[field] = make([][]string, 0, numInstances)
	}
	for ii, instance := range instances[:numInstances] {
		columns := make([][]string, numFields)
		for field := range columns {
			columns[field] = make([]string, len(instance))
		}
		for jj, row := range instance {
			if len(row) != numFields {
				return nil, errors.Errorf("instance %d, row %d: has %d fields, expected %d", ii, jj, len(row), numFields)
			}
			for field, value := range row {
				columns[field][jj] = value
			}
		}
		for field := range result {
			result[field] = append(result[field], columns[field])
		}
	}
	return result, nil
}
