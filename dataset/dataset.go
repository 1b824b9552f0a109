// Package dataset builds the vocabulary-indexed datasets of a sequence-labeling model, and
// converts batches of their examples to the int32 arrays consumed by the model.
//
// A split is read from "{data_dir}/{mode}.txt", subsampled (only for training, see UpdateInstances)
// and fully materialized in memory. Each example is the output of a TransformFunc, usually
// Transformer.Transform:
//
//	v := must(vocab.NewFromFile("vocab.json"))
//	tr := dataset.NewTransformer(v)
//	ds := must(dataset.New(v, cfg, dataset.ModeTrain, tr.Transform))
//	conv := must(dataset.ConverterForDevice(-1))
//	batch := must(conv.Convert(ds.Examples(0, 32)))
package dataset

import (
	"path/filepath"

	"github.com/gomlx/go-ner/config"
	"github.com/gomlx/go-ner/corpus"
	"github.com/gomlx/go-ner/internal/files"
	"github.com/gomlx/go-ner/vocab"
	"github.com/pkg/errors"
)

// Config of a dataset.
type Config struct {
	// DataDir holds one file per split, named after the Mode. A leading "~" is expanded.
	DataDir string

	// TrainSize is the fraction of the training split to use, in (0, 1].
	TrainSize float64

	// Normalize applies Unicode NFC normalization to the words read.
	Normalize bool
}

// ConfigFromParams reads the keys "data_dir", "train_size" (default 1.0) and "normalize" of a configuration section.
func ConfigFromParams(p config.Params) (Config, error) {
	dataDir, ok := p.String("data_dir")
	if !ok || dataDir == "" {
		return Config{}, config.Errorf("missing required parameter %q", "data_dir")
	}
	cfg := Config{DataDir: dataDir, TrainSize: 1.0}
	if p.Has("train_size") {
		var err error
		if cfg.TrainSize, err = p.MustFloat("train_size"); err != nil {
			return Config{}, err
		}
	}
	if n, found := p.Raw("normalize"); found {
		b, isBool := n.(bool)
		if !isBool {
			return Config{}, config.Errorf("parameter %q must be a boolean, got %v", "normalize", n)
		}
		cfg.Normalize = b
	}
	return cfg, nil
}

// Option configures a SequenceLabelingDataset.
type Option func(ds *SequenceLabelingDataset)

// WithOriginalSentence makes Get return the original words of each sentence in Example.Original.
func WithOriginalSentence() Option {
	return func(ds *SequenceLabelingDataset) {
		ds.returnOriginal = true
	}
}

// SequenceLabelingDataset is a read-only, randomly indexable collection of sentences.
// Its size is fixed at construction.
type SequenceLabelingDataset struct {
	mode          Mode
	wordSentences [][]string
	tagSentences  [][]string // nil if the corpus has no tags.
	transform     TransformFunc

	returnOriginal bool
}

// New reads the split for mode from cfg.DataDir, subsamples it and keeps it in memory.
//
// The file "{mode}.txt" is used if it exists, otherwise "{mode}.parquet".
// Words are read with the digit replacement the vocabulary was built with.
func New(v *vocab.Vocabulary, cfg Config, mode Mode, transform TransformFunc, opts ...Option) (*SequenceLabelingDataset, error) {
	dataDir, err := files.ReplaceTildeInDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	dataPath, err := splitPath(dataDir, mode)
	if err != nil {
		return nil, err
	}
	instances, err := corpus.Load(dataPath, corpus.Options{ReplaceZero: v.ReplaceZero, Normalize: cfg.Normalize})
	if err != nil {
		return nil, err
	}
	fields, err := UpdateInstances(instances, cfg.TrainSize, mode)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", dataPath)
	}

	ds := &SequenceLabelingDataset{mode: mode, transform: transform}
	if len(fields) > corpus.FieldWord {
		ds.wordSentences = fields[corpus.FieldWord]
	}
	if len(fields) > corpus.FieldTag {
		ds.tagSentences = fields[corpus.FieldTag]
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds, nil
}

func splitPath(dataDir string, mode Mode) (string, error) {
	for _, ext := range []string{".txt", ".parquet"} {
		p := filepath.Join(dataDir, string(mode)+ext)
		if files.Exists(p) {
			return p, nil
		}
	}
	return "", errors.Errorf("no %s.txt or %s.parquet found in %q", mode, mode, dataDir)
}

// Mode of the split held by the dataset.
func (ds *SequenceLabelingDataset) Mode() Mode {
	return ds.mode
}

// Len returns the number of sentences.
func (ds *SequenceLabelingDataset) Len() int {
	return len(ds.wordSentences)
}

// Get returns the transformed sentence i.
func (ds *SequenceLabelingDataset) Get(i int) (Example, error) {
	if i < 0 || i >= ds.Len() {
		return Example{}, errors.Errorf("index %d out of range for dataset of %d sentences", i, ds.Len())
	}
	words := ds.wordSentences[i]
	var tags []string
	if ds.tagSentences != nil {
		tags = ds.tagSentences[i]
	}
	ex := ds.transform(words, tags)
	if ds.returnOriginal {
		ex.Original = words
	}
	return ex, nil
}

// Examples returns the transformed sentences in [start, end), clipped to the dataset's size.
func (ds *SequenceLabelingDataset) Examples(start, end int) []Example {
	start = max(start, 0)
	end = min(end, ds.Len())
	if start >= end {
		return nil
	}
	out := make([]Example, 0, end-start)
	for i := start; i < end; i++ {
		ex, _ := ds.Get(i)
		out = append(out, ex)
	}
	return out
}
