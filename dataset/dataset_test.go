package dataset

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-ner/arrays"
	"github.com/gomlx/go-ner/config"
	"github.com/gomlx/go-ner/corpus"
	"github.com/gomlx/go-ner/vocab"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVocabulary(t *testing.T) *vocab.Vocabulary {
	v, err := vocab.New(
		map[string]int{"<UNK>": 0, "EU": 1, "rejects": 2, "German": 3, "call": 4, "0000": 5},
		map[string]int{"<UNK>": 0, "E": 1, "U": 2, "r": 3, "e": 4, "0": 5},
		map[string]int{"<UNK>": 0, "B-ORG": 1, "O": 2, "B-MISC": 3},
		true)
	require.NoError(t, err)
	return v
}

func makeInstances(n int) []corpus.Instance {
	instances := make([]corpus.Instance, n)
	for ii := range instances {
		instances[ii] = corpus.Instance{
			{fmt.Sprintf("w%d", ii), "O"},
			{"x", fmt.Sprintf("T%d", ii)},
		}
	}
	return instances
}

func TestUpdateInstances(t *testing.T) {
	instances := makeInstances(10)
	for _, tc := range []struct {
		trainSize float64
		want      int
	}{{0.1, 1}, {0.25, 2}, {0.5, 5}, {0.7, 7}, {0.99, 9}, {1.0, 10}} {
		fields, err := UpdateInstances(instances, tc.trainSize, ModeTrain)
		require.NoError(t, err)
		require.Len(t, fields, 2)
		require.Len(t, fields[0], tc.want, "train_size=%g", tc.trainSize)
		require.Len(t, fields[1], tc.want, "train_size=%g", tc.trainSize)
		for ii := 0; ii < tc.want; ii++ {
			assert.Equal(t, []string{fmt.Sprintf("w%d", ii), "x"}, fields[0][ii])
			assert.Equal(t, []string{"O", fmt.Sprintf("T%d", ii)}, fields[1][ii])
		}
	}
}

func TestUpdateInstancesInvalidTrainSize(t *testing.T) {
	instances := makeInstances(4)
	for _, trainSize := range []float64{0, -0.5, 1.01, math.NaN()} {
		_, err := UpdateInstances(instances, trainSize, ModeTrain)
		require.Error(t, err, "train_size=%g", trainSize)
		assert.True(t, errors.Is(err, config.ErrConfig))
	}

	// train_size only matters when training.
	fields, err := UpdateInstances(instances, 0, ModeTest)
	require.NoError(t, err)
	assert.Len(t, fields[0], 4)
}

func TestUpdateInstancesEdgeCases(t *testing.T) {
	fields, err := UpdateInstances(nil, 1.0, ModeTrain)
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = UpdateInstances([]corpus.Instance{{{"a", "O"}, {"b"}}}, 1.0, ModeTrain)
	require.Error(t, err)
}

func TestToID(t *testing.T) {
	v := newTestVocabulary(t)
	assert.Equal(t, []int{1, 2, 3}, ToID([]string{"EU", "rejects", "German"}, v.Words))
	assert.Equal(t, []int{0, 4, 0}, ToID([]string{"Brussels", "call", ""}, v.Words))
	assert.Equal(t, []int{}, ToID(nil, v.Tags))
}

func TestTransform(t *testing.T) {
	tr := NewTransformer(newTestVocabulary(t))
	ex := tr.Transform([]string{"EU", "rejects"}, []string{"B-ORG", "I-ORG"})
	assert.Equal(t, []int{1, 2}, ex.WordIDs)
	assert.Equal(t, [][]int{{1, 2}, {3, 4, 0, 4, 0, 0, 0}}, ex.CharIDs)
	assert.Equal(t, []int{1, 0}, ex.TagIDs)

	ex = tr.Transform([]string{"German"}, nil)
	assert.Nil(t, ex.TagIDs)
	assert.Len(t, ex.CharIDs, 1)

	// Characters are code points, not bytes.
	ex = tr.Transform([]string{"Ée"}, nil)
	assert.Equal(t, [][]int{{0, 4}}, ex.CharIDs)
}

func TestInverseTransformRoundTrip(t *testing.T) {
	tr := NewTransformer(newTestVocabulary(t))

	words := []string{"EU", "rejects", "German", "call"}
	tags := []string{"B-ORG", "O", "B-MISC", "O"}
	ex := tr.Transform(words, tags)
	gotWords, gotTags, err := tr.InverseTransform([][]int{ex.WordIDs}, [][]int{ex.TagIDs})
	require.NoError(t, err)
	assert.Equal(t, [][]string{words}, gotWords)
	assert.Equal(t, [][]string{tags}, gotTags)

	// Out-of-vocabulary symbols are lost.
	ex = tr.Transform([]string{"EU", "Brussels"}, []string{"B-ORG", "B-LOC"})
	gotWords, gotTags, err = tr.InverseTransform([][]int{ex.WordIDs}, [][]int{ex.TagIDs})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"EU", vocab.UnknownToken}}, gotWords)
	assert.Equal(t, [][]string{{"B-ORG", vocab.UnknownToken}}, gotTags)
}

func TestInverseTransformErrors(t *testing.T) {
	tr := NewTransformer(newTestVocabulary(t))
	_, _, err := tr.InverseTransform([][]int{{1, 99}}, [][]int{{1, 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id 99")

	_, _, err = tr.InverseTransform([][]int{{1}}, nil)
	require.Error(t, err)
}

func TestInverseTransformArrays(t *testing.T) {
	tr := NewTransformer(newTestVocabulary(t))
	conv, err := ConverterForDevice(-1)
	require.NoError(t, err)

	ex := tr.Transform([]string{"German", "call"}, []string{"B-MISC", "O"})
	batch, err := conv.Convert([]Example{ex})
	require.NoError(t, err)
	words, tags, err := tr.InverseTransformArrays(batch.Words, batch.Tags)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"German", "call"}}, words)
	assert.Equal(t, [][]string{{"B-MISC", "O"}}, tags)
}

func TestConverter(t *testing.T) {
	backend, err := arrays.New(arrays.Host)
	require.NoError(t, err)
	conv := NewConverter(backend)
	assert.Equal(t, arrays.Host, conv.Backend().Name())

	batch, err := conv.Convert([]Example{
		{WordIDs: []int{1, 2}, CharIDs: [][]int{{1, 2}, {3, 4, 5}}, TagIDs: []int{1, 2}},
		{WordIDs: []int{3}, CharIDs: [][]int{{4}}, TagIDs: []int{3}},
	})
	require.NoError(t, err)
	require.Len(t, batch.Words, 2)
	assert.Equal(t, []int32{1, 2}, batch.Words[0].Value())
	assert.Equal(t, []int32{3}, batch.Words[1].Value())
	require.Len(t, batch.Chars[0], 2)
	assert.Equal(t, []int32{3, 4, 5}, batch.Chars[0][1].Value())
	require.NotNil(t, batch.Tags)
	assert.Equal(t, []int32{3}, batch.Tags[1].Value())

	// A single untagged example makes it an inference batch.
	batch, err = conv.Convert([]Example{
		{WordIDs: []int{1}, CharIDs: [][]int{{1}}, TagIDs: []int{1}},
		{WordIDs: []int{2}, CharIDs: [][]int{{2}}},
	})
	require.NoError(t, err)
	assert.Nil(t, batch.Tags)
	assert.Len(t, batch.Words, 2)

	_, err = conv.Convert([]Example{{WordIDs: []int{1, 2}, CharIDs: [][]int{{1}}}})
	require.Error(t, err)
}

const testTrainCorpus = `-DOCSTART- O

EU B-ORG
rejects O
German B-MISC

call O
1996 O

EU B-ORG

German B-MISC
`

func writeSplit(t *testing.T, dir string, mode Mode, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(mode)+".txt"), []byte(content), 0644))
}

func TestSequenceLabelingDataset(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, ModeTrain, testTrainCorpus)
	writeSplit(t, dir, ModeTest, testTrainCorpus)
	v := newTestVocabulary(t)
	tr := NewTransformer(v)

	ds, err := New(v, Config{DataDir: dir, TrainSize: 0.5}, ModeTrain, tr.Transform, WithOriginalSentence())
	require.NoError(t, err)
	assert.Equal(t, ModeTrain, ds.Mode())
	require.Equal(t, 2, ds.Len())

	ex, err := ds.Get(1)
	require.NoError(t, err)
	// "1996" is read as "0000" since the vocabulary replaces digits.
	assert.Equal(t, []int{4, 5}, ex.WordIDs)
	assert.Equal(t, []int{2, 2}, ex.TagIDs)
	assert.Equal(t, []string{"call", "0000"}, ex.Original)

	_, err = ds.Get(2)
	require.Error(t, err)
	_, err = ds.Get(-1)
	require.Error(t, err)

	// Test mode ignores train_size, and originals are off by default.
	ds, err = New(v, Config{DataDir: dir, TrainSize: 0.5}, ModeTest, tr.Transform)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	ex, err = ds.Get(0)
	require.NoError(t, err)
	assert.Nil(t, ex.Original)

	examples := ds.Examples(2, 10)
	require.Len(t, examples, 2)
	assert.Equal(t, []int{3}, examples[1].WordIDs)
	assert.Nil(t, ds.Examples(5, 10))
}

func TestSequenceLabelingDatasetErrors(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, ModeTrain, testTrainCorpus)
	v := newTestVocabulary(t)
	tr := NewTransformer(v)

	_, err := New(v, Config{DataDir: dir, TrainSize: 0}, ModeTrain, tr.Transform)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))

	_, err = New(v, Config{DataDir: dir, TrainSize: 1}, ModeValidation, tr.Transform)
	require.Error(t, err)
}

func TestSequenceLabelingDatasetUntagged(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, ModeTest, "EU\nrejects\n\nGerman\n")
	v := newTestVocabulary(t)
	ds, err := New(v, Config{DataDir: dir, TrainSize: 1}, ModeTest, NewTransformer(v).Transform)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	ex, err := ds.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ex.WordIDs)
	assert.Nil(t, ex.TagIDs)

	conv, err := ConverterForDevice(-1)
	require.NoError(t, err)
	batch, err := conv.Convert(ds.Examples(0, ds.Len()))
	require.NoError(t, err)
	assert.Nil(t, batch.Tags)
}

func TestConfigFromParams(t *testing.T) {
	cfg, err := ConfigFromParams(config.Params{"data_dir": "/data", "train_size": 0.3, "normalize": true})
	require.NoError(t, err)
	assert.Equal(t, Config{DataDir: "/data", TrainSize: 0.3, Normalize: true}, cfg)

	cfg, err = ConfigFromParams(config.Params{"data_dir": "/data"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.TrainSize)

	for _, p := range []config.Params{
		{},
		{"data_dir": "/data", "train_size": "half"},
		{"data_dir": "/data", "normalize": "yes"},
	} {
		_, err = ConfigFromParams(p)
		assert.True(t, errors.Is(err, config.ErrConfig), "params=%v", p)
	}
}
