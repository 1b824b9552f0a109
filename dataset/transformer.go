package dataset

import (
	"github.com/gomlx/go-ner/arrays"
	"github.com/gomlx/go-ner/vocab"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Example is one transformed sentence.
type Example struct {
	// WordIDs has one id per word.
	WordIDs []int

	// CharIDs has, for each word, one id per character (Unicode code point).
	CharIDs [][]int

	// TagIDs has one id per word, or is nil if the sentence has no tags (inference).
	TagIDs []int

	// Original words of the sentence. Only set by datasets created WithOriginalSentence.
	Original []string
}

// TransformFunc converts a sentence (and its optional tags) to an Example.
type TransformFunc func(words, tags []string) Example

// Transformer maps words, characters and tags to their vocabulary ids and back.
type Transformer struct {
	vocab *vocab.Vocabulary
}

// NewTransformer creates a Transformer for the given vocabulary.
func NewTransformer(v *vocab.Vocabulary) *Transformer {
	return &Transformer{vocab: v}
}

// Vocabulary used by the Transformer.
func (t *Transformer) Vocabulary() *vocab.Vocabulary {
	return t.vocab
}

// ToID returns the id of each token in dict. Unknown tokens map to dict's unknown id.
func ToID(tokens []string, dict *vocab.Dictionary) []int {
	ids := make([]int, len(tokens))
	for ii, token := range tokens {
		ids[ii] = dict.ID(token)
	}
	return ids
}

// Transform returns the word ids, per-word character ids and tag ids of a sentence.
// tags may be nil, in which case Example.TagIDs is nil.
//
// It implements TransformFunc.
func (t *Transformer) Transform(words, tags []string) Example {
	ex := Example{
		WordIDs: ToID(words, t.vocab.Words),
		CharIDs: make([][]int, len(words)),
	}
	for ii, word := range words {
		ex.CharIDs[ii] = ToID(splitChars(word), t.vocab.Chars)
	}
	if tags != nil {
		ex.TagIDs = ToID(tags, t.vocab.Tags)
	}
	return ex
}

// splitChars splits word into its Unicode code points.
func splitChars(word string) []string {
	chars := make([]string, 0, len(word))
	for _, r := range word {
		chars = append(chars, string(r))
	}
	return chars
}

// InverseTransform converts word ids and tag ids back to words and tags, one sentence at a time.
//
// The lookup is strict: ids must have been produced by this vocabulary, and an unknown id is an error.
// Words that were out-of-vocabulary decode as vocab.UnknownToken.
func (t *Transformer) InverseTransform(wordIDs, tagIDs [][]int) (words, tags [][]string, err error) {
	if len(wordIDs) != len(tagIDs) {
		return nil, nil, errors.Errorf("got %d word sentences but %d tag sentences", len(wordIDs), len(tagIDs))
	}
	words = make([][]string, len(wordIDs))
	tags = make([][]string, len(tagIDs))
	for ii := range wordIDs {
		if words[ii], err = inverseLookup(wordIDs[ii], t.vocab.Words); err != nil {
			return nil, nil, errors.WithMessagef(err, "sentence %d, words", ii)
		}
		if tags[ii], err = inverseLookup(tagIDs[ii], t.vocab.Tags); err != nil {
			return nil, nil, errors.WithMessagef(err, "sentence %d, tags", ii)
		}
	}
	return words, tags, nil
}

// InverseTransformArrays is like InverseTransform, but takes the arrays of a Batch (or of a model's
// predictions), which are first copied to host memory.
func (t *Transformer) InverseTransformArrays(wordIDs, tagIDs []*tensors.Tensor) (words, tags [][]string, err error) {
	toInts := func(arrs []*tensors.Tensor) ([][]int, error) {
		out := make([][]int, len(arrs))
		for ii, arr := range arrs {
			ids, err := arrays.ToInts(arr)
			if err != nil {
				return nil, errors.WithMessagef(err, "sentence %d", ii)
			}
			out[ii] = ids
		}
		return out, nil
	}
	wordInts, err := toInts(wordIDs)
	if err != nil {
		return nil, nil, err
	}
	tagInts, err := toInts(tagIDs)
	if err != nil {
		return nil, nil, err
	}
	return t.InverseTransform(wordInts, tagInts)
}

func inverseLookup(ids []int, dict *vocab.Dictionary) ([]string, error) {
	tokens := make([]string, len(ids))
	for ii, id := range ids {
		token, found := dict.Token(id)
		if !found {
			return nil, errors.Errorf("id %d at position %d is not in the vocabulary", id, ii)
		}
		tokens[ii] = token
	}
	return tokens, nil
}
