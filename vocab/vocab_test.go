package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-ner/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocabularyJSON = []byte(`{
  "word2idx": {"<UNK>": 0, "EU": 1, "rejects": 2, "German": 3, "call": 4},
  "char2idx": {"<UNK>": 0, "E": 1, "U": 2, "r": 3, "e": 4},
  "tag2idx": {"<UNK>": 0, "B-ORG": 1, "O": 2, "B-MISC": 3},
  "replace_zero": true
}`)

func TestNewFromContent(t *testing.T) {
	v, err := NewFromContent(testVocabularyJSON)
	require.NoError(t, err)
	assert.True(t, v.ReplaceZero)
	assert.Equal(t, 5, v.Words.Len())
	assert.Equal(t, 5, v.Chars.Len())
	assert.Equal(t, 4, v.Tags.Len())

	assert.Equal(t, 2, v.Words.ID("rejects"))
	assert.Equal(t, 0, v.Words.ID("Brussels"))
	assert.Equal(t, 1, v.Tags.ID("B-ORG"))

	token, found := v.Tags.Token(3)
	assert.True(t, found)
	assert.Equal(t, "B-MISC", token)
	_, found = v.Words.Token(42)
	assert.False(t, found)

	_, found = v.Chars.Lookup("z")
	assert.False(t, found)
}

func TestNewRequiresUnknown(t *testing.T) {
	_, err := New(
		map[string]int{"<UNK>": 0, "a": 1},
		map[string]int{"a": 1},
		map[string]int{"<UNK>": 0},
		false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))
	assert.Contains(t, err.Error(), "char dictionary")
}

func TestNewDictionaryDuplicateIDs(t *testing.T) {
	_, err := NewDictionary(map[string]int{"<UNK>": 0, "a": 1, "b": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a" and "b"`)
}

func TestDictionaryIsCopied(t *testing.T) {
	m := map[string]int{"<UNK>": 7, "x": 1}
	d, err := NewDictionary(m)
	require.NoError(t, err)
	m["y"] = 2
	_, found := d.Lookup("y")
	assert.False(t, found)
	assert.Equal(t, 7, d.UnknownID())
	assert.Equal(t, 7, d.ID("y"))
}

func TestNewFromFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, os.WriteFile(filePath, testVocabularyJSON, 0644))
	v, err := NewFromFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Words.ID("German"))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filePath, []byte("{not json"), 0644))
	_, err = NewFromFile(filePath)
	require.Error(t, err)
}
