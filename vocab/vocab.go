// Package vocab implements the immutable vocabulary of a sequence-labeling model:
// three bidirectional mappings between symbols and integer ids, for words, characters and tags.
//
// Vocabularies are built elsewhere (usually by the preprocessing scripts that also split the
// corpus) and loaded here from a JSON file of the form:
//
//	{
//	  "word2idx": {"<UNK>": 0, "EU": 1, "rejects": 2, ...},
//	  "char2idx": {"<UNK>": 0, "E": 1, "U": 2, ...},
//	  "tag2idx":  {"<UNK>": 0, "B-ORG": 1, "O": 2, ...},
//	  "replace_zero": true
//	}
//
// Each dictionary must register the UnknownToken, and its id is returned for any symbol
// not in the dictionary.
package vocab

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/gomlx/go-ner/config"
	"github.com/pkg/errors"
)

// UnknownToken is the reserved symbol whose id is used for out-of-vocabulary symbols.
const UnknownToken = "<UNK>"

// Dictionary is one bidirectional symbol <-> id mapping.
type Dictionary struct {
	tokenToID map[string]int
	idToToken map[int]string
	unkID     int
}

// NewDictionary creates a Dictionary from a symbol to id map. The map is copied.
//
// It fails if UnknownToken is not registered, or if two symbols share the same id.
func NewDictionary(tokenToID map[string]int) (*Dictionary, error) {
	d := &Dictionary{
		tokenToID: make(map[string]int, len(tokenToID)),
		idToToken: make(map[int]string, len(tokenToID)),
	}
	unkID, found := tokenToID[UnknownToken]
	if !found {
		return nil, config.Errorf("dictionary has no %q token", UnknownToken)
	}
	d.unkID = unkID
	for token, id := range tokenToID {
		if other, dup := d.idToToken[id]; dup {
			// Report in a deterministic order.
			pair := []string{token, other}
			sort.Strings(pair)
			return nil, config.Errorf("tokens %q and %q share the id %d", pair[0], pair[1], id)
		}
		d.tokenToID[token] = id
		d.idToToken[id] = token
	}
	return d, nil
}

// ID returns the id of token, or UnknownID if it is not in the dictionary. It never fails.
func (d *Dictionary) ID(token string) int {
	if id, found := d.tokenToID[token]; found {
		return id
	}
	return d.unkID
}

// Lookup returns the id of token and whether it is registered.
func (d *Dictionary) Lookup(token string) (int, bool) {
	id, found := d.tokenToID[token]
	return id, found
}

// Token returns the symbol registered with id, and whether there is one.
func (d *Dictionary) Token(id int) (string, bool) {
	token, found := d.idToToken[id]
	return token, found
}

// UnknownID is the id returned for symbols not in the dictionary.
func (d *Dictionary) UnknownID() int {
	return d.unkID
}

// Len returns the number of registered symbols, including UnknownToken.
func (d *Dictionary) Len() int {
	return len(d.tokenToID)
}

// Vocabulary holds the word, character and tag dictionaries. It is immutable once loaded.
type Vocabulary struct {
	Words, Chars, Tags *Dictionary

	// ReplaceZero indicates the vocabulary was built with every digit of every word replaced by '0',
	// and corpora must be read the same way.
	ReplaceZero bool
}

// vocabularyJSON is the on-disk format of a Vocabulary.
type vocabularyJSON struct {
	Word2Idx    map[string]int `json:"word2idx"`
	Char2Idx    map[string]int `json:"char2idx"`
	Tag2Idx     map[string]int `json:"tag2idx"`
	ReplaceZero bool           `json:"replace_zero"`
}

// New creates a Vocabulary from the three symbol to id maps.
func New(word2idx, char2idx, tag2idx map[string]int, replaceZero bool) (*Vocabulary, error) {
	v := &Vocabulary{ReplaceZero: replaceZero}
	var err error
	if v.Words, err = NewDictionary(word2idx); err != nil {
		return nil, errors.WithMessage(err, "word dictionary")
	}
	if v.Chars, err = NewDictionary(char2idx); err != nil {
		return nil, errors.WithMessage(err, "char dictionary")
	}
	if v.Tags, err = NewDictionary(tag2idx); err != nil {
		return nil, errors.WithMessage(err, "tag dictionary")
	}
	return v, nil
}

// NewFromFile loads a Vocabulary from a JSON file.
func NewFromFile(filePath string) (*Vocabulary, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary file %q", filePath)
	}
	v, err := NewFromContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	return v, nil
}

// NewFromContent loads a Vocabulary from its JSON content.
func NewFromContent(content []byte) (*Vocabulary, error) {
	var vj vocabularyJSON
	if err := json.Unmarshal(content, &vj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse vocabulary json")
	}
	return New(vj.Word2Idx, vj.Char2Idx, vj.Tag2Idx, vj.ReplaceZero)
}
