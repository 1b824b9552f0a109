// Package corpus reads tagged sentences for sequence labeling.
//
// The text format has one token per line, with whitespace separated columns: the first column is
// the word and the last one is its tag. Sentences are separated by blank lines, and CoNLL
// "-DOCSTART-" lines are ignored:
//
//	EU      B-ORG
//	rejects O
//	German  B-MISC
//
//	Peter   B-PER
//	Blackburn I-PER
//
// Lines with a single column carry only the word (untagged corpora, used at inference).
//
// Parquet files (as distributed by many dataset hubs) are also supported, with the string list
// columns "tokens" and "tags".
package corpus

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
	"golang.org/x/text/unicode/norm"
)

// Field indices of each row of an Instance.
const (
	FieldWord = 0
	FieldTag  = 1
)

// Instance is one sentence in row-major layout: Instance[row][field].
// Rows have either one field (word) or two (word, tag).
type Instance [][]string

// Options control how tokens are read.
type Options struct {
	// ReplaceZero replaces every digit in words by '0'.
	ReplaceZero bool

	// Normalize applies Unicode NFC normalization to words.
	Normalize bool
}

// maxLineSize limits the size of one line of a text corpus.
const maxLineSize = 1 << 20

const docStart = "-DOCSTART-"

// Load reads the sentences of the corpus file at filePath.
// Files with a ".parquet" extension are read with ReadParquet, anything else with ReadText.
func Load(filePath string, opts Options) ([]Instance, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".parquet") {
		return ReadParquet(filePath, opts)
	}
	reader, err := mmap.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to mmap %s", filePath)
	}
	defer reader.Close()
	instances, err := ReadText(io.NewSectionReader(reader, 0, int64(reader.Len())), opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "while reading %q", filePath)
	}
	return instances, nil
}

// ReadText parses the text format from r.
func ReadText(r io.Reader, opts Options) ([]Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		instances []Instance
		current   Instance
		lineNum   int
	)
	flush := func() {
		if len(current) > 0 {
			instances = append(instances, current)
			current = nil
		}
	}
	for scanner.Scan() {
		lineNum++
		columns := strings.Fields(scanner.Text())
		if len(columns) == 0 {
			flush()
			continue
		}
		if columns[0] == docStart {
			continue
		}
		row := []string{opts.word(columns[0])}
		if len(columns) > 1 {
			row = append(row, columns[len(columns)-1])
		}
		if len(current) > 0 && len(current[0]) != len(row) {
			return nil, errors.Errorf("line %d: has %d fields, but the sentence started with %d", lineNum, len(row), len(current[0]))
		}
		current = append(current, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading corpus after line %d", lineNum)
	}
	flush()
	return instances, nil
}

// word applies the options to one word.
func (opts Options) word(w string) string {
	if opts.Normalize {
		w = norm.NFC.String(w)
	}
	if opts.ReplaceZero {
		w = strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return '0'
			}
			return r
		}, w)
	}
	return w
}
