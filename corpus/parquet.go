package corpus

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// ParquetSentence is the row schema of parquet corpora.
type ParquetSentence struct {
	Tokens []string `parquet:"tokens,list"`
	Tags   []string `parquet:"tags,list"`
}

// ReadParquet reads the sentences of a parquet corpus.
// Sentences with no tags yield word-only rows; otherwise "tokens" and "tags" must have the same length.
func ReadParquet(filePath string, opts Options) ([]Instance, error) {
	rows, err := parquet.ReadFile[ParquetSentence](filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read parquet corpus %q", filePath)
	}
	instances := make([]Instance, 0, len(rows))
	for ii, row := range rows {
		if len(row.Tokens) == 0 {
			continue
		}
		tagged := len(row.Tags) > 0
		if tagged && len(row.Tags) != len(row.Tokens) {
			return nil, errors.Errorf("parquet corpus %q, row %d: %d tokens but %d tags", filePath, ii, len(row.Tokens), len(row.Tags))
		}
		instance := make(Instance, len(row.Tokens))
		for jj, token := range row.Tokens {
			if tagged {
				instance[jj] = []string{opts.word(token), row.Tags[jj]}
			} else {
				instance[jj] = []string{opts.word(token)}
			}
		}
		instances = append(instances, instance)
	}
	return instances, nil
}
