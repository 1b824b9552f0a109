// Package config holds the flat key/value parameter sections used to configure datasets and optimizers.
//
// A configuration file (YAML or JSON, since JSON is valid YAML) holds named sections:
//
//	dataset:
//	  data_dir: ~/data/conll2003
//	  train_size: 0.5
//	optimizer:
//	  name: adam
//	  alpha: 0.001
//	  beta1: 0.9
//	  beta2: 0.999
//	  gradient_clipping: 5.0
//
// Each section is a Params: accessors return the zero value and false when the key is missing
// or has the wrong type, rather than returning errors.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig is wrapped by every error caused by an invalid configuration.
// Use errors.Is(err, config.ErrConfig) to test for it.
var ErrConfig = errors.New("configuration error")

// Errorf returns a new error wrapping ErrConfig.
func Errorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

// Params is one flat section of the configuration.
type Params map[string]any

// Has returns whether key is set, even if to a zero value.
func (p Params) Has(key string) bool {
	_, found := p[key]
	return found
}

// Raw returns the value without type conversion.
func (p Params) Raw(key string) (any, bool) {
	v, found := p[key]
	return v, found
}

// Float returns the value as a float64. Works for any integer or float type, and for numeric strings.
func (p Params) Float(key string) (float64, bool) {
	v, found := p[key]
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOr returns the value as a float64, or defaultValue if it is missing or not a number.
func (p Params) FloatOr(key string, defaultValue float64) float64 {
	if f, ok := p.Float(key); ok {
		return f
	}
	return defaultValue
}

// MustFloat returns the value as a float64, or an ErrConfig error if it is missing or not a number.
func (p Params) MustFloat(key string) (float64, error) {
	v, found := p[key]
	if !found {
		return 0, Errorf("missing required parameter %q", key)
	}
	f, ok := p.Float(key)
	if !ok {
		return 0, Errorf("parameter %q must be a number, got %v (%T)", key, v, v)
	}
	return f, nil
}

// String returns the value as a string, or "" and false if it is not a string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Int returns the value as an int. Floats with no fractional part are accepted.
func (p Params) Int(key string) (int, bool) {
	f, ok := p.Float(key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// File is a parsed configuration file: sections by name.
type File struct {
	// Path of the file it was read from, if any.
	Path string

	Sections map[string]Params
}

// Section returns the named section, or an empty Params if it doesn't exist.
func (f *File) Section(name string) Params {
	if p, found := f.Sections[name]; found {
		return p
	}
	return Params{}
}

// ParseFile parses the given YAML or JSON configuration file.
func ParseFile(filePath string) (*File, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", filePath)
	}
	f, err := ParseContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	f.Path = filePath
	return f, nil
}

// ParseContent parses YAML or JSON content into a File.
// Every top-level key must map to a section of flat key/values.
func ParseContent(content []byte) (*File, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(ErrConfig, "failed to parse configuration: %v", err)
	}
	f := &File{Sections: make(map[string]Params, len(raw))}
	for name, value := range raw {
		section, ok := value.(map[string]any)
		if !ok {
			return nil, Errorf("section %q must be a mapping, got %T", name, value)
		}
		f.Sections[name] = Params(section)
	}
	return f, nil
}
