// Package config defines the ranking configuration: an ordered list of
// features, each naming an extractor and a normalizer.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration is the ordered feature list of a ranker.
// Order defines vector position.
type Configuration struct {
	Features []Feature `yaml:"features" json:"features"`
}

// Feature pairs an extractor with the normalizer applied to its scores.
// An empty Normalizer makes the feature pass-through.
type Feature struct {
	Extractor  ExtractorRef `yaml:"extractor" json:"extractor"`
	Normalizer string       `yaml:"normalizer,omitempty" json:"normalizer,omitempty"`
}

// ExtractorRef names a registry extractor, either bare ("encodingLevel")
// or parameterized ({name: fieldCount, parameters: ["CAT"]}).
type ExtractorRef struct {
	Name          string
	Parameters    []any
	Parameterized bool
}

// Bare returns a reference to a non-parameterized extractor
func Bare(name string) ExtractorRef {
	return ExtractorRef{Name: name}
}

// Parameterized returns a reference that invokes the named factory with params
func Parameterized(name string, params ...any) ExtractorRef {
	if params == nil {
		params = []any{}
	}
	return ExtractorRef{Name: name, Parameters: params, Parameterized: true}
}

// String renders the reference the way it reads in configuration, e.g. fieldCount(CAT, [h])
func (r ExtractorRef) String() string {
	if !r.Parameterized {
		return r.Name
	}
	params := make([]string, len(r.Parameters))
	for i, p := range r.Parameters {
		params[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s(%s)", r.Name, strings.Join(params, ", "))
}

type parameterizedRef struct {
	Name       string `yaml:"name" json:"name"`
	Parameters []any  `yaml:"parameters" json:"parameters"`
}

// UnmarshalYAML decodes either a scalar name or a {name, parameters} mapping
func (r *ExtractorRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var name string
		if err := value.Decode(&name); err != nil {
			return fmt.Errorf("failed to decode extractor name: %w", err)
		}
		*r = Bare(name)
		return nil
	case yaml.MappingNode:
		var p parameterizedRef
		if err := value.Decode(&p); err != nil {
			return fmt.Errorf("failed to decode extractor: %w", err)
		}
		*r = ExtractorRef{Name: p.Name, Parameters: p.Parameters, Parameterized: true}
		return nil
	default:
		return fmt.Errorf("line %d: extractor must be a name or a {name, parameters} mapping", value.Line)
	}
}

// MarshalYAML encodes the reference back into its configuration form
func (r ExtractorRef) MarshalYAML() (any, error) {
	if !r.Parameterized {
		return r.Name, nil
	}
	return parameterizedRef{Name: r.Name, Parameters: r.Parameters}, nil
}

// UnmarshalJSON decodes either a string name or a {name, parameters} object
func (r *ExtractorRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("failed to decode extractor name: %w", err)
		}
		*r = Bare(name)
		return nil
	}

	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("extractor must be a name or a {name, parameters} object, got %s", data)
	}

	var p parameterizedRef
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode extractor: %w", err)
	}
	*r = ExtractorRef{Name: p.Name, Parameters: p.Parameters, Parameterized: true}
	return nil
}

// MarshalJSON encodes the reference back into its configuration form
func (r ExtractorRef) MarshalJSON() ([]byte, error) {
	if !r.Parameterized {
		return json.Marshal(r.Name)
	}
	return json.Marshal(parameterizedRef{Name: r.Name, Parameters: r.Parameters})
}

// Load reads a configuration file (.yaml, .yml or .json) and validates it
func Load(path string) (*Configuration, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		cfg *Configuration
		err error
	)
	switch ext {
	case ".yaml", ".yml":
		cfg, err = LoadFromYAML(path)
	case ".json":
		cfg, err = LoadFromJSON(path)
	default:
		return nil, fmt.Errorf("unsupported config format: %s (supported: .yaml, .yml, .json)", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromYAML reads a YAML configuration file without validating it
func LoadFromYAML(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseYAML(data)
}

// LoadFromJSON reads a JSON configuration file without validating it
func LoadFromJSON(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseJSON(data)
}

// ParseYAML decodes a YAML configuration document
func ParseYAML(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return &cfg, nil
}

// ParseJSON decodes a JSON configuration document
func ParseJSON(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &cfg, nil
}

// Structural validation errors
var (
	ErrNoFeatures          = errors.New("configuration must declare at least one feature")
	ErrEmptyExtractorName  = errors.New("extractor name is required")
	ErrNilParameters       = errors.New("parameterized extractor requires a parameters list")
	ErrEmptyNormalizerName = errors.New("normalizer name must not be blank")
)

// Validate checks the configuration shape. Names are resolved later against
// a registry; this only rejects documents that can never resolve.
// All problems are reported together.
func (c *Configuration) Validate() error {
	if c == nil || len(c.Features) == 0 {
		return ErrNoFeatures
	}

	var errs []error
	for i, f := range c.Features {
		if strings.TrimSpace(f.Extractor.Name) == "" {
			errs = append(errs, fmt.Errorf("feature %d: %w", i, ErrEmptyExtractorName))
		}
		if f.Extractor.Parameterized && f.Extractor.Parameters == nil {
			errs = append(errs, fmt.Errorf("feature %d: %w", i, ErrNilParameters))
		}
		if f.Normalizer != "" && strings.TrimSpace(f.Normalizer) == "" {
			errs = append(errs, fmt.Errorf("feature %d: %w", i, ErrEmptyNormalizerName))
		}
	}

	return errors.Join(errs...)
}
