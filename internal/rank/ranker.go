package rank

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/marcrank/internal/config"
	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

// Ranker compares record pairs using a resolved configuration.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	labels      []string
	extractors  []ExtractFunc
	normalizers []NormalizeFunc
}

// New validates cfg and resolves every feature against reg. A nil reg uses
// the built-in registry. Resolution stops at the first bad feature.
func New(cfg *config.Configuration, reg *Registry) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if reg == nil {
		reg = NewRegistry()
	}

	r := &Ranker{
		labels:      make([]string, len(cfg.Features)),
		extractors:  make([]ExtractFunc, len(cfg.Features)),
		normalizers: make([]NormalizeFunc, len(cfg.Features)),
	}

	for i, feature := range cfg.Features {
		ext, extractor, err := reg.resolveExtractor(feature.Extractor)
		if err != nil {
			return nil, &ConfigError{Feature: i, Name: feature.Extractor.Name, Err: err}
		}

		normalize, err := reg.resolveNormalizer(feature.Normalizer, ext)
		if err != nil {
			name := feature.Normalizer
			if name == "" {
				name = feature.Extractor.Name
			}
			return nil, &ConfigError{Feature: i, Name: name, Err: err}
		}

		r.labels[i] = feature.Extractor.String()
		r.extractors[i] = extractor
		r.normalizers[i] = normalize

		slog.Debug("Resolved feature",
			"index", i,
			"extractor", r.labels[i],
			"normalizer", feature.Normalizer,
			"emits", ext.Emits.String())
	}

	return r, nil
}

func (r *Registry) resolveExtractor(ref config.ExtractorRef) (Extractor, ExtractFunc, error) {
	ext, ok := r.Extractor(ref.Name)
	if !ok {
		return Extractor{}, nil, fmt.Errorf("%w: %q", ErrUnknownExtractor, ref.Name)
	}

	var params []any
	switch {
	case !ref.Parameterized:
		if ext.MinParams > 0 {
			return ext, nil, fmt.Errorf("%w: usage %s", ErrMissingParameters, ext.Usage)
		}
	case !ext.Parameterized():
		return ext, nil, fmt.Errorf("%w: %q does not take parameters", ErrUnexpectedParameters, ref.Name)
	case len(ref.Parameters) < ext.MinParams:
		return ext, nil, fmt.Errorf("%w: got %d, usage %s", ErrMissingParameters, len(ref.Parameters), ext.Usage)
	case len(ref.Parameters) > ext.MaxParams:
		return ext, nil, fmt.Errorf("%w: got %d, usage %s", ErrUnexpectedParameters, len(ref.Parameters), ext.Usage)
	default:
		params = ref.Parameters
	}

	extractor, err := ext.Build(params)
	if err != nil {
		return ext, nil, err
	}
	if extractor == nil {
		return ext, nil, fmt.Errorf("%w: %q did not yield an extractor", ErrInvalidParameter, ref.Name)
	}
	return ext, extractor, nil
}

// resolveNormalizer returns nil for a pass-through feature
func (r *Registry) resolveNormalizer(name string, ext Extractor) (NormalizeFunc, error) {
	if name == "" {
		if !ext.Emits.Subset(summableKinds) {
			return nil, fmt.Errorf("%w: %s scores (%s) need a normalizer", ErrIncompatibleNormalizer, ext.Name, ext.Emits)
		}
		return nil, nil
	}

	n, ok := r.Normalizer(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNormalizer, name)
	}
	if !ext.Emits.Subset(n.Accepts) {
		return nil, fmt.Errorf("%w: %s accepts %s, %s emits %s", ErrIncompatibleNormalizer, n.Name, n.Accepts, ext.Name, ext.Emits)
	}
	return n.Normalize, nil
}

// Len returns the number of features
func (r *Ranker) Len() int { return len(r.extractors) }

// Labels describes each feature's extractor, in feature order
func (r *Ranker) Labels() []string { return append([]string{}, r.labels...) }

// Extractors returns the resolved extractors, in feature order
func (r *Ranker) Extractors() []ExtractFunc { return append([]ExtractFunc{}, r.extractors...) }

// Normalizers returns the resolved normalizers, in feature order.
// Pass-through features are nil.
func (r *Ranker) Normalizers() []NormalizeFunc { return append([]NormalizeFunc{}, r.normalizers...) }

// Rank returns sum(normalized record1 vector) - sum(normalized record2 vector).
// Positive prefers record1, negative prefers record2, zero is a tie.
func (r *Ranker) Rank(rec1, rec2 *marc.Record) (int, error) {
	c, err := r.Compare(rec1, rec2)
	if err != nil {
		return 0, err
	}
	return c.Score, nil
}

// Comparison is the full trace of one ranking
type Comparison struct {
	Labels      []string `json:"labels" yaml:"labels"`
	Raw1        Vector   `json:"raw1" yaml:"raw1"`
	Raw2        Vector   `json:"raw2" yaml:"raw2"`
	Normalized1 Vector   `json:"normalized1" yaml:"normalized1"`
	Normalized2 Vector   `json:"normalized2" yaml:"normalized2"`
	Sum1        int      `json:"sum1" yaml:"sum1"`
	Sum2        int      `json:"sum2" yaml:"sum2"`
	Score       int      `json:"score" yaml:"score"`
}

// Preferred returns 1 or 2 for the preferred record, 0 on a tie
func (c *Comparison) Preferred() int {
	switch {
	case c.Score > 0:
		return 1
	case c.Score < 0:
		return 2
	}
	return 0
}

// Compare ranks the pair and keeps every intermediate vector
func (r *Ranker) Compare(rec1, rec2 *marc.Record) (*Comparison, error) {
	raw1, err := GenerateFeatureVector(rec1, r.extractors)
	if err != nil {
		return nil, fmt.Errorf("failed to extract features from record 1: %w", err)
	}
	raw2, err := GenerateFeatureVector(rec2, r.extractors)
	if err != nil {
		return nil, fmt.Errorf("failed to extract features from record 2: %w", err)
	}

	norm1, norm2, err := NormalizeVectors(raw1, raw2, r.normalizers)
	if err != nil {
		return nil, err
	}

	sum1, err := Sum(norm1)
	if err != nil {
		return nil, fmt.Errorf("failed to sum record 1 scores: %w", err)
	}
	sum2, err := Sum(norm2)
	if err != nil {
		return nil, fmt.Errorf("failed to sum record 2 scores: %w", err)
	}

	return &Comparison{
		Labels:      r.Labels(),
		Raw1:        raw1,
		Raw2:        raw2,
		Normalized1: norm1,
		Normalized2: norm2,
		Sum1:        sum1,
		Sum2:        sum2,
		Score:       sum1 - sum2,
	}, nil
}
