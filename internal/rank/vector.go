package rank

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

// Vector holds one score per configured feature, in feature order
type Vector []Score

func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, score := range v {
		parts[i] = score.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// GenerateFeatureVector applies each extractor to rec, in order
func GenerateFeatureVector(rec *marc.Record, extractors []ExtractFunc) (Vector, error) {
	vector := make(Vector, len(extractors))
	for i, extract := range extractors {
		score, err := extract(rec)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		vector[i] = score
	}
	return vector, nil
}

// NormalizeVectors normalizes each position of v1 and v2 against the other
// vector's raw value at the same position. The inputs are left untouched,
// so the result does not depend on evaluation order. A nil normalizer
// passes both scores through unchanged.
func NormalizeVectors(v1, v2 Vector, normalizers []NormalizeFunc) (Vector, Vector, error) {
	if len(v1) != len(v2) || len(v1) != len(normalizers) {
		return nil, nil, fmt.Errorf("%w: %d and %d scores for %d normalizers", ErrVectorLength, len(v1), len(v2), len(normalizers))
	}

	out1 := slices.Clone(v1)
	out2 := slices.Clone(v2)
	for i, normalize := range normalizers {
		if normalize == nil {
			continue
		}
		out1[i] = normalize(v1[i], v2[i])
		out2[i] = normalize(v2[i], v1[i])
	}
	return out1, out2, nil
}

// Sum adds up a normalized vector. Null and undefined count as 0.
func Sum(v Vector) (int, error) {
	total := 0
	for i, score := range v {
		n, err := score.summand()
		if err != nil {
			return 0, fmt.Errorf("feature %d: %w", i, err)
		}
		total += n
	}
	return total, nil
}
