// Package dataset loads record pairs for batch ranking.
package dataset

import "github.com/lehigh-university-libraries/marcrank/internal/marc"

// Pair is one duplicate candidate pair
type Pair struct {
	ID      string      `json:"id" parquet:"id"`
	Record1 marc.Record `json:"record1" parquet:"record1"`
	Record2 marc.Record `json:"record2" parquet:"record2"`

	// Expected is the record a cataloger chose as master (1 or 2), 0 when unknown
	Expected int `json:"expected,omitempty" parquet:"expected,optional"`
}

// HasExpectation reports whether the pair carries a reference choice
func (p *Pair) HasExpectation() bool {
	return p.Expected == 1 || p.Expected == 2
}
