// Package rank scores a pair of catalog records against an ordered list of
// features and decides which of the two should be kept as the master record.
package rank

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Kind is the variant held by a Score
type Kind uint8

const (
	// KindUndefined means the extractor has no opinion
	KindUndefined Kind = iota
	// KindNull means a value is present but unusable and should rank worst
	KindNull
	KindInt
	KindString
	KindReprint
)

var kindNames = [...]string{"undefined", "null", "int", "string", "reprint"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindSet is a set of score kinds
type KindSet uint8

// Kinds builds a set from the given kinds
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// AnyKind contains every score kind
var AnyKind = Kinds(KindUndefined, KindNull, KindInt, KindString, KindReprint)

// summableKinds can be added up without normalization
var summableKinds = Kinds(KindUndefined, KindNull, KindInt)

// Has reports whether k is in the set
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// Subset reports whether every kind in s is also in other
func (s KindSet) Subset(other KindSet) bool {
	return s&^other == 0
}

// Slice lists the kinds in the set in declaration order
func (s KindSet) Slice() []Kind {
	kinds := make([]Kind, 0, bits.OnesCount8(uint8(s)))
	for k := KindUndefined; k <= KindReprint; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s KindSet) String() string {
	names := make([]string, 0, 5)
	for _, k := range s.Slice() {
		names = append(names, k.String())
	}
	return strings.Join(names, "|")
}

// ReprintInfo pairs a publication year with the record's notes on reprints
type ReprintInfo struct {
	Year  string   `json:"year" yaml:"year"`
	Notes []string `json:"notes" yaml:"notes"`
}

// Score is the value an extractor produces for one record
type Score struct {
	kind    Kind
	num     int
	text    string
	reprint ReprintInfo
}

// Undefined returns the "no opinion" score
func Undefined() Score { return Score{kind: KindUndefined} }

// Null returns the "present but unusable" score
func Null() Score { return Score{kind: KindNull} }

// Int returns a numeric score
func Int(n int) Score { return Score{kind: KindInt, num: n} }

// Str returns a string score, compared lexically
func Str(s string) Score { return Score{kind: KindString, text: s} }

// Reprint returns a structured reprint score
func Reprint(info ReprintInfo) Score {
	info.Notes = slices.Clone(info.Notes)
	return Score{kind: KindReprint, reprint: info}
}

// Kind returns the variant of the score
func (s Score) Kind() Kind { return s.kind }

// Number returns the integer value and whether s is an int score
func (s Score) Number() (int, bool) { return s.num, s.kind == KindInt }

// Text returns the string value and whether s is a string score
func (s Score) Text() (string, bool) { return s.text, s.kind == KindString }

// ReprintInfo returns the reprint value and whether s is a reprint score
func (s Score) ReprintInfo() (ReprintInfo, bool) {
	if s.kind != KindReprint {
		return ReprintInfo{}, false
	}
	info := s.reprint
	info.Notes = slices.Clone(info.Notes)
	return info, true
}

// Equal reports whether both scores hold the same variant and value
func (s Score) Equal(other Score) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindInt:
		return s.num == other.num
	case KindString:
		return s.text == other.text
	case KindReprint:
		return s.reprint.Year == other.reprint.Year && slices.Equal(s.reprint.Notes, other.reprint.Notes)
	default:
		return true
	}
}

func (s Score) String() string {
	switch s.kind {
	case KindInt:
		return strconv.Itoa(s.num)
	case KindString:
		return strconv.Quote(s.text)
	case KindReprint:
		return fmt.Sprintf("reprint(year=%q, notes=%q)", s.reprint.Year, s.reprint.Notes)
	default:
		return s.kind.String()
	}
}

// value is the plain Go form used by the JSON and YAML encoders.
// Both undefined and null encode as null.
func (s Score) value() any {
	switch s.kind {
	case KindInt:
		return s.num
	case KindString:
		return s.text
	case KindReprint:
		return s.reprint
	default:
		return nil
	}
}

// MarshalJSON encodes the score as a plain JSON value
func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value())
}

// MarshalYAML encodes the score as a plain YAML value
func (s Score) MarshalYAML() (any, error) {
	return s.value(), nil
}

// summand converts a normalized score into a number that can be added up
func (s Score) summand() (int, error) {
	switch s.kind {
	case KindInt:
		return s.num, nil
	case KindNull, KindUndefined:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, s)
	}
}

// Greater reports s > other using loose relational ordering: numbers compare
// numerically, strings by codepoint, null counts as zero, a string against a
// number is read as a number, and undefined is never greater or lesser.
func (s Score) Greater(other Score) bool {
	if s.kind == KindString && other.kind == KindString {
		return s.text > other.text
	}

	a, ok := s.numeric()
	if !ok {
		return false
	}
	b, ok := other.numeric()
	if !ok {
		return false
	}
	return a > b
}

func (s Score) numeric() (float64, bool) {
	switch s.kind {
	case KindInt:
		return float64(s.num), true
	case KindNull:
		return 0, true
	case KindString:
		trimmed := strings.TrimSpace(s.text)
		if trimmed == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
