package rank

import "strings"

// NormalizeFunc turns a record's raw score into a comparable number, given
// the opposing record's raw score for the same feature
type NormalizeFunc func(own, other Score) Score

// Normalizer is a named NormalizeFunc plus the score kinds it accepts
type Normalizer struct {
	Name        string
	Description string
	Accepts     KindSet
	Normalize   NormalizeFunc
}

// Lexical is 1 when own is greater than other
func Lexical(own, other Score) Score {
	if own.Greater(other) {
		return Int(1)
	}
	return Int(0)
}

// NotNull is 1 when other is null and own is not
func NotNull(own, other Score) Score {
	if other.Kind() == KindNull && own.Kind() != KindNull {
		return Int(1)
	}
	return Int(0)
}

// Invert always scores 0, which removes the feature from the ranking
func Invert(_, _ Score) Score {
	return Int(0)
}

// ReprintNormalizer is 0 when other's reprint notes mention own's year, and
// 1 when own's reprint notes mention other's year
func ReprintNormalizer(own, other Score) Score {
	ownInfo, ok := own.ReprintInfo()
	if !ok {
		return Int(0)
	}
	otherInfo, ok := other.ReprintInfo()
	if !ok {
		return Int(0)
	}

	if mentionsYear(otherInfo.Notes, ownInfo.Year) {
		return Int(0)
	}
	if mentionsYear(ownInfo.Notes, otherInfo.Year) {
		return Int(1)
	}
	return Int(0)
}

func mentionsYear(notes []string, year string) bool {
	if year == "" {
		return false
	}
	for _, note := range notes {
		if strings.Contains(note, year) {
			return true
		}
	}
	return false
}

func defaultNormalizers() []Normalizer {
	return []Normalizer{
		{
			Name:        "lexical",
			Description: "1 if own score is greater than the other record's",
			Accepts:     Kinds(KindUndefined, KindNull, KindInt, KindString),
			Normalize:   Lexical,
		},
		{
			Name:        "notNull",
			Description: "1 if the other record's score is null and own score is not",
			Accepts:     AnyKind,
			Normalize:   NotNull,
		},
		{
			Name:        "invert",
			Description: "always 0",
			Accepts:     AnyKind,
			Normalize:   Invert,
		},
		{
			Name:        "reprint",
			Description: "1 if own reprint notes mention the other record's year, 0 if the other's notes mention own year",
			Accepts:     Kinds(KindReprint),
			Normalize:   ReprintNormalizer,
		},
	}
}
