package rank

import (
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

// ExtractFunc turns one record into one score. It must not modify the record.
type ExtractFunc func(rec *marc.Record) (Score, error)

// ScoreFunc is an extractor that cannot fail
type ScoreFunc func(rec *marc.Record) Score

// Extract adapts f to an ExtractFunc
func (f ScoreFunc) Extract() ExtractFunc {
	return func(rec *marc.Record) (Score, error) {
		return f(rec), nil
	}
}

const unknownChar = "|"

// DefaultReprintPattern matches 500 notes on additional printings
var DefaultReprintPattern = regexp.MustCompile(`(?i)^Lisäp`)

// EncodingLevel scores leader position 17
func EncodingLevel(rec *marc.Record) Score {
	leader := []rune(rec.Leader)
	if rec.Leader == "" || len(leader) < 17 {
		return Undefined()
	}
	if len(leader) == 17 {
		return Null()
	}

	switch leader[17] {
	case '#':
		return Int(4)
	case 'u', 'z':
		return Null()
	case '1', '2', '4':
		return Int(3)
	case '5', '7':
		return Int(2)
	case '3', '8':
		return Int(1)
	}
	return Null()
}

// ControlfieldPosition returns count characters starting at index of the
// first control field with tag. A missing field yields count "|" characters;
// a value shorter than index yields undefined.
func ControlfieldPosition(tag string, index, count int) ScoreFunc {
	if count < 1 {
		count = 1
	}
	return func(rec *marc.Record) Score {
		field, ok := rec.FirstField(tag)
		if !ok {
			return Str(strings.Repeat(unknownChar, count))
		}

		value := []rune(field.Value)
		if len(value) < index {
			return Undefined()
		}
		end := len(value)
		if count < end-index {
			end = index + count
		}
		return Str(string(value[index:end]))
	}
}

var (
	catalogingSourcePosition = ControlfieldPosition("008", 39, 1)
	publicationYearPosition  = ControlfieldPosition("008", 7, 4)
	recordAgePosition        = ControlfieldPosition("008", 0, 6)
	languagePosition         = ControlfieldPosition("008", 35, 3)
)

// CatalogingSourceFrom008 scores 008 position 39
func CatalogingSourceFrom008(rec *marc.Record) Score {
	source, _ := catalogingSourcePosition(rec).Text()
	switch source {
	case "#":
		return Int(4)
	case "c":
		return Int(3)
	case "d":
		return Int(2)
	case "u":
		return Int(1)
	}
	return Int(0)
}

// PublicationYear returns 008/07-10
func PublicationYear(rec *marc.Record) Score {
	return publicationYearPosition(rec)
}

// RecordAge returns 008/00-05, the date the record was entered
func RecordAge(rec *marc.Record) Score {
	return recordAgePosition(rec)
}

// NonFinnishHELKA is 1 for a record held by HELKA whose language is not Finnish
func NonFinnishHELKA(rec *marc.Record) Score {
	language, _ := languagePosition(rec).Text()
	if strings.EqualFold(language, "fin") {
		return Int(0)
	}
	return SpecificLocalOwner("HELKA")(rec)
}

// LocalOwnerList collects the upper-cased organizations from LOW/a and SID/b,
// deduplicated in first-seen order
func LocalOwnerList(rec *marc.Record) []string {
	var owners []string
	for _, field := range rec.Fields {
		var code string
		switch field.Tag {
		case "LOW":
			code = "a"
		case "SID":
			code = "b"
		default:
			continue
		}
		if owner, ok := field.FirstSubfield(code); ok {
			owners = append(owners, strings.ToUpper(owner))
		}
	}
	return marc.Uniques(owners)
}

// LocalOwnerCount is the number of distinct local owners
func LocalOwnerCount(rec *marc.Record) Score {
	return Int(len(LocalOwnerList(rec)))
}

// SpecificSingleLocalOwner is 1 when owner is the record's only local owner
func SpecificSingleLocalOwner(owner string) ScoreFunc {
	want := strings.ToUpper(owner)
	return func(rec *marc.Record) Score {
		owners := LocalOwnerList(rec)
		if len(owners) == 1 && owners[0] == want {
			return Int(1)
		}
		return Int(0)
	}
}

// SpecificLocalOwner is 1 when LOW/a carries owner upper-cased or SID/b
// carries it lower-cased
func SpecificLocalOwner(owner string) ScoreFunc {
	low := SpecificFieldValue("LOW", []string{"a"}, []string{strings.ToUpper(owner)})
	sid := SpecificFieldValue("SID", []string{"b"}, []string{strings.ToLower(owner)})
	return func(rec *marc.Record) Score {
		if n, _ := low(rec).Number(); n == 1 {
			return Int(1)
		}
		return sid(rec)
	}
}

// SpecificFieldValue is 1 when a field with tag has a subfield whose code is
// in codes and whose value is in values
func SpecificFieldValue(tag string, codes, values []string) ScoreFunc {
	return func(rec *marc.Record) Score {
		for _, field := range rec.FieldsByTag(tag) {
			for _, sf := range field.Subfields {
				if slices.Contains(codes, sf.Code) && slices.Contains(values, sf.Value) {
					return Int(1)
				}
			}
		}
		return Int(0)
	}
}

// FieldCount counts fields with tag. When codes is non-nil it counts the
// subfields of those fields whose code is in codes instead.
func FieldCount(tag string, codes []string) ScoreFunc {
	return func(rec *marc.Record) Score {
		count := 0
		for _, field := range rec.FieldsByTag(tag) {
			if codes == nil {
				count++
				continue
			}
			for _, sf := range field.Subfields {
				if slices.Contains(codes, sf.Code) {
					count++
				}
			}
		}
		return Int(count)
	}
}

// FieldLength sums the character length of every field with tag
func FieldLength(tag string) ScoreFunc {
	return func(rec *marc.Record) Score {
		length := 0
		for _, field := range rec.FieldsByTag(tag) {
			if field.Subfields == nil {
				length += utf8.RuneCountInString(field.Value)
				continue
			}
			for _, sf := range field.Subfields {
				length += utf8.RuneCountInString(sf.Value)
			}
		}
		return Int(length)
	}
}

// ReprintInfoExtractor pairs the publication year with the 500/a notes
// matching pattern. A nil pattern uses DefaultReprintPattern.
func ReprintInfoExtractor(pattern *regexp.Regexp) ScoreFunc {
	if pattern == nil {
		pattern = DefaultReprintPattern
	}
	return func(rec *marc.Record) Score {
		year, _ := PublicationYear(rec).Text()
		notes := []string{}
		for _, field := range rec.FieldsByTag("500") {
			for _, sf := range field.SubfieldsByCode("a") {
				if pattern.MatchString(sf.Value) {
					notes = append(notes, sf.Value)
				}
			}
		}
		return Reprint(ReprintInfo{Year: year, Notes: notes})
	}
}

type changeEntry struct {
	user string
	date string
	time string
}

// LatestChange returns the date and time (YYYYMMDDHHmm) of the newest CAT
// entry accepted by isHuman, or the first 12 characters of 005 when none
// qualifies. A nil isHuman accepts every entry.
func LatestChange(isHuman func(user string) bool) ExtractFunc {
	return func(rec *marc.Record) (Score, error) {
		var changes []changeEntry
		for _, field := range rec.FieldsByTag("CAT") {
			entry := changeEntry{date: "0000", time: "0000"}
			entry.user, _ = field.FirstSubfield("a")
			if date, ok := field.FirstSubfield("c"); ok {
				entry.date = date
			}
			if t, ok := field.FirstSubfield("h"); ok {
				entry.time = t
			}
			if isHuman == nil || isHuman(entry.user) {
				changes = append(changes, entry)
			}
		}

		if len(changes) > 0 {
			sort.SliceStable(changes, func(i, j int) bool {
				di, dj := leadingInt(changes[i].date), leadingInt(changes[j].date)
				if di != dj {
					return di > dj
				}
				return leadingInt(changes[i].time) > leadingInt(changes[j].time)
			})
			return Str(changes[0].date + changes[0].time), nil
		}

		f005, ok := rec.FirstField("005")
		if !ok {
			return Undefined(), ErrMissingChangeDate
		}
		value := []rune(f005.Value)
		return Str(string(value[:min(12, len(value))])), nil
	}
}

// leadingInt parses the leading decimal digits of s, 0 when there are none.
// Values past math.MaxInt saturate.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int(r - '0')
		if n > (math.MaxInt-d)/10 {
			return math.MaxInt
		}
		n = n*10 + d
	}
	return n
}
