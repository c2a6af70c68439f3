package rank

import (
	"fmt"
	"regexp"
	"sort"
)

// BuildFunc binds factory parameters and returns the extractor.
// len(params) is already checked against the declared arity.
type BuildFunc func(params []any) (ExtractFunc, error)

// Extractor is a registry entry. Entries with MaxParams == 0 are plain
// extractors; the others are factories.
type Extractor struct {
	Name        string
	Usage       string
	Description string
	Emits       KindSet
	MinParams   int
	MaxParams   int
	Build       BuildFunc
}

// Parameterized reports whether the entry is a factory
func (e Extractor) Parameterized() bool {
	return e.MaxParams > 0
}

// NewExtractor returns an entry for a plain extractor
func NewExtractor(name, description string, emits KindSet, fn ExtractFunc) Extractor {
	return Extractor{
		Name:        name,
		Usage:       name,
		Description: description,
		Emits:       emits,
		Build: func([]any) (ExtractFunc, error) {
			return fn, nil
		},
	}
}

// Registry maps names to extractors and normalizers. It is not modified
// after NewRegistry returns, so one Registry can back any number of Rankers.
type Registry struct {
	extractors  map[string]Extractor
	normalizers map[string]Normalizer
}

// Option customizes a Registry
type Option func(*Registry)

// WithExtractor adds or replaces an extractor
func WithExtractor(e Extractor) Option {
	return func(r *Registry) {
		r.extractors[e.Name] = e
	}
}

// WithNormalizer adds or replaces a normalizer
func WithNormalizer(n Normalizer) Option {
	return func(r *Registry) {
		r.normalizers[n.Name] = n
	}
}

// NewRegistry returns a registry holding the built-in extractors and
// normalizers, with opts applied on top
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		extractors:  make(map[string]Extractor),
		normalizers: make(map[string]Normalizer),
	}
	for _, e := range defaultExtractors() {
		r.extractors[e.Name] = e
	}
	for _, n := range defaultNormalizers() {
		r.normalizers[n.Name] = n
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extractor looks up an extractor by name
func (r *Registry) Extractor(name string) (Extractor, bool) {
	e, ok := r.extractors[name]
	return e, ok
}

// Normalizer looks up a normalizer by name
func (r *Registry) Normalizer(name string) (Normalizer, bool) {
	n, ok := r.normalizers[name]
	return n, ok
}

// Extractors returns every extractor sorted by name
func (r *Registry) Extractors() []Extractor {
	result := make([]Extractor, 0, len(r.extractors))
	for _, e := range r.extractors {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Normalizers returns every normalizer sorted by name
func (r *Registry) Normalizers() []Normalizer {
	result := make([]Normalizer, 0, len(r.normalizers))
	for _, n := range r.normalizers {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

var (
	stringKinds = Kinds(KindString, KindUndefined)
	intKinds    = Kinds(KindInt)
)

func defaultExtractors() []Extractor {
	return []Extractor{
		NewExtractor("encodingLevel", "leader/17 encoding level: # 4, 1 2 4 3, 5 7 2, 3 8 1, others null",
			Kinds(KindUndefined, KindNull, KindInt), ScoreFunc(EncodingLevel).Extract()),
		NewExtractor("catalogingSourceFrom008", "008/39 cataloging source: # 4, c 3, d 2, u 1, others 0",
			intKinds, ScoreFunc(CatalogingSourceFrom008).Extract()),
		NewExtractor("publicationYear", "008/07-10 publication year",
			stringKinds, ScoreFunc(PublicationYear).Extract()),
		NewExtractor("recordAge", "008/00-05 date entered on file",
			stringKinds, ScoreFunc(RecordAge).Extract()),
		NewExtractor("nonFinnishHELKA", "1 if held by HELKA and 008/35-37 is not fin",
			intKinds, ScoreFunc(NonFinnishHELKA).Extract()),
		NewExtractor("localOwnerCount", "number of distinct LOW/a and SID/b organizations",
			intKinds, ScoreFunc(LocalOwnerCount).Extract()),
		{
			Name:        "controlfieldPosition",
			Usage:       "controlfieldPosition(tag, index, count=1)",
			Description: "count characters at index of the first control field with tag",
			Emits:       stringKinds,
			MinParams:   2,
			MaxParams:   3,
			Build:       buildControlfieldPosition,
		},
		{
			Name:        "specificSingleLocalOwner",
			Usage:       "specificSingleLocalOwner(owner)",
			Description: "1 if owner is the only local owner",
			Emits:       intKinds,
			MinParams:   1,
			MaxParams:   1,
			Build:       buildOwnerExtractor(SpecificSingleLocalOwner),
		},
		{
			Name:        "specificLocalOwner",
			Usage:       "specificLocalOwner(owner)",
			Description: "1 if LOW/a is owner upper-cased or SID/b is owner lower-cased",
			Emits:       intKinds,
			MinParams:   1,
			MaxParams:   1,
			Build:       buildOwnerExtractor(SpecificLocalOwner),
		},
		{
			Name:        "specificFieldValue",
			Usage:       "specificFieldValue(tag, codes, values)",
			Description: "1 if a field with tag has a subfield with one of codes holding one of values",
			Emits:       intKinds,
			MinParams:   3,
			MaxParams:   3,
			Build:       buildSpecificFieldValue,
		},
		{
			Name:        "fieldCount",
			Usage:       "fieldCount(tag, codes?)",
			Description: "number of fields with tag, or of their subfields with one of codes",
			Emits:       intKinds,
			MinParams:   1,
			MaxParams:   2,
			Build:       buildFieldCount,
		},
		{
			Name:        "fieldLength",
			Usage:       "fieldLength(tag)",
			Description: "total characters in every field with tag",
			Emits:       intKinds,
			MinParams:   1,
			MaxParams:   1,
			Build:       buildFieldLength,
		},
		{
			Name:        "reprintInfo",
			Usage:       "reprintInfo(pattern?)",
			Description: "publication year plus 500/a notes on reprints",
			Emits:       Kinds(KindReprint),
			MinParams:   0,
			MaxParams:   1,
			Build:       buildReprintInfo,
		},
		{
			Name:        "latestChange",
			Usage:       "latestChange(userExpr?)",
			Description: "YYYYMMDDHHmm of the newest CAT entry whose user passes userExpr, else 005",
			Emits:       Kinds(KindString),
			MinParams:   0,
			MaxParams:   1,
			Build:       buildLatestChange,
		},
	}
}

func buildControlfieldPosition(params []any) (ExtractFunc, error) {
	tag, err := paramString(params, 0, "tag")
	if err != nil {
		return nil, err
	}
	index, err := paramNonNegativeInt(params, 1, "index")
	if err != nil {
		return nil, err
	}
	count := 1
	if len(params) > 2 {
		if count, err = paramNonNegativeInt(params, 2, "count"); err != nil {
			return nil, err
		}
	}
	return ControlfieldPosition(tag, index, count).Extract(), nil
}

func buildOwnerExtractor(factory func(string) ScoreFunc) BuildFunc {
	return func(params []any) (ExtractFunc, error) {
		owner, err := paramString(params, 0, "owner")
		if err != nil {
			return nil, err
		}
		return factory(owner).Extract(), nil
	}
}

func buildSpecificFieldValue(params []any) (ExtractFunc, error) {
	tag, err := paramString(params, 0, "tag")
	if err != nil {
		return nil, err
	}
	codes, err := paramStrings(params, 1, "codes")
	if err != nil {
		return nil, err
	}
	values, err := paramStrings(params, 2, "values")
	if err != nil {
		return nil, err
	}
	return SpecificFieldValue(tag, codes, values).Extract(), nil
}

func buildFieldCount(params []any) (ExtractFunc, error) {
	tag, err := paramString(params, 0, "tag")
	if err != nil {
		return nil, err
	}
	var codes []string
	if len(params) > 1 {
		if codes, err = paramStrings(params, 1, "codes"); err != nil {
			return nil, err
		}
	}
	return FieldCount(tag, codes).Extract(), nil
}

func buildFieldLength(params []any) (ExtractFunc, error) {
	tag, err := paramString(params, 0, "tag")
	if err != nil {
		return nil, err
	}
	return FieldLength(tag).Extract(), nil
}

func buildReprintInfo(params []any) (ExtractFunc, error) {
	if len(params) == 0 {
		return ReprintInfoExtractor(nil).Extract(), nil
	}
	expr, err := paramString(params, 0, "pattern")
	if err != nil {
		return nil, err
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidParameter, expr, err)
	}
	return ReprintInfoExtractor(pattern).Extract(), nil
}

func buildLatestChange(params []any) (ExtractFunc, error) {
	if len(params) == 0 {
		return LatestChange(nil), nil
	}
	expr, err := paramString(params, 0, "userExpr")
	if err != nil {
		return nil, err
	}
	isHuman, err := CompileUserPredicate(expr)
	if err != nil {
		return nil, err
	}
	return LatestChange(isHuman), nil
}
