// Package marc holds the catalog record model consumed by the ranker and the
// codecs that read records from disk or from a catalog export.
package marc

// Record represents a bibliographic catalog record
type Record struct {
	Leader string  `json:"leader" parquet:"leader"`
	Fields []Field `json:"fields" parquet:"fields,list"`
}

// Field is a tagged data unit. Control fields (tag < 010) carry Value,
// data fields carry Subfields.
type Field struct {
	Tag       string     `json:"tag" parquet:"tag"`
	Ind1      string     `json:"ind1,omitempty" parquet:"ind1"`
	Ind2      string     `json:"ind2,omitempty" parquet:"ind2"`
	Value     string     `json:"value,omitempty" parquet:"value"`
	Subfields []Subfield `json:"subfields,omitempty" parquet:"subfields,list"`
}

// Subfield is a one character code plus a value
type Subfield struct {
	Code  string `json:"code" parquet:"code"`
	Value string `json:"value" parquet:"value"`
}

// IsControlTag reports whether tag names a control field
func IsControlTag(tag string) bool {
	return len(tag) == 3 && tag < "010"
}

// IsControlField reports whether the field is a control field
func (f Field) IsControlField() bool {
	return IsControlTag(f.Tag)
}

// FieldsByTag returns every field with the given tag, in record order
func (r *Record) FieldsByTag(tag string) []Field {
	var fields []Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			fields = append(fields, f)
		}
	}
	return fields
}

// FirstField returns the first field with the given tag
func (r *Record) FirstField(tag string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

// SubfieldsByCode returns the subfields with the given code, in field order
func (f Field) SubfieldsByCode(code string) []Subfield {
	var subfields []Subfield
	for _, sf := range f.Subfields {
		if sf.Code == code {
			subfields = append(subfields, sf)
		}
	}
	return subfields
}

// FirstSubfield returns the value of the first subfield with the given code
func (f Field) FirstSubfield(code string) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// AppendControlField appends a control field and returns the record
func (r *Record) AppendControlField(tag, value string) *Record {
	r.Fields = append(r.Fields, Field{Tag: tag, Value: value})
	return r
}

// AppendField appends a data field built from alternating code/value pairs:
//
//	rec.AppendField("LOW", " ", " ", "a", "HELKA")
func (r *Record) AppendField(tag, ind1, ind2 string, codesAndValues ...string) *Record {
	f := Field{Tag: tag, Ind1: ind1, Ind2: ind2, Subfields: []Subfield{}}
	for i := 0; i+1 < len(codesAndValues); i += 2 {
		f.Subfields = append(f.Subfields, Subfield{Code: codesAndValues[i], Value: codesAndValues[i+1]})
	}
	r.Fields = append(r.Fields, f)
	return r
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	clone := &Record{Leader: r.Leader, Fields: make([]Field, len(r.Fields))}
	for i, f := range r.Fields {
		clone.Fields[i] = f
		if f.Subfields != nil {
			clone.Fields[i].Subfields = append([]Subfield{}, f.Subfields...)
		}
	}
	return clone
}

// Uniques removes duplicates from items, keeping the first occurrence
func Uniques[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
