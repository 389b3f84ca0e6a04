package domain

import "strings"

// Field is a category of achievement that partitions the ranking space.
type Field string

const (
	FieldAcademics  Field = "academics"
	FieldSports     Field = "sports"
	FieldMusic      Field = "music"
	FieldDance      Field = "dance"
	FieldArt        Field = "art"
	FieldTechnology Field = "technology"
	FieldLeadership Field = "leadership"
	FieldOther      Field = "other"
)

var allFields = []Field{
	FieldAcademics,
	FieldSports,
	FieldMusic,
	FieldDance,
	FieldArt,
	FieldTechnology,
	FieldLeadership,
	FieldOther,
}

// AllFields returns every known field in declaration order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

func (f Field) String() string { return string(f) }

func (f Field) IsValid() bool {
	switch f {
	case FieldAcademics, FieldSports, FieldMusic, FieldDance,
		FieldArt, FieldTechnology, FieldLeadership, FieldOther:
		return true
	}
	return false
}

// ParseField parses a field name strictly. Used by the read and admin APIs,
// where an unknown name is a validation error.
func ParseField(s string) (Field, bool) {
	f := normalizeFieldName(s)
	return f, f.IsValid()
}

// FieldFromCategory maps a free-text post category or a user's declared
// field of interest onto a known field. Empty or unknown values fall back
// to FieldOther.
func FieldFromCategory(s string) Field {
	f := normalizeFieldName(s)
	if !f.IsValid() {
		return FieldOther
	}
	return f
}

func normalizeFieldName(s string) Field {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "arts":
		return FieldArt
	case "tech":
		return FieldTechnology
	}
	return Field(name)
}
