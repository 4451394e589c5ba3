// Package idformat implements user-defined item id formats: an ordered list
// of segments that is parsed from a stored JSON document, rendered into
// concrete ids and used to check ids that were edited by hand.
package idformat

import "strings"

// SegmentType is the discriminant of a Segment. It is also the value of the
// "type" key in the serialized format document.
type SegmentType string

const (
	TypeFixedText     SegmentType = "fixedText"
	TypeSequence      SegmentType = "sequence"
	TypeDate          SegmentType = "date"
	TypeRandomNumbers SegmentType = "randomNumbers"
	TypeGuid          SegmentType = "guid"
)

// String returns the string representation of the segment type.
func (t SegmentType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known segment types.
func (t SegmentType) IsValid() bool {
	switch t {
	case TypeFixedText, TypeSequence, TypeDate, TypeRandomNumbers, TypeGuid:
		return true
	}
	return false
}

// parseSegmentType matches a discriminant case-insensitively.
func parseSegmentType(s string) (SegmentType, bool) {
	for _, t := range []SegmentType{TypeFixedText, TypeSequence, TypeDate, TypeRandomNumbers, TypeGuid} {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Random number formats.
const (
	Random20Bit  = "20-bit"
	Random32Bit  = "32-bit"
	Random6Digit = "6-digit"
	Random9Digit = "9-digit"
)

// GUID layouts.
const (
	GuidN = "N" // 32 hex digits
	GuidD = "D" // 8-4-4-4-12
	GuidB = "B" // {8-4-4-4-12}
	GuidP = "P" // (8-4-4-4-12)
)

// Per-type defaults applied by Parse when a field is missing.
const (
	DefaultStartValue int64 = 1
	DefaultStep       int64 = 1
	DefaultPadding    int64 = 1
	DefaultDateFormat       = "yyyyMMdd"
	DefaultGuidFormat       = GuidN
)

// Segment is one piece of an id format. Type selects which of the variant
// fields are meaningful:
//
//	fixedText      Value
//	sequence       StartValue, Step, Padding
//	date           Format
//	randomNumbers  Format (generation), Length (validation variant)
//	guid           Format
type Segment struct {
	ID   string
	Type SegmentType

	Value string

	StartValue int64
	Step       int64
	Padding    int64

	Format string
	Length int
}

// FixedText returns a fixed text segment.
func FixedText(id, value string) Segment {
	return Segment{ID: id, Type: TypeFixedText, Value: value}
}

// Sequence returns a sequence segment.
func Sequence(id string, start, step, padding int64) Segment {
	return Segment{ID: id, Type: TypeSequence, StartValue: start, Step: step, Padding: padding}
}

// Date returns a date segment rendered with the given pattern.
func Date(id, format string) Segment {
	return Segment{ID: id, Type: TypeDate, Format: format}
}

// RandomNumbers returns a random digits segment with one of the Random* formats.
func RandomNumbers(id, format string) Segment {
	return Segment{ID: id, Type: TypeRandomNumbers, Format: format}
}

// Guid returns a GUID segment with one of the Guid* layouts.
func Guid(id, format string) Segment {
	return Segment{ID: id, Type: TypeGuid, Format: format}
}

// step returns the effective counter increment; counters must strictly increase.
func (s Segment) step() int64 {
	if s.Step < 1 {
		return 1
	}
	return s.Step
}

// padding returns the effective zero-padding width, clamped to maxRepeat.
func (s Segment) padding() int {
	if s.Padding < 1 {
		return 1
	}
	if s.Padding > maxRepeat {
		return maxRepeat
	}
	return int(s.Padding)
}

// length returns the explicit random digit count, clamped to maxRepeat.
func (s Segment) length() int {
	if s.Length > maxRepeat {
		return maxRepeat
	}
	return s.Length
}

// SequenceSegments returns the sequence segments of a format in order.
func SequenceSegments(segments []Segment) []Segment {
	var out []Segment
	for _, s := range segments {
		if s.Type == TypeSequence {
			out = append(out, s)
		}
	}
	return out
}
