package idformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedFormat is returned when a format document is not a JSON array
// of objects. Callers report it; they never guess a fallback format.
var ErrMalformedFormat = errors.New("malformed id format")

// documentSchema only checks the outer structure. Segment fields are read
// leniently by Parse.
const documentSchema = `{
	"type": "array",
	"items": {"type": "object"}
}`

var formatSchema = mustSchema(documentSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("idformat: compile document schema: %v", err))
	}
	return s
}

// Parse reads a format document into an ordered list of segments.
//
// An empty document (or JSON null) is an empty format. Segments whose type is
// unknown are dropped. Missing or mistyped fields take per-type defaults.
func Parse(doc []byte) ([]Segment, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Segment{}, nil
	}

	res, err := formatSchema.Validate(gojsonschema.NewBytesLoader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFormat, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedFormat, strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFormat, err)
	}

	segments := make([]Segment, 0, len(objs))
	for _, obj := range objs {
		seg, ok := parseSegment(obj)
		if !ok {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseSegment(obj map[string]any) (Segment, bool) {
	typ, ok := parseSegmentType(stringField(obj, "type", ""))
	if !ok {
		return Segment{}, false
	}

	seg := Segment{ID: stringField(obj, "id", ""), Type: typ}
	switch typ {
	case TypeFixedText:
		seg.Value = stringField(obj, "value", "")
	case TypeSequence:
		seg.StartValue = intField(obj, "startValue", DefaultStartValue)
		seg.Step = intField(obj, "step", DefaultStep)
		seg.Padding = intField(obj, "padding", DefaultPadding)
	case TypeDate:
		seg.Format = stringField(obj, "format", DefaultDateFormat)
	case TypeRandomNumbers:
		seg.Format = stringField(obj, "format", "")
		seg.Length = int(intField(obj, "length", 0))
	case TypeGuid:
		seg.Format = stringField(obj, "format", DefaultGuidFormat)
	}
	return seg, true
}

// lookup finds a key case-insensitively. An exact match wins; among several
// case variants the lexically smallest key is used so parsing is stable.
func lookup(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	var keys []string
	for k := range obj {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return obj[keys[0]], true
}

func stringField(obj map[string]any, name, def string) string {
	v, ok := lookup(obj, name)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func intField(obj map[string]any, name string, def int64) int64 {
	v, ok := lookup(obj, name)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	}
	return def
}
