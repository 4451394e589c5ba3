package idformat

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// SequenceState holds the last persisted value of each sequence segment,
// keyed by segment id. A missing key means the counter was never used.
type SequenceState map[string]int64

// Result is the output of one id generation.
type Result struct {
	// ID is the rendered id; empty when the format has no segments.
	ID string
	// Boundaries holds the length in runes of each segment's output, in
	// segment order.
	Boundaries []int
	// Sequences holds the advanced value of every sequence segment. The
	// caller persists these together with the item carrying ID.
	Sequences map[string]int64
}

// Generator renders ids. The zero value is not usable; use NewGenerator.
type Generator struct {
	Now    func() time.Time
	Source Source
}

// NewGenerator returns a Generator using the wall clock and crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		Now:    func() time.Time { return time.Now().UTC() },
		Source: CryptoSource{},
	}
}

// ErrSequenceExhausted is returned when a sequence counter cannot advance
// without overflowing int64.
var ErrSequenceExhausted = errors.New("sequence exhausted")

// NextSequenceValue returns the value a sequence segment emits next given its
// last persisted value.
func NextSequenceValue(prior *int64, seg Segment) (int64, error) {
	if prior == nil || *prior < seg.StartValue {
		return seg.StartValue, nil
	}
	step := seg.step()
	if *prior > math.MaxInt64-step {
		return 0, fmt.Errorf("%w: segment %s is at %d", ErrSequenceExhausted, seg.ID, *prior)
	}
	return *prior + step, nil
}

// Generate renders segments into an id. It fails only when a sequence is
// exhausted; uniqueness is the caller's concern, enforced on persist.
func (g *Generator) Generate(state SequenceState, segments []Segment) (Result, error) {
	res := Result{
		Boundaries: make([]int, 0, len(segments)),
		Sequences:  make(map[string]int64),
	}

	for _, seg := range SequenceSegments(segments) {
		if _, done := res.Sequences[seg.ID]; done {
			continue
		}
		var prior *int64
		if v, ok := state[seg.ID]; ok {
			prior = &v
		}
		next, err := NextSequenceValue(prior, seg)
		if err != nil {
			return Result{}, err
		}
		res.Sequences[seg.ID] = next
	}

	now := g.Now().UTC()
	var b strings.Builder
	for _, seg := range segments {
		part := g.render(seg, now, res.Sequences)
		b.WriteString(part)
		res.Boundaries = append(res.Boundaries, utf8.RuneCountInString(part))
	}
	res.ID = b.String()
	return res, nil
}

func (g *Generator) render(seg Segment, now time.Time, seqs map[string]int64) string {
	switch seg.Type {
	case TypeFixedText:
		return seg.Value
	case TypeSequence:
		return padNumber(seqs[seg.ID], seg.padding())
	case TypeDate:
		f := seg.Format
		if f == "" {
			f = DefaultDateFormat
		}
		return FormatDate(now, f)
	case TypeRandomNumbers:
		return g.randomDigits(seg)
	case TypeGuid:
		return formatGuid(g.Source.UUID().String(), seg.Format)
	}
	return ""
}

func padNumber(v int64, width int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

func (g *Generator) randomDigits(seg Segment) string {
	switch strings.ToLower(seg.Format) {
	case Random9Digit:
		return g.Source.Digits(9)
	case Random6Digit:
		return g.Source.Digits(6)
	case Random32Bit:
		return strconv.FormatUint(uint64(g.Source.Uint32()), 10)
	case Random20Bit:
		return strconv.FormatUint(uint64(g.Source.Uint32()&(1<<20-1)), 10)
	}
	if n := seg.length(); n > 0 {
		return g.Source.Digits(n)
	}
	return g.Source.Digits(6)
}

// formatGuid lays out a hyphenated 8-4-4-4-12 GUID string. Unknown layouts
// render as N.
func formatGuid(d, layout string) string {
	switch strings.ToUpper(layout) {
	case GuidD:
		return d
	case GuidB:
		return "{" + d + "}"
	case GuidP:
		return "(" + d + ")"
	}
	return strings.ReplaceAll(d, "-", "")
}

// FormatBoundaries encodes segment boundaries as a comma separated list.
func FormatBoundaries(b []int) string {
	parts := make([]string, len(b))
	for i, n := range b {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseBoundaries decodes the FormatBoundaries encoding.
func ParseBoundaries(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid segment boundary %q", p)
		}
		out[i] = n
	}
	return out, nil
}

// Split cuts id into per-segment parts using boundaries recorded at
// generation time. The boundaries must cover id exactly.
func Split(id string, boundaries []int) ([]string, error) {
	rs := []rune(id)
	total := 0
	for _, n := range boundaries {
		total += n
	}
	if total != len(rs) {
		return nil, fmt.Errorf("boundaries cover %d characters, id has %d", total, len(rs))
	}
	parts := make([]string, len(boundaries))
	pos := 0
	for i, n := range boundaries {
		parts[i] = string(rs[pos : pos+n])
		pos += n
	}
	return parts, nil
}
