package idformat

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// stubSource returns fixed values so rendered ids are predictable.
type stubSource struct {
	u32  uint32
	uuid uuid.UUID
}

func (s stubSource) Digits(n int) string { return strings.Repeat("7", n) }
func (s stubSource) Uint32() uint32      { return s.u32 }
func (s stubSource) UUID() uuid.UUID     { return s.uuid }

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.UTC)

func newTestGenerator() *Generator {
	return &Generator{
		Now: func() time.Time { return fixedNow },
		Source: stubSource{
			u32:  4294967295,
			uuid: uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		},
	}
}

func mustGenerate(t *testing.T, g *Generator, state SequenceState, segments []Segment) Result {
	t.Helper()
	res, err := g.Generate(state, segments)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return res
}

func TestNextSequenceValue(t *testing.T) {
	seg := Sequence("s", 10, 5, 1)
	p := func(v int64) *int64 { return &v }
	for _, tc := range []struct {
		name  string
		prior *int64
		want  int64
	}{
		{"absent", nil, 10},
		{"below start", p(3), 10},
		{"at start", p(10), 15},
		{"above start", p(40), 45},
	} {
		got, err := NextSequenceValue(tc.prior, seg)
		if err != nil {
			t.Fatalf("%s: NextSequenceValue() error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: NextSequenceValue() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestNextSequenceValue_NonPositiveStep(t *testing.T) {
	v := int64(4)
	if got, err := NextSequenceValue(&v, Sequence("s", 1, 0, 1)); err != nil || got != 5 {
		t.Errorf("NextSequenceValue() = %d, %v; want 5", got, err)
	}
}

func TestNextSequenceValue_Exhausted(t *testing.T) {
	for _, tc := range []struct {
		name  string
		prior int64
		step  int64
		want  int64
		fails bool
	}{
		{"reaches max", math.MaxInt64 - 1, 1, math.MaxInt64, false},
		{"at max", math.MaxInt64, 1, 0, true},
		{"large step", math.MaxInt64 - 5, 10, 0, true},
	} {
		prior := tc.prior
		got, err := NextSequenceValue(&prior, Sequence("s", 1, tc.step, 1))
		if tc.fails {
			if !errors.Is(err, ErrSequenceExhausted) {
				t.Errorf("%s: error = %v, want ErrSequenceExhausted", tc.name, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%s: NextSequenceValue() = %d, %v; want %d", tc.name, got, err, tc.want)
		}
	}
}

func TestGenerate_SequenceExhausted(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{FixedText("f", "A"), Sequence("s", 1, 1, 1)}
	res, err := g.Generate(SequenceState{"s": math.MaxInt64}, segs)
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("Generate() error = %v, want ErrSequenceExhausted", err)
	}
	if res.ID != "" || res.Sequences != nil {
		t.Fatalf("Generate() result = %+v, want zero value", res)
	}
}

func TestGenerate_ClampsOversizedWidths(t *testing.T) {
	g := newTestGenerator()
	for _, seg := range []Segment{
		Sequence("s", 1, 1, math.MaxInt64),
		{ID: "r", Type: TypeRandomNumbers, Length: 1 << 40},
	} {
		id := mustGenerate(t, g, nil, []Segment{seg}).ID
		if len(id) != maxRepeat {
			t.Errorf("%+v: len(ID) = %d, want %d", seg, len(id), maxRepeat)
		}
	}
}

func TestGenerate_Padding(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{Sequence("s", 1, 1, 4)}
	for _, tc := range []struct {
		prior int64
		want  string
	}{
		{6, "0007"},
		{12344, "12345"},
	} {
		res := mustGenerate(t, g, SequenceState{"s": tc.prior}, segs)
		if res.ID != tc.want {
			t.Errorf("Generate(prior=%d) = %q, want %q", tc.prior, res.ID, tc.want)
		}
	}
}

func TestGenerate_InventoryScenario(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{FixedText("f", "INV-"), Sequence("s", 1, 1, 3)}

	state := SequenceState{}
	first := mustGenerate(t, g, state, segs)
	if first.ID != "INV-001" {
		t.Fatalf("first id = %q, want INV-001", first.ID)
	}
	if first.Sequences["s"] != 1 {
		t.Fatalf("first sequence = %d, want 1", first.Sequences["s"])
	}
	if !reflect.DeepEqual(first.Boundaries, []int{4, 3}) {
		t.Fatalf("boundaries = %v, want [4 3]", first.Boundaries)
	}

	state["s"] = first.Sequences["s"]
	second := mustGenerate(t, g, state, segs)
	if second.ID != "INV-002" {
		t.Fatalf("second id = %q, want INV-002", second.ID)
	}
}

func TestGenerate_StrictlyIncreasing(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{Sequence("s", 7, 3, 1)}
	state := SequenceState{}
	var last int64
	for i := 0; i < 50; i++ {
		res := mustGenerate(t, g, state, segs)
		v := res.Sequences["s"]
		if i == 0 && v != 7 {
			t.Fatalf("first value = %d, want start value 7", v)
		}
		if i > 0 && v <= last {
			t.Fatalf("value %d did not increase past %d", v, last)
		}
		last = v
		state["s"] = v
	}
}

func TestGenerate_NoSequenceLeavesStateAlone(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{FixedText("f", "X"), Guid("g", GuidN), RandomNumbers("r", Random9Digit)}
	state := SequenceState{"other": 41}
	for i := 0; i < 5; i++ {
		res := mustGenerate(t, g, state, segs)
		if len(res.Sequences) != 0 {
			t.Fatalf("Sequences = %v, want empty", res.Sequences)
		}
	}
	if !reflect.DeepEqual(state, SequenceState{"other": 41}) {
		t.Fatalf("state mutated: %v", state)
	}
}

func TestGenerate_MultipleSequences(t *testing.T) {
	g := newTestGenerator()
	segs := []Segment{Sequence("a", 1, 1, 2), FixedText("f", "/"), Sequence("b", 100, 10, 1)}
	res := mustGenerate(t, g, SequenceState{"a": 4}, segs)
	if res.ID != "05/100" {
		t.Fatalf("ID = %q, want 05/100", res.ID)
	}
	if res.Sequences["a"] != 5 || res.Sequences["b"] != 100 {
		t.Fatalf("Sequences = %v", res.Sequences)
	}
}

func TestGenerate_Empty(t *testing.T) {
	res := mustGenerate(t, newTestGenerator(), nil, nil)
	if res.ID != "" || len(res.Boundaries) != 0 || len(res.Sequences) != 0 {
		t.Fatalf("Generate(nil) = %+v, want empty result", res)
	}
}

func TestGenerate_Guid(t *testing.T) {
	g := newTestGenerator()
	for _, tc := range []struct {
		layout string
		want   string
	}{
		{GuidN, "0f8fad5bd9cb469fa16570867728950e"},
		{GuidD, "0f8fad5b-d9cb-469f-a165-70867728950e"},
		{GuidB, "{0f8fad5b-d9cb-469f-a165-70867728950e}"},
		{GuidP, "(0f8fad5b-d9cb-469f-a165-70867728950e)"},
		{"d", "0f8fad5b-d9cb-469f-a165-70867728950e"},
	} {
		res := mustGenerate(t, g, nil, []Segment{Guid("g", tc.layout)})
		if res.ID != tc.want {
			t.Errorf("Guid(%q) = %q, want %q", tc.layout, res.ID, tc.want)
		}
	}
}

func TestGenerate_GuidDMatchesPattern(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	segs := []Segment{Guid("g", GuidD)}
	g := NewGenerator()
	for i := 0; i < 20; i++ {
		id := mustGenerate(t, g, nil, segs).ID
		if !re.MatchString(id) {
			t.Fatalf("id %q does not match GUID D layout", id)
		}
		if !IsValid(id, segs) {
			t.Fatalf("IsValid(%q) = false", id)
		}
	}
}

func TestGenerate_RandomNumbers(t *testing.T) {
	g := newTestGenerator()
	for _, tc := range []struct {
		seg  Segment
		want string
	}{
		{RandomNumbers("r", Random9Digit), "777777777"},
		{RandomNumbers("r", Random6Digit), "777777"},
		{RandomNumbers("r", Random32Bit), "4294967295"},
		{RandomNumbers("r", Random20Bit), "1048575"},
		{Segment{ID: "r", Type: TypeRandomNumbers, Length: 3}, "777"},
	} {
		if got := mustGenerate(t, g, nil, []Segment{tc.seg}).ID; got != tc.want {
			t.Errorf("%+v: got %q, want %q", tc.seg, got, tc.want)
		}
	}
}

func TestGenerate_RandomNumbersCrypto(t *testing.T) {
	g := NewGenerator()
	for _, tc := range []struct {
		format   string
		min, max int
	}{
		{Random9Digit, 9, 9},
		{Random6Digit, 6, 6},
		{Random32Bit, 1, 10},
		{Random20Bit, 1, 7},
	} {
		for i := 0; i < 100; i++ {
			id := mustGenerate(t, g, nil, []Segment{RandomNumbers("r", tc.format)}).ID
			if len(id) < tc.min || len(id) > tc.max {
				t.Fatalf("%s: %q has %d digits, want %d..%d", tc.format, id, len(id), tc.min, tc.max)
			}
			if strings.Trim(id, "0123456789") != "" {
				t.Fatalf("%s: %q contains non-digits", tc.format, id)
			}
		}
	}
}

func TestGenerate_Date(t *testing.T) {
	g := newTestGenerator()
	res := mustGenerate(t, g, nil, []Segment{FixedText("f", "D"), Date("d", "yyyyMMdd"), Date("e", "")})
	if res.ID != "D2024030920240309" {
		t.Fatalf("ID = %q", res.ID)
	}
	if !reflect.DeepEqual(res.Boundaries, []int{1, 8, 8}) {
		t.Fatalf("Boundaries = %v", res.Boundaries)
	}
}

func TestGenerate_BoundariesCountRunes(t *testing.T) {
	res := mustGenerate(t, newTestGenerator(), nil, []Segment{FixedText("f", "Ωμ-"), Sequence("s", 1, 1, 2)})
	if !reflect.DeepEqual(res.Boundaries, []int{3, 2}) {
		t.Fatalf("Boundaries = %v, want [3 2]", res.Boundaries)
	}
	parts, err := Split(res.ID, res.Boundaries)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if !reflect.DeepEqual(parts, []string{"Ωμ-", "01"}) {
		t.Fatalf("Split() = %q", parts)
	}
}

func TestBoundariesEncoding(t *testing.T) {
	if got := FormatBoundaries([]int{4, 3, 0, 12}); got != "4,3,0,12" {
		t.Fatalf("FormatBoundaries() = %q", got)
	}
	got, err := ParseBoundaries("4, 3,0,12")
	if err != nil {
		t.Fatalf("ParseBoundaries() error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{4, 3, 0, 12}) {
		t.Fatalf("ParseBoundaries() = %v", got)
	}
	if got, err := ParseBoundaries(""); err != nil || len(got) != 0 {
		t.Fatalf("ParseBoundaries(\"\") = %v, %v", got, err)
	}
	for _, bad := range []string{"a", "1,,2", "-1"} {
		if _, err := ParseBoundaries(bad); err == nil {
			t.Errorf("ParseBoundaries(%q) expected error", bad)
		}
	}
}

func TestSplit_Mismatch(t *testing.T) {
	if _, err := Split("INV-001", []int{4, 2}); err == nil {
		t.Fatal("expected error for short boundaries")
	}
}
