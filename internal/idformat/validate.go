package idformat

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const hexDigit = `[0-9a-fA-F]`

var guidD = hexDigit + `{8}-` + hexDigit + `{4}-` + hexDigit + `{4}-` + hexDigit + `{4}-` + hexDigit + `{12}`

// maxRepeat is the largest repetition count RE2 accepts.
const maxRepeat = 1000

// Pattern returns the anchored regular expression an id must match to have
// been produced by segments. ok is false when some segment can never match
// (unknown random or GUID layout).
func Pattern(segments []Segment) (pattern string, ok bool) {
	var b strings.Builder
	b.WriteString(`^`)
	for _, seg := range segments {
		p, ok := segmentPattern(seg)
		if !ok {
			return "", false
		}
		b.WriteString(p)
	}
	b.WriteString(`$`)
	return b.String(), true
}

func segmentPattern(seg Segment) (string, bool) {
	switch seg.Type {
	case TypeFixedText:
		return regexp.QuoteMeta(seg.Value), true
	case TypeSequence:
		return `[0-9]{` + strconv.Itoa(seg.padding()) + `,}`, true
	case TypeDate:
		// Dates are not checked structurally.
		return `(?s:.+)`, true
	case TypeRandomNumbers:
		switch strings.ToLower(seg.Format) {
		case Random20Bit:
			return `[0-9]{1,7}`, true
		case Random32Bit:
			return `[0-9]{1,10}`, true
		case Random6Digit:
			return `[0-9]{6}`, true
		case Random9Digit:
			return `[0-9]{9}`, true
		}
		if n := seg.length(); n > 0 {
			return `[0-9]{` + strconv.Itoa(n) + `}`, true
		}
		return "", false
	case TypeGuid:
		switch strings.ToUpper(seg.Format) {
		case GuidN:
			return hexDigit + `{32}`, true
		case GuidD:
			return guidD, true
		case GuidB:
			return `\{` + guidD + `\}`, true
		case GuidP:
			return `\(` + guidD + `\)`, true
		}
		return "", false
	}
	return "", false
}

// maxCachedPatterns bounds the number of compiled patterns a Validator keeps.
const maxCachedPatterns = 256

// Validator checks candidate ids against formats, caching compiled patterns.
// It is safe for concurrent use.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
	limit int
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{cache: make(map[string]*regexp.Regexp), limit: maxCachedPatterns}
}

// IsValid reports whether candidate could have been generated by segments.
// The pattern is compiled on every call; use a Validator to reuse it.
func IsValid(candidate string, segments []Segment) bool {
	return isValid(candidate, segments, regexp.Compile)
}

// IsValid reports whether candidate could have been generated by segments.
// An empty format only accepts the empty id.
func (v *Validator) IsValid(candidate string, segments []Segment) bool {
	return isValid(candidate, segments, v.compile)
}

func isValid(candidate string, segments []Segment, compile func(string) (*regexp.Regexp, error)) bool {
	if len(segments) == 0 {
		return candidate == ""
	}
	pattern, ok := Pattern(segments)
	if !ok {
		return false
	}
	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(candidate)
}

func (v *Validator) compile(pattern string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.cache[pattern]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	if len(v.cache) >= v.limit {
		// Formats change rarely; starting over is enough to stay bounded.
		clear(v.cache)
	}
	v.cache[pattern] = re
	v.mu.Unlock()
	return re, nil
}
