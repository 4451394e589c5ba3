package idformat

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Wire shapes for the canonical form. Field order is part of the format:
// the hash of a document depends on it.
type (
	fixedTextWire struct {
		ID    string      `json:"id"`
		Type  SegmentType `json:"type"`
		Value string      `json:"value"`
	}
	sequenceWire struct {
		ID         string      `json:"id"`
		Type       SegmentType `json:"type"`
		StartValue int64       `json:"startValue"`
		Step       int64       `json:"step"`
		Padding    int64       `json:"padding"`
	}
	formatWire struct {
		ID     string      `json:"id"`
		Type   SegmentType `json:"type"`
		Format string      `json:"format"`
	}
	randomWire struct {
		ID     string      `json:"id"`
		Type   SegmentType `json:"type"`
		Format string      `json:"format"`
		Length int         `json:"length,omitempty"`
	}
)

func wireOf(s Segment) (any, error) {
	switch s.Type {
	case TypeFixedText:
		return fixedTextWire{ID: s.ID, Type: s.Type, Value: s.Value}, nil
	case TypeSequence:
		return sequenceWire{ID: s.ID, Type: s.Type, StartValue: s.StartValue, Step: s.Step, Padding: s.Padding}, nil
	case TypeDate, TypeGuid:
		return formatWire{ID: s.ID, Type: s.Type, Format: s.Format}, nil
	case TypeRandomNumbers:
		return randomWire{ID: s.ID, Type: s.Type, Format: s.Format, Length: s.Length}, nil
	}
	return nil, fmt.Errorf("idformat: cannot serialize segment type %q", s.Type)
}

// Marshal returns the canonical serialization of segments: a JSON array with
// camelCase keys in a fixed order and no insignificant whitespace.
func Marshal(segments []Segment) ([]byte, error) {
	wire := make([]any, 0, len(segments))
	for _, s := range segments {
		w, err := wireOf(s)
		if err != nil {
			return nil, err
		}
		wire = append(wire, w)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wire); err != nil {
		return nil, fmt.Errorf("idformat: encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the hex SHA-256 of the canonical serialization.
func Hash(segments []Segment) (string, error) {
	data, err := Marshal(segments)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EnsureIDs assigns a new UUID to every segment that has none. Existing ids
// are left alone so they stay stable across edits.
func EnsureIDs(segments []Segment) {
	for i := range segments {
		if segments[i].ID == "" {
			segments[i].ID = uuid.NewString()
		}
	}
}

// Canonical is a parsed format document in its stored form.
type Canonical struct {
	Segments []Segment
	Document []byte
	Hash     string
}

// Canonicalize parses doc, assigns missing segment ids and returns the
// canonical document and its hash, ready to be stored with the inventory.
func Canonicalize(doc []byte) (*Canonical, error) {
	segments, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	if err := checkLimits(segments); err != nil {
		return nil, err
	}
	EnsureIDs(segments)
	data, err := Marshal(segments)
	if err != nil {
		return nil, err
	}
	return &Canonical{Segments: segments, Document: data, Hash: hashBytes(data)}, nil
}

// checkLimits rejects segments that parse but cannot produce usable ids:
// widths the validator cannot express, counters that overflow on their first
// advance and date layouts that can render nothing (checked at the epoch,
// where F tokens trim to empty).
func checkLimits(segments []Segment) error {
	for i, seg := range segments {
		switch seg.Type {
		case TypeSequence:
			if seg.Padding > maxRepeat {
				return fmt.Errorf("%w: segment %d: padding %d exceeds %d", ErrMalformedFormat, i, seg.Padding, maxRepeat)
			}
			if seg.StartValue > math.MaxInt64-seg.step() {
				return fmt.Errorf("%w: segment %d: startValue %d overflows with step %d", ErrMalformedFormat, i, seg.StartValue, seg.step())
			}
		case TypeRandomNumbers:
			if seg.Length > maxRepeat {
				return fmt.Errorf("%w: segment %d: length %d exceeds %d", ErrMalformedFormat, i, seg.Length, maxRepeat)
			}
		case TypeDate:
			if seg.Format != "" && FormatDate(time.Unix(0, 0).UTC(), seg.Format) == "" {
				return fmt.Errorf("%w: segment %d: date format %q renders nothing", ErrMalformedFormat, i, seg.Format)
			}
		}
	}
	return nil
}
