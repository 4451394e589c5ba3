package model

import (
	"encoding/json"
	"fmt"
)

// ValidateFields checks that the given fields JSON conforms to the provided
// field definitions. Keys are slot names. It rejects unknown keys, validates
// value types against each slot, and enforces required constraints.
// Returns a *ValidationError on failure, nil on success.
func ValidateFields(fields json.RawMessage, defs []FieldDef) error {
	_, err := decodeFields(fields, defs)
	return err
}

// ApplyFields validates fields against defs and writes them into the item's
// slots. Defined slots missing from fields are cleared.
func ApplyFields(it *Item, fields json.RawMessage, defs []FieldDef) error {
	m, err := decodeFields(fields, defs)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := FieldSlots[d.Slot].Set(it, m[d.Slot]); err != nil {
			return &ValidationError{Errors: []FieldError{{Field: d.Slot, Message: err.Error()}}}
		}
	}
	return nil
}

// ItemFields returns the values of the defined slots of an item, keyed by slot.
func ItemFields(it *Item, defs []FieldDef) map[string]any {
	out := make(map[string]any, len(defs))
	for _, d := range defs {
		slot, ok := FieldSlots[d.Slot]
		if !ok {
			continue
		}
		out[d.Slot] = slot.Get(it)
	}
	return out
}

func decodeFields(fields json.RawMessage, defs []FieldDef) (map[string]any, error) {
	m := map[string]any{}
	if len(fields) > 0 && string(fields) != "null" {
		if err := json.Unmarshal(fields, &m); err != nil {
			return nil, &ValidationError{Errors: []FieldError{{
				Field:   "fields",
				Message: "must be a JSON object",
			}}}
		}
	}

	defsBySlot := make(map[string]*FieldDef, len(defs))
	for i := range defs {
		defsBySlot[defs[i].Slot] = &defs[i]
	}

	var ve ValidationError

	for key := range m {
		if _, ok := defsBySlot[key]; !ok {
			ve.Errors = append(ve.Errors, FieldError{Field: key, Message: "unknown field"})
		}
	}

	for _, d := range defs {
		slot, ok := FieldSlots[d.Slot]
		if !ok {
			ve.Errors = append(ve.Errors, FieldError{Field: d.Slot, Message: "unknown slot"})
			continue
		}
		val, present := m[d.Slot]
		if !present || val == nil || val == "" {
			m[d.Slot] = nil
			if d.Required {
				ve.Errors = append(ve.Errors, FieldError{Field: d.Slot, Message: "is required"})
			}
			continue
		}
		// Set on a scratch item to reuse the slot's own type checks.
		var scratch Item
		if err := slot.Set(&scratch, val); err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: d.Slot, Message: err.Error()})
		}
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	return m, nil
}

// ValidateFieldDefs checks a set of field definitions: every slot exists and
// is used once, the kind matches the slot, and each field has a title.
func ValidateFieldDefs(defs []FieldDef) error {
	var ve ValidationError
	seen := make(map[string]bool, len(defs))
	perKind := make(map[FieldKind]int)

	for i, d := range defs {
		name := fmt.Sprintf("fields[%d]", i)
		slot, ok := FieldSlots[d.Slot]
		if !ok {
			ve.Errors = append(ve.Errors, FieldError{Field: name, Message: fmt.Sprintf("unknown slot %q", d.Slot)})
			continue
		}
		if seen[d.Slot] {
			ve.Errors = append(ve.Errors, FieldError{Field: name, Message: fmt.Sprintf("slot %q used more than once", d.Slot)})
		}
		seen[d.Slot] = true
		if !d.Kind.IsValid() {
			ve.Errors = append(ve.Errors, FieldError{Field: name, Message: fmt.Sprintf("invalid kind %q", d.Kind)})
		} else if d.Kind != slot.Kind {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("kind %q does not match slot %q (%s)", d.Kind, d.Slot, slot.Kind),
			})
		}
		perKind[slot.Kind]++
		if perKind[slot.Kind] > MaxFieldsPerKind {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("at most %d %s fields", MaxFieldsPerKind, slot.Kind),
			})
		}
		if d.Title == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: name + ".title", Message: "is required"})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
