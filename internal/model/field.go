package model

// FieldKind identifies the value type of a custom field.
type FieldKind string

const (
	FieldKindString FieldKind = "string"
	FieldKindText   FieldKind = "text"
	FieldKindNumber FieldKind = "number"
	FieldKindBool   FieldKind = "bool"
	FieldKindLink   FieldKind = "link"
)

// IsValid checks whether the field kind is a known value.
func (k FieldKind) IsValid() bool {
	switch k {
	case FieldKindString, FieldKindText, FieldKindNumber, FieldKindBool, FieldKindLink:
		return true
	}
	return false
}

// MaxFieldsPerKind is the number of item slots available for each kind.
const MaxFieldsPerKind = 3

// FieldDef describes one custom field of an inventory and the item slot
// that stores its values.
type FieldDef struct {
	Slot        string    `json:"slot"`
	Kind        FieldKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ShowInTable bool      `json:"show_in_table,omitempty"`
	Required    bool      `json:"required,omitempty"`
}
