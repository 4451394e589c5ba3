package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateInventory checks an Inventory for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the inventory is valid.
func ValidateInventory(inv *Inventory) error {
	var ve ValidationError

	title := strings.TrimSpace(inv.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 200 characters or fewer"})
	}

	if !inv.Category.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "category",
			Message: fmt.Sprintf("invalid value %q", inv.Category),
		})
	}

	if strings.TrimSpace(inv.OwnerID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "owner_id", Message: "is required"})
	}

	if err := ValidateFieldDefs(inv.Fields); err != nil {
		ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
