package model

import (
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
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

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug reports whether s consists only of letters, digits, hyphens and
// underscores.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ValidateValueType checks a ValueType for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the type is valid.
func ValidateValueType(t *ValueType) error {
	var ve ValidationError

	slug := strings.TrimSpace(t.Slug)
	switch {
	case slug == "":
		ve.Errors = append(ve.Errors, FieldError{Field: "slug", Message: "is required"})
	case !ValidSlug(slug):
		ve.Errors = append(ve.Errors, FieldError{Field: "slug", Message: "may only contain letters, numbers, underscores or hyphens"})
	case len(slug) > 50:
		ve.Errors = append(ve.Errors, FieldError{Field: "slug", Message: "must be 50 characters or fewer"})
	}

	name := strings.TrimSpace(t.Name)
	if name == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	} else if len([]rune(name)) > 255 {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "must be 255 characters or fewer"})
	}

	if strings.TrimSpace(t.ObjectKind) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "object_kind", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateDatedValue checks the structural fields of a DatedValue that is
// about to be written directly (outside the range forms).
func ValidateDatedValue(v *DatedValue) error {
	var ve ValidationError
	if v.TypeID <= 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "type_id", Message: "is required"})
	}
	if strings.TrimSpace(v.ObjectID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "object_id", Message: "is required"})
	}
	if v.Date.IsZero() {
		ve.Errors = append(ve.Errors, FieldError{Field: "date", Message: "is required"})
	}
	if !v.Value.Valid {
		ve.Errors = append(ve.Errors, FieldError{Field: "value", Message: "is required"})
	} else if msg := CheckDecimal(v.Value.Decimal); msg != "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "value", Message: msg})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
