package forms

import (
	"errors"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

var (
	// ErrInvalid is returned by Save when validation has failed.
	ErrInvalid = errors.New("forms: submitted data is not valid")

	// ErrInvalidLength is returned when a range is constructed with fewer than one day.
	ErrInvalidLength = errors.New("forms: range length must be at least 1")

	// ErrDuplicatePrefix is returned when two formsets would share a prefix.
	ErrDuplicatePrefix = errors.New("forms: duplicate formset prefix")

	// ErrNoTypes is returned when a multi-type formset is given no value types.
	ErrNoTypes = errors.New("forms: at least one value type is required")
)

// ErrorList holds the field errors of a single form. An empty list means the
// form is valid.
type ErrorList []model.FieldError

// HasErrors reports whether the list contains any errors.
func (l ErrorList) HasErrors() bool {
	return len(l) > 0
}
