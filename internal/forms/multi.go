package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// MultiTypeFormset edits several value types over the same day range in one
// submission.
type MultiTypeFormset struct {
	objectID string
	start    time.Time
	length   int
	formsets []*RangeFormset
	byPrefix map[string]*RangeFormset
}

// NewMultiTypeFormset builds one RangeFormset per value type, in the given
// order, each namespaced with Prefix(vt).
func NewMultiTypeFormset(ctx context.Context, s ValueStore, objectID string, start time.Time, length int, types []*model.ValueType, data Data) (*MultiTypeFormset, error) {
	if len(types) == 0 {
		return nil, ErrNoTypes
	}
	if length < 1 {
		return nil, ErrInvalidLength
	}

	m := &MultiTypeFormset{
		objectID: objectID,
		start:    model.Day(start),
		length:   length,
		formsets: make([]*RangeFormset, 0, len(types)),
		byPrefix: make(map[string]*RangeFormset, len(types)),
	}
	for _, vt := range types {
		prefix := Prefix(vt)
		if _, dup := m.byPrefix[prefix]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePrefix, prefix)
		}
		fs, err := NewRangeFormset(ctx, s, objectID, m.start, length, vt, prefix, data)
		if err != nil {
			return nil, err
		}
		m.formsets = append(m.formsets, fs)
		m.byPrefix[prefix] = fs
	}
	return m, nil
}

// Formsets returns the per-type formsets in the order the types were given.
func (m *MultiTypeFormset) Formsets() []*RangeFormset { return m.formsets }

// Formset returns the formset registered under prefix.
func (m *MultiTypeFormset) Formset(prefix string) (*RangeFormset, bool) {
	fs, ok := m.byPrefix[prefix]
	return fs, ok
}

// Length returns the number of days in the range.
func (m *MultiTypeFormset) Length() int { return m.length }

// Days returns the days covered, in order.
func (m *MultiTypeFormset) Days() []time.Time {
	return model.DaySpan(m.start, m.length)
}

// IsValid reports whether every per-type formset is valid.
func (m *MultiTypeFormset) IsValid() bool {
	valid := true
	for _, fs := range m.formsets {
		if !fs.IsValid() {
			valid = false
		}
	}
	return valid
}

// Errors returns the per-day error lists of each formset, indexed by type
// position.
func (m *MultiTypeFormset) Errors() [][]ErrorList {
	errs := make([][]ErrorList, len(m.formsets))
	for i, fs := range m.formsets {
		errs[i] = fs.Errors()
	}
	return errs
}

// ValidationError flattens all field errors into a single error, or returns
// nil when the submission is valid.
func (m *MultiTypeFormset) ValidationError() error {
	var ve model.ValidationError
	for _, perType := range m.Errors() {
		for _, l := range perType {
			ve.Errors = append(ve.Errors, l...)
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// Save saves each formset in type order and returns their results. Nothing
// is saved unless every formset is valid.
func (m *MultiTypeFormset) Save(ctx context.Context) ([][]*model.DatedValue, error) {
	if !m.IsValid() {
		return nil, ErrInvalid
	}
	results := make([][]*model.DatedValue, len(m.formsets))
	for i, fs := range m.formsets {
		r, err := fs.Save(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}
