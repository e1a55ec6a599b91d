package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// RangeFormset edits one value type over a fixed number of consecutive days.
type RangeFormset struct {
	prefix   string
	objectID string
	start    time.Time
	length   int
	vt       *model.ValueType
	forms    []*ValueForm
}

// NewRangeFormset builds length forms for the days start .. start+length-1.
// Existing records for the range are loaded with a single FindRange query and
// bound to their day; days without a record get an unbound form.
func NewRangeFormset(ctx context.Context, s ValueStore, objectID string, start time.Time, length int, vt *model.ValueType, prefix string, data Data) (*RangeFormset, error) {
	if length < 1 {
		return nil, ErrInvalidLength
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	start = model.Day(start)

	existing, err := s.FindRange(ctx, vt.ID, objectID, start, model.AddDays(start, length))
	if err != nil {
		return nil, fmt.Errorf("load %s values: %w", vt.Slug, err)
	}
	byDay := make(map[string]*model.DatedValue, len(existing))
	for _, v := range existing {
		byDay[v.DateKey()] = v
	}

	fs := &RangeFormset{
		prefix:   prefix,
		objectID: objectID,
		start:    start,
		length:   length,
		vt:       vt,
		forms:    make([]*ValueForm, 0, length),
	}
	for offset := 0; offset < length; offset++ {
		day := model.AddDays(start, offset)
		fs.forms = append(fs.forms, NewValueForm(s, objectID, day, vt, byDay[model.DateKey(day)], FieldKey(prefix, offset), data))
	}
	return fs, nil
}

// Prefix returns the field key namespace of the formset.
func (fs *RangeFormset) Prefix() string { return fs.prefix }

// Type returns the value type the formset edits.
func (fs *RangeFormset) Type() *model.ValueType { return fs.vt }

// Length returns the number of days in the range.
func (fs *RangeFormset) Length() int { return fs.length }

// Start returns the first day of the range.
func (fs *RangeFormset) Start() time.Time { return fs.start }

// Forms returns the forms in day order.
func (fs *RangeFormset) Forms() []*ValueForm { return fs.forms }

// IsValid reports whether every form in the range is valid.
func (fs *RangeFormset) IsValid() bool {
	for i := 0; i < fs.length; i++ {
		if !fs.forms[i].IsValid() {
			return false
		}
	}
	return true
}

// Errors returns one ErrorList per day, in day order.
func (fs *RangeFormset) Errors() []ErrorList {
	errs := make([]ErrorList, fs.length)
	for i := 0; i < fs.length; i++ {
		errs[i] = fs.forms[i].Errors()
	}
	return errs
}

// Save saves every form in day order and returns one entry per day; deleted
// and untouched days are nil. Nothing is saved unless the whole range is valid.
func (fs *RangeFormset) Save(ctx context.Context) ([]*model.DatedValue, error) {
	if !fs.IsValid() {
		return nil, ErrInvalid
	}
	results := make([]*model.DatedValue, fs.length)
	for i := 0; i < fs.length; i++ {
		v, err := fs.forms[i].Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", fs.forms[i].Key(), err)
		}
		results[i] = v
	}
	return results, nil
}
