package forms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// ValueStore is the subset of store.Store the forms read and write through.
type ValueStore interface {
	FindValue(ctx context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error)
	FindRange(ctx context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error)
	CreateValue(ctx context.Context, v *model.DatedValue) error
	UpdateValue(ctx context.Context, v *model.DatedValue) error
	DeleteValue(ctx context.Context, id int64) error
}

// Action describes what a ValueForm's Save did to the store.
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionUpdated
	ActionDeleted
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	case ActionDeleted:
		return "deleted"
	default:
		return "none"
	}
}

// ValueForm binds one submitted value to one (owner, type, date) triple.
type ValueForm struct {
	store    ValueStore
	objectID string
	date     time.Time
	vt       *model.ValueType
	instance *model.DatedValue
	key      string
	raw      string

	cleaned   bool
	value     decimal.NullDecimal
	errors    ErrorList
	action    Action
	deletedID int64
}

// NewValueForm returns a form for the triple (vt, objectID, date). instance
// is the existing record for the triple or nil; the raw input is read from
// data under key.
func NewValueForm(s ValueStore, objectID string, date time.Time, vt *model.ValueType, instance *model.DatedValue, key string, data Data) *ValueForm {
	return &ValueForm{
		store:    s,
		objectID: objectID,
		date:     model.Day(date),
		vt:       vt,
		instance: instance,
		key:      key,
		raw:      data[key],
	}
}

// LoadValueForm is like NewValueForm but looks up the existing record itself.
func LoadValueForm(ctx context.Context, s ValueStore, objectID string, date time.Time, vt *model.ValueType, key string, data Data) (*ValueForm, error) {
	instance, err := s.FindValue(ctx, vt.ID, objectID, model.Day(date))
	if err != nil {
		return nil, fmt.Errorf("find value: %w", err)
	}
	return NewValueForm(s, objectID, date, vt, instance, key, data), nil
}

// Key returns the field key the form reads its input from.
func (f *ValueForm) Key() string { return f.key }

// ObjectID returns the owner the form edits.
func (f *ValueForm) ObjectID() string { return f.objectID }

// Date returns the day the form edits.
func (f *ValueForm) Date() time.Time { return f.date }

// Raw returns the submitted input as received.
func (f *ValueForm) Raw() string { return f.raw }

// Instance returns the bound record, or nil.
func (f *ValueForm) Instance() *model.DatedValue { return f.instance }

// Action returns what the last Save did.
func (f *ValueForm) Action() Action { return f.action }

// DeletedID returns the id of the record removed by the last Save, or 0.
func (f *ValueForm) DeletedID() int64 { return f.deletedID }

// Initial returns the value to display before submission: the bound
// record's value, or blank.
func (f *ValueForm) Initial() string {
	if f.instance == nil || !f.instance.Value.Valid {
		return ""
	}
	return f.instance.Value.Decimal.String()
}

func (f *ValueForm) clean() {
	if f.cleaned {
		return
	}
	f.cleaned = true

	raw := strings.TrimSpace(f.raw)
	if raw == "" {
		return
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.errors = append(f.errors, model.FieldError{Field: f.key, Message: "enter a number"})
		return
	}
	if msg := model.CheckDecimal(d); msg != "" {
		f.errors = append(f.errors, model.FieldError{Field: f.key, Message: msg})
		return
	}
	f.value = decimal.NewNullDecimal(d)
}

// IsValid reports whether the input is blank or a number that fits a
// stored value.
func (f *ValueForm) IsValid() bool {
	f.clean()
	return !f.errors.HasErrors()
}

// Errors returns the form's field errors.
func (f *ValueForm) Errors() ErrorList {
	f.clean()
	return f.errors
}

// Value returns the cleaned value; Valid is false for blank input.
func (f *ValueForm) Value() decimal.NullDecimal {
	f.clean()
	return f.value
}

// Save writes the cleaned value. A non-blank value updates the bound record
// or creates one and returns it. A blank value deletes the bound record if
// there is one. In both blank cases Save returns nil.
func (f *ValueForm) Save(ctx context.Context) (*model.DatedValue, error) {
	if !f.IsValid() {
		return nil, ErrInvalid
	}
	f.action = ActionNone
	f.deletedID = 0

	if f.value.Valid {
		if f.instance != nil && f.instance.ID != 0 {
			f.bind(f.instance)
			if err := f.store.UpdateValue(ctx, f.instance); err != nil {
				return nil, err
			}
			f.action = ActionUpdated
			return f.instance, nil
		}
		v := &model.DatedValue{}
		f.bind(v)
		if err := f.store.CreateValue(ctx, v); err != nil {
			return nil, err
		}
		f.instance = v
		f.action = ActionCreated
		return v, nil
	}

	if f.instance != nil && f.instance.ID != 0 {
		// A row already removed by someone else is the state we wanted.
		if err := f.store.DeleteValue(ctx, f.instance.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		f.deletedID = f.instance.ID
		f.instance = nil
		f.action = ActionDeleted
	}
	return nil, nil
}

func (f *ValueForm) bind(v *model.DatedValue) {
	v.TypeID = f.vt.ID
	v.Date = f.date
	v.ObjectID = f.objectID
	v.Value = f.value
}
