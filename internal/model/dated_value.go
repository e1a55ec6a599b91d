package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DatedValue is one persisted (type, date, owner, value) tuple.
// At most one DatedValue exists per (TypeID, Date, ObjectID).
type DatedValue struct {
	ID       int64               `json:"id"`
	TypeID   int64               `json:"type_id"`
	Date     time.Time           `json:"date"`
	ObjectID string              `json:"object_id"`
	Value    decimal.NullDecimal `json:"value"`
}

// Blank reports whether the value is unset.
func (v *DatedValue) Blank() bool {
	return !v.Value.Valid
}

// DateKey returns the date formatted as YYYY-MM-DD.
func (v *DatedValue) DateKey() string {
	return DateKey(v.Date)
}
