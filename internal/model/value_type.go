// Package model defines the domain types for dated values and their types.
package model

import "time"

// ValueType identifies a category of tracked per-day measurement, e.g.
// "weight" or "visitors". ObjectKind names the kind of owner object the
// type applies to.
type ValueType struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	ObjectKind string    `json:"object_kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// String returns the display label of the type.
func (t *ValueType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Slug
}
