// Package forms binds submitted day-keyed, type-keyed numeric inputs to
// dated values and reconciles them against the store.
//
// Three layers compose:
//
//	MultiTypeFormset  one RangeFormset per value type, prefixed "<slug>_<id>"
//	RangeFormset      one ValueForm per day of a fixed-length range
//	ValueForm         one (owner, type, date) triple
//
// Saving a ValueForm creates, updates or deletes exactly one row: a non-blank
// value is written, a blank value removes an existing row and is otherwise a
// no-op. A composite refuses to save anything while any contained form is
// invalid.
package forms
