package store

import (
	"context"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// Store defines the persistence interface for value types and dated values.
// Get and Delete methods return sql.ErrNoRows when the row does not exist.
type Store interface {
	// Value types
	CreateValueType(ctx context.Context, vt *model.ValueType) error
	GetValueType(ctx context.Context, id int64) (*model.ValueType, error)
	ListValueTypes(ctx context.Context, filter model.ValueTypeFilter) ([]*model.ValueType, error)
	UpdateValueType(ctx context.Context, vt *model.ValueType) error
	DeleteValueType(ctx context.Context, id int64) error

	// Dated values
	GetValue(ctx context.Context, id int64) (*model.DatedValue, error)
	FindValue(ctx context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error) // nil, nil when absent
	FindRange(ctx context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error)
	ListValues(ctx context.Context, filter model.ValueFilter) ([]*model.DatedValue, error)
	CountValues(ctx context.Context, filter model.ValueFilter) (int, error)
	CreateValue(ctx context.Context, v *model.DatedValue) error
	UpdateValue(ctx context.Context, v *model.DatedValue) error
	DeleteValue(ctx context.Context, id int64) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
