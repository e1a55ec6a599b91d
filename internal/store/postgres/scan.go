package postgres

import (
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanValueType scans a single row into a model.ValueType.
// The row must contain columns in the order defined by valueTypeColumns.
func scanValueType(row scannable) (*model.ValueType, error) {
	var vt model.ValueType
	if err := row.Scan(&vt.ID, &vt.Slug, &vt.Name, &vt.ObjectKind, &vt.CreatedAt); err != nil {
		return nil, err
	}
	return &vt, nil
}

func scanValueTypes(rows *sql.Rows) ([]*model.ValueType, error) {
	var types []*model.ValueType
	for rows.Next() {
		vt, err := scanValueType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan value type: %w", err)
		}
		types = append(types, vt)
	}
	return types, rows.Err()
}

// scanValue scans a single row into a model.DatedValue.
// The row must contain columns in the order defined by valueColumns.
func scanValue(row scannable) (*model.DatedValue, error) {
	var v model.DatedValue
	if err := row.Scan(&v.ID, &v.TypeID, &v.Date, &v.ObjectID, &v.Value); err != nil {
		return nil, err
	}
	v.Date = model.Day(v.Date)
	return &v, nil
}

func scanValues(rows *sql.Rows) ([]*model.DatedValue, error) {
	var values []*model.DatedValue
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
