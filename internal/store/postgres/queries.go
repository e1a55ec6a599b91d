package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// valueTypeColumns is the column list used for SELECT statements on value_types.
const valueTypeColumns = `id, slug, name, object_kind, created_at`

// valueColumns is the column list used for SELECT statements on dated_values.
const valueColumns = `id, type_id, date, object_id, value`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every data method of store.Store. PostgresStore and txStore
// embed it over the pool and a transaction respectively.
type queries struct {
	db executor
}

func (q queries) CreateValueType(ctx context.Context, vt *model.ValueType) error {
	return q.db.QueryRowContext(ctx, `
		INSERT INTO value_types (slug, name, object_kind)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		vt.Slug, vt.Name, vt.ObjectKind,
	).Scan(&vt.ID, &vt.CreatedAt)
}

func (q queries) GetValueType(ctx context.Context, id int64) (*model.ValueType, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+valueTypeColumns+` FROM value_types WHERE id = $1`, id)
	return scanValueType(row)
}

func (q queries) ListValueTypes(ctx context.Context, filter model.ValueTypeFilter) ([]*model.ValueType, error) {
	var (
		whereClauses []string
		args         []any
	)

	if filter.ObjectKind != "" {
		args = append(args, filter.ObjectKind)
		whereClauses = append(whereClauses, fmt.Sprintf("object_kind = $%d", len(args)))
	}
	if len(filter.Slugs) > 0 {
		placeholders := make([]string, len(filter.Slugs))
		for i, s := range filter.Slugs {
			args = append(args, s)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		whereClauses = append(whereClauses, "slug IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + valueTypeColumns + ` FROM value_types`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list value types: %w", err)
	}
	defer rows.Close()
	return scanValueTypes(rows)
}

func (q queries) UpdateValueType(ctx context.Context, vt *model.ValueType) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE value_types SET slug = $2, name = $3, object_kind = $4
		WHERE id = $1`,
		vt.ID, vt.Slug, vt.Name, vt.ObjectKind,
	)
	return checkAffected(res, err)
}

func (q queries) DeleteValueType(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM value_types WHERE id = $1`, id)
	return checkAffected(res, err)
}

func (q queries) GetValue(ctx context.Context, id int64) (*model.DatedValue, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+valueColumns+` FROM dated_values WHERE id = $1`, id)
	return scanValue(row)
}

func (q queries) FindValue(ctx context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+valueColumns+` FROM dated_values
		WHERE type_id = $1 AND object_id = $2 AND date = $3::date`,
		typeID, objectID, model.DateKey(date),
	)
	v, err := scanValue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (q queries) FindRange(ctx context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+valueColumns+` FROM dated_values
		WHERE type_id = $1 AND object_id = $2 AND date >= $3::date AND date < $4::date
		ORDER BY date`,
		typeID, objectID, model.DateKey(start), model.DateKey(end),
	)
	if err != nil {
		return nil, fmt.Errorf("find range: %w", err)
	}
	defer rows.Close()
	return scanValues(rows)
}

// valueWhere builds the WHERE clause and args for a ValueFilter.
func valueWhere(filter model.ValueFilter) (string, []any) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.TypeIDs) > 0 {
		placeholders := make([]string, len(filter.TypeIDs))
		for i, id := range filter.TypeIDs {
			placeholders[i] = nextArg()
			args = append(args, id)
		}
		whereClauses = append(whereClauses, "type_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ObjectID != "" {
		whereClauses = append(whereClauses, "object_id = "+nextArg())
		args = append(args, filter.ObjectID)
	}
	if filter.From != nil {
		whereClauses = append(whereClauses, "date >= "+nextArg()+"::date")
		args = append(args, model.DateKey(*filter.From))
	}
	if filter.To != nil {
		whereClauses = append(whereClauses, "date < "+nextArg()+"::date")
		args = append(args, model.DateKey(*filter.To))
	}

	if len(whereClauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(whereClauses, " AND "), args
}

func (q queries) ListValues(ctx context.Context, filter model.ValueFilter) ([]*model.DatedValue, error) {
	where, args := valueWhere(filter)
	query := `SELECT ` + valueColumns + ` FROM dated_values` + where + ` ORDER BY type_id, object_id, date`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	defer rows.Close()
	return scanValues(rows)
}

func (q queries) CountValues(ctx context.Context, filter model.ValueFilter) (int, error) {
	where, args := valueWhere(filter)
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dated_values`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count values: %w", err)
	}
	return n, nil
}

func (q queries) CreateValue(ctx context.Context, v *model.DatedValue) error {
	return q.db.QueryRowContext(ctx, `
		INSERT INTO dated_values (type_id, date, object_id, value)
		VALUES ($1, $2::date, $3, $4)
		RETURNING id`,
		v.TypeID, model.DateKey(v.Date), v.ObjectID, v.Value,
	).Scan(&v.ID)
}

func (q queries) UpdateValue(ctx context.Context, v *model.DatedValue) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE dated_values SET type_id = $2, date = $3::date, object_id = $4, value = $5
		WHERE id = $1`,
		v.ID, v.TypeID, model.DateKey(v.Date), v.ObjectID, v.Value,
	)
	return checkAffected(res, err)
}

func (q queries) DeleteValue(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM dated_values WHERE id = $1`, id)
	return checkAffected(res, err)
}

// checkAffected maps a zero-row write to sql.ErrNoRows.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
