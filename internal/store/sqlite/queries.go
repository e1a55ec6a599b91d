package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

const valueTypeColumns = `id, slug, name, object_kind, created_at`

const valueColumns = `id, type_id, date, object_id, value`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db executor
}

type scannable interface {
	Scan(dest ...any) error
}

func (q queries) CreateValueType(ctx context.Context, vt *model.ValueType) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := q.db.ExecContext(ctx, `INSERT INTO value_types (slug, name, object_kind, created_at)
		VALUES (?, ?, ?, ?)`,
		vt.Slug, vt.Name, vt.ObjectKind, now.Format(time.RFC3339))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	vt.ID = id
	vt.CreatedAt = now
	return nil
}

func (q queries) GetValueType(ctx context.Context, id int64) (*model.ValueType, error) {
	return scanValueType(q.db.QueryRowContext(ctx, `SELECT `+valueTypeColumns+` FROM value_types WHERE id = ?`, id))
}

func (q queries) ListValueTypes(ctx context.Context, filter model.ValueTypeFilter) ([]*model.ValueType, error) {
	var (
		whereClauses []string
		args         []any
	)
	if filter.ObjectKind != "" {
		whereClauses = append(whereClauses, "object_kind = ?")
		args = append(args, filter.ObjectKind)
	}
	if len(filter.Slugs) > 0 {
		whereClauses = append(whereClauses, "slug IN ("+placeholders(len(filter.Slugs))+")")
		for _, s := range filter.Slugs {
			args = append(args, s)
		}
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
	defer func() { _ = rows.Close() }()

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

func (q queries) UpdateValueType(ctx context.Context, vt *model.ValueType) error {
	res, err := q.db.ExecContext(ctx, `UPDATE value_types SET slug = ?, name = ?, object_kind = ? WHERE id = ?`,
		vt.Slug, vt.Name, vt.ObjectKind, vt.ID)
	return checkAffected(res, err)
}

func (q queries) DeleteValueType(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM value_types WHERE id = ?`, id)
	return checkAffected(res, err)
}

func (q queries) GetValue(ctx context.Context, id int64) (*model.DatedValue, error) {
	return scanValue(q.db.QueryRowContext(ctx, `SELECT `+valueColumns+` FROM dated_values WHERE id = ?`, id))
}

func (q queries) FindValue(ctx context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error) {
	v, err := scanValue(q.db.QueryRowContext(ctx, `SELECT `+valueColumns+` FROM dated_values
		WHERE type_id = ? AND object_id = ? AND date = ?`,
		typeID, objectID, model.DateKey(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (q queries) FindRange(ctx context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+valueColumns+` FROM dated_values
		WHERE type_id = ? AND object_id = ? AND date >= ? AND date < ?
		ORDER BY date`,
		typeID, objectID, model.DateKey(start), model.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("find range: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanValues(rows)
}

func valueWhere(filter model.ValueFilter) (string, []any) {
	var (
		whereClauses []string
		args         []any
	)
	if len(filter.TypeIDs) > 0 {
		whereClauses = append(whereClauses, "type_id IN ("+placeholders(len(filter.TypeIDs))+")")
		for _, id := range filter.TypeIDs {
			args = append(args, id)
		}
	}
	if filter.ObjectID != "" {
		whereClauses = append(whereClauses, "object_id = ?")
		args = append(args, filter.ObjectID)
	}
	if filter.From != nil {
		whereClauses = append(whereClauses, "date >= ?")
		args = append(args, model.DateKey(*filter.From))
	}
	if filter.To != nil {
		whereClauses = append(whereClauses, "date < ?")
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
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	defer func() { _ = rows.Close() }()
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
	res, err := q.db.ExecContext(ctx, `INSERT INTO dated_values (type_id, date, object_id, value) VALUES (?, ?, ?, ?)`,
		v.TypeID, model.DateKey(v.Date), v.ObjectID, v.Value)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	v.ID = id
	return nil
}

func (q queries) UpdateValue(ctx context.Context, v *model.DatedValue) error {
	res, err := q.db.ExecContext(ctx, `UPDATE dated_values SET type_id = ?, date = ?, object_id = ?, value = ? WHERE id = ?`,
		v.TypeID, model.DateKey(v.Date), v.ObjectID, v.Value, v.ID)
	return checkAffected(res, err)
}

func (q queries) DeleteValue(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM dated_values WHERE id = ?`, id)
	return checkAffected(res, err)
}

func scanValueType(row scannable) (*model.ValueType, error) {
	var vt model.ValueType
	var created string
	if err := row.Scan(&vt.ID, &vt.Slug, &vt.Name, &vt.ObjectKind, &created); err != nil {
		return nil, err
	}
	vt.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &vt, nil
}

func scanValue(row scannable) (*model.DatedValue, error) {
	var v model.DatedValue
	var date string
	if err := row.Scan(&v.ID, &v.TypeID, &date, &v.ObjectID, &v.Value); err != nil {
		return nil, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	v.Date = d
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

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

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
