package sync

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	types  map[int64]*model.ValueType
	values map[int64]*model.DatedValue
}

func newMockStore() *mockStore {
	return &mockStore{
		types:  make(map[int64]*model.ValueType),
		values: make(map[int64]*model.DatedValue),
	}
}

func (m *mockStore) CreateValueType(_ context.Context, vt *model.ValueType) error {
	m.types[vt.ID] = vt
	return nil
}

func (m *mockStore) GetValueType(_ context.Context, id int64) (*model.ValueType, error) {
	vt, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return vt, nil
}

// ListValueTypes returns types in map order; ExportJSONL sorts them.
func (m *mockStore) ListValueTypes(_ context.Context, _ model.ValueTypeFilter) ([]*model.ValueType, error) {
	var result []*model.ValueType
	for _, vt := range m.types {
		result = append(result, vt)
	}
	return result, nil
}

func (m *mockStore) UpdateValueType(_ context.Context, vt *model.ValueType) error {
	m.types[vt.ID] = vt
	return nil
}

func (m *mockStore) DeleteValueType(_ context.Context, id int64) error {
	delete(m.types, id)
	return nil
}

func (m *mockStore) GetValue(_ context.Context, id int64) (*model.DatedValue, error) {
	v, ok := m.values[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (m *mockStore) FindValue(_ context.Context, _ int64, _ string, _ time.Time) (*model.DatedValue, error) {
	return nil, nil
}

func (m *mockStore) FindRange(_ context.Context, _ int64, _ string, _, _ time.Time) ([]*model.DatedValue, error) {
	return nil, nil
}

func (m *mockStore) ListValues(_ context.Context, filter model.ValueFilter) ([]*model.DatedValue, error) {
	var result []*model.DatedValue
	for _, v := range m.values {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.TypeID != b.TypeID {
			return a.TypeID < b.TypeID
		}
		if a.ObjectID != b.ObjectID {
			return a.ObjectID < b.ObjectID
		}
		return a.Date.Before(b.Date)
	})
	if filter.Offset >= len(result) {
		return nil, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStore) CountValues(_ context.Context, _ model.ValueFilter) (int, error) {
	return len(m.values), nil
}

func (m *mockStore) CreateValue(_ context.Context, v *model.DatedValue) error {
	m.values[v.ID] = v
	return nil
}

func (m *mockStore) UpdateValue(_ context.Context, v *model.DatedValue) error {
	m.values[v.ID] = v
	return nil
}

func (m *mockStore) DeleteValue(_ context.Context, id int64) error {
	delete(m.values, id)
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
