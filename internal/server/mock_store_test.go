package server

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
)

// mockStore is an in-memory store.Store. It enforces the (type, date, owner)
// uniqueness of the real backends and rolls back failed transactions.
type mockStore struct {
	types  map[int64]*model.ValueType
	values map[int64]*model.DatedValue
	nextID int64

	// createValueErr, when non-nil, is returned by CreateValue.
	createValueErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		types:  make(map[int64]*model.ValueType),
		values: make(map[int64]*model.DatedValue),
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// slugTaken reports whether another type of the same kind uses vt's slug.
func (m *mockStore) slugTaken(vt *model.ValueType) bool {
	for id, other := range m.types {
		if id != vt.ID && other.ObjectKind == vt.ObjectKind && other.Slug == vt.Slug {
			return true
		}
	}
	return false
}

func (m *mockStore) CreateValueType(_ context.Context, vt *model.ValueType) error {
	if m.slugTaken(vt) {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	vt.ID = m.id()
	vt.CreatedAt = time.Now().UTC()
	clone := *vt
	m.types[vt.ID] = &clone
	return nil
}

func (m *mockStore) GetValueType(_ context.Context, id int64) (*model.ValueType, error) {
	vt, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *vt
	return &clone, nil
}

func (m *mockStore) ListValueTypes(_ context.Context, filter model.ValueTypeFilter) ([]*model.ValueType, error) {
	var result []*model.ValueType
	for _, vt := range m.types {
		if filter.ObjectKind != "" && vt.ObjectKind != filter.ObjectKind {
			continue
		}
		if len(filter.Slugs) > 0 && !slices.Contains(filter.Slugs, vt.Slug) {
			continue
		}
		clone := *vt
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) UpdateValueType(_ context.Context, vt *model.ValueType) error {
	if _, ok := m.types[vt.ID]; !ok {
		return sql.ErrNoRows
	}
	if m.slugTaken(vt) {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	clone := *vt
	m.types[vt.ID] = &clone
	return nil
}

func (m *mockStore) DeleteValueType(_ context.Context, id int64) error {
	if _, ok := m.types[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.types, id)
	for vid, v := range m.values {
		if v.TypeID == id {
			delete(m.values, vid)
		}
	}
	return nil
}

func (m *mockStore) GetValue(_ context.Context, id int64) (*model.DatedValue, error) {
	v, ok := m.values[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *v
	return &clone, nil
}

func (m *mockStore) FindValue(_ context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error) {
	for _, v := range m.values {
		if v.TypeID == typeID && v.ObjectID == objectID && v.Date.Equal(model.Day(date)) {
			clone := *v
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindRange(_ context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error) {
	from, to := model.Day(start), model.Day(end)
	return m.filter(model.ValueFilter{TypeIDs: []int64{typeID}, ObjectID: objectID, From: &from, To: &to}), nil
}

func (m *mockStore) filter(f model.ValueFilter) []*model.DatedValue {
	var result []*model.DatedValue
	for _, v := range m.values {
		if len(f.TypeIDs) > 0 && !slices.Contains(f.TypeIDs, v.TypeID) {
			continue
		}
		if f.ObjectID != "" && v.ObjectID != f.ObjectID {
			continue
		}
		if f.From != nil && v.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !v.Date.Before(*f.To) {
			continue
		}
		clone := *v
		result = append(result, &clone)
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
	return result
}

func (m *mockStore) ListValues(_ context.Context, f model.ValueFilter) ([]*model.DatedValue, error) {
	result := m.filter(f)
	if f.Offset > 0 {
		result = result[min(f.Offset, len(result)):]
	}
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (m *mockStore) CountValues(_ context.Context, f model.ValueFilter) (int, error) {
	return len(m.filter(f)), nil
}

func (m *mockStore) CreateValue(ctx context.Context, v *model.DatedValue) error {
	if m.createValueErr != nil {
		return m.createValueErr
	}
	v.Date = model.Day(v.Date)
	if existing, _ := m.FindValue(ctx, v.TypeID, v.ObjectID, v.Date); existing != nil {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	v.ID = m.id()
	clone := *v
	m.values[v.ID] = &clone
	return nil
}

func (m *mockStore) UpdateValue(_ context.Context, v *model.DatedValue) error {
	if _, ok := m.values[v.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *v
	m.values[v.ID] = &clone
	return nil
}

func (m *mockStore) DeleteValue(_ context.Context, id int64) error {
	if _, ok := m.values[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.values, id)
	return nil
}

// RunInTransaction restores the previous contents when fn fails.
func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	types := make(map[int64]*model.ValueType, len(m.types))
	for k, v := range m.types {
		types[k] = v
	}
	values := make(map[int64]*model.DatedValue, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	if err := fn(m); err != nil {
		m.types, m.values = types, values
		return err
	}
	return nil
}

func (m *mockStore) Close() error { return nil }

// capturePublisher records published events.
type capturePublisher struct {
	topics []string
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
