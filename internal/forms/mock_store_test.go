package forms

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// mockStore is a minimal in-memory ValueStore for forms tests.
type mockStore struct {
	nextID int64
	values map[int64]*model.DatedValue

	rangeQueries int
	creates      int
	updates      int
	deletes      int

	failCreate error
	failDelete error
}

func newMockStore() *mockStore {
	return &mockStore{values: make(map[int64]*model.DatedValue)}
}

func (m *mockStore) FindValue(_ context.Context, typeID int64, objectID string, date time.Time) (*model.DatedValue, error) {
	key := model.DateKey(date)
	for _, v := range m.values {
		if v.TypeID == typeID && v.ObjectID == objectID && v.DateKey() == key {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindRange(_ context.Context, typeID int64, objectID string, start, end time.Time) ([]*model.DatedValue, error) {
	m.rangeQueries++
	var result []*model.DatedValue
	for _, v := range m.values {
		if v.TypeID != typeID || v.ObjectID != objectID {
			continue
		}
		if v.Date.Before(start) || !v.Date.Before(end) {
			continue
		}
		cp := *v
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockStore) CreateValue(_ context.Context, v *model.DatedValue) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, existing := range m.values {
		if existing.TypeID == v.TypeID && existing.ObjectID == v.ObjectID && existing.DateKey() == v.DateKey() {
			return errors.New("unique violation")
		}
	}
	m.nextID++
	v.ID = m.nextID
	cp := *v
	m.values[v.ID] = &cp
	m.creates++
	return nil
}

func (m *mockStore) UpdateValue(_ context.Context, v *model.DatedValue) error {
	if _, ok := m.values[v.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *v
	m.values[v.ID] = &cp
	m.updates++
	return nil
}

func (m *mockStore) DeleteValue(_ context.Context, id int64) error {
	if m.failDelete != nil {
		return m.failDelete
	}
	if _, ok := m.values[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.values, id)
	m.deletes++
	return nil
}

func (m *mockStore) count() int { return len(m.values) }
