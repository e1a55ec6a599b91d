package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/model"
)

type valueInput struct {
	TypeID   int64               `json:"type_id"`
	ObjectID string              `json:"object_id"`
	Date     string              `json:"date"`
	Value    decimal.NullDecimal `json:"value"`
}

type valuePatch struct {
	Value decimal.NullDecimal `json:"value"`
}

// handleCreateValue handles POST /v1/values.
func (s *Server) handleCreateValue(w http.ResponseWriter, r *http.Request) {
	var in valueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	v := &model.DatedValue{
		TypeID:   in.TypeID,
		ObjectID: strings.TrimSpace(in.ObjectID),
		Value:    in.Value,
	}
	if in.Date != "" {
		d, err := model.ParseDate(in.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		v.Date = d
	}
	if err := model.ValidateDatedValue(v); err != nil {
		s.writeStoreError(w, err, "value")
		return
	}

	if _, err := s.store.GetValueType(r.Context(), v.TypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "unknown value type "+strconv.FormatInt(v.TypeID, 10))
			return
		}
		s.writeStoreError(w, err, "value type")
		return
	}

	if err := s.store.CreateValue(r.Context(), v); err != nil {
		s.writeStoreError(w, err, "value")
		return
	}

	actor := authz.UserFromContext(r.Context()).Name
	s.publish(r.Context(), events.TopicValueCreated, events.ValueCreated{Value: v, Actor: actor})
	writeJSON(w, http.StatusCreated, v)
}

// handleListValues handles GET /v1/values.
func (s *Server) handleListValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ValueFilter{ObjectID: q.Get("object_id")}

	for _, raw := range splitList(q.Get("type_id")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid type_id "+strconv.Quote(raw))
			return
		}
		filter.TypeIDs = append(filter.TypeIDs, id)
	}
	if v := q.Get("from"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from: "+err.Error())
			return
		}
		filter.From = &d
	}
	if v := q.Get("to"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to: "+err.Error())
			return
		}
		filter.To = &d
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	values, err := s.store.ListValues(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "values")
		return
	}
	total, err := s.store.CountValues(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "values")
		return
	}
	if values == nil {
		values = []*model.DatedValue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"values": values,
		"total":  total,
	})
}

// handleGetValue handles GET /v1/values/{id}.
func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	v, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "value")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleUpdateValue handles PATCH /v1/values/{id}. Only the value itself can
// change; a null value is rejected, use DELETE instead.
func (s *Server) handleUpdateValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in valuePatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !in.Value.Valid {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	v, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "value")
		return
	}
	v.Value = in.Value
	if err := model.ValidateDatedValue(v); err != nil {
		s.writeStoreError(w, err, "value")
		return
	}
	if err := s.store.UpdateValue(r.Context(), v); err != nil {
		s.writeStoreError(w, err, "value")
		return
	}

	actor := authz.UserFromContext(r.Context()).Name
	s.publish(r.Context(), events.TopicValueUpdated, events.ValueUpdated{Value: v, Actor: actor})
	writeJSON(w, http.StatusOK, v)
}

// handleDeleteValue handles DELETE /v1/values/{id}.
func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	v, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "value")
		return
	}
	if err := s.store.DeleteValue(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "value")
		return
	}

	s.publish(r.Context(), events.TopicValueDeleted, events.ValueDeleted{
		ValueID:  v.ID,
		TypeID:   v.TypeID,
		ObjectID: v.ObjectID,
		Date:     v.Date,
		Actor:    authz.UserFromContext(r.Context()).Name,
	})
	w.WriteHeader(http.StatusNoContent)
}
