package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/model"
)

type typeInput struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ObjectKind string `json:"object_kind"`
}

type typePatch struct {
	Slug       *string `json:"slug,omitempty"`
	Name       *string `json:"name,omitempty"`
	ObjectKind *string `json:"object_kind,omitempty"`
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleCreateType handles POST /v1/types.
func (s *Server) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var in typeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vt := &model.ValueType{
		Slug:       strings.TrimSpace(in.Slug),
		Name:       strings.TrimSpace(in.Name),
		ObjectKind: strings.TrimSpace(in.ObjectKind),
	}
	if err := model.ValidateValueType(vt); err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}
	if err := s.store.CreateValueType(r.Context(), vt); err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}

	s.publish(r.Context(), events.TopicTypeCreated, events.TypeCreated{Type: vt})
	writeJSON(w, http.StatusCreated, vt)
}

// handleListTypes handles GET /v1/types.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ValueTypeFilter{
		ObjectKind: q.Get("object_kind"),
		Slugs:      splitList(q.Get("slugs")),
	}

	types, err := s.store.ListValueTypes(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "value types")
		return
	}
	if types == nil {
		types = []*model.ValueType{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": types})
}

// handleGetType handles GET /v1/types/{id}.
func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	vt, err := s.store.GetValueType(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}
	writeJSON(w, http.StatusOK, vt)
}

// handleUpdateType handles PATCH /v1/types/{id}.
func (s *Server) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in typePatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vt, err := s.store.GetValueType(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}

	changes := make(map[string]any)
	if in.Slug != nil {
		vt.Slug = strings.TrimSpace(*in.Slug)
		changes["slug"] = vt.Slug
	}
	if in.Name != nil {
		vt.Name = strings.TrimSpace(*in.Name)
		changes["name"] = vt.Name
	}
	if in.ObjectKind != nil {
		vt.ObjectKind = strings.TrimSpace(*in.ObjectKind)
		changes["object_kind"] = vt.ObjectKind
	}
	if err := model.ValidateValueType(vt); err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}
	if err := s.store.UpdateValueType(r.Context(), vt); err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}

	s.publish(r.Context(), events.TopicTypeUpdated, events.TypeUpdated{Type: vt, Changes: changes})
	writeJSON(w, http.StatusOK, vt)
}

// handleDeleteType handles DELETE /v1/types/{id}. The type's values are
// removed with it.
func (s *Server) handleDeleteType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteValueType(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "value type")
		return
	}
	s.publish(r.Context(), events.TopicTypeDeleted, events.TypeDeleted{TypeID: id})
	w.WriteHeader(http.StatusNoContent)
}
