package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
	"github.com/alfredjeanlab/datedvalues/internal/forms"
	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
)

// errEditorRequest marks a bad editor query; the message is returned as-is.
type errEditorRequest struct {
	status int
	msg    string
}

func (e *errEditorRequest) Error() string { return e.msg }

type editorDate struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

type editorField struct {
	Key    string            `json:"key"`
	Date   string            `json:"date"`
	Value  string            `json:"value"`
	Errors forms.ErrorList   `json:"errors,omitempty"`
	Action string            `json:"action,omitempty"`
	Saved  *model.DatedValue `json:"saved,omitempty"`
}

type editorType struct {
	ID     int64         `json:"id"`
	Slug   string        `json:"slug"`
	Name   string        `json:"name"`
	Prefix string        `json:"prefix"`
	Fields []editorField `json:"fields"`
}

type editorResponse struct {
	ObjectKind string       `json:"object_kind"`
	ObjectID   string       `json:"object_id"`
	Start      string       `json:"start"`
	Days       int          `json:"days"`
	Dates      []editorDate `json:"dates"`
	Types      []editorType `json:"types"`
	Created    int          `json:"created,omitempty"`
	Updated    int          `json:"updated,omitempty"`
	Deleted    int          `json:"deleted,omitempty"`
}

// editorQuery is the resolved range and type list of an editor request.
type editorQuery struct {
	kind     string
	objectID string
	start    time.Time
	days     int
	types    []*model.ValueType
}

// parseEditorQuery reads days, start and types from the query string and
// resolves the types against the store. start defaults to the range ending
// today on GET and is required on POST.
func (s *Server) parseEditorQuery(r *http.Request, st store.Store) (*editorQuery, error) {
	q := r.URL.Query()
	eq := &editorQuery{
		kind:     r.PathValue("kind"),
		objectID: r.PathValue("id"),
		days:     s.settings.DisplayedItems,
	}

	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > s.settings.MaxDays {
			return nil, &errEditorRequest{http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", s.settings.MaxDays)}
		}
		eq.days = n
	}

	if v := q.Get("start"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			// Fall back to the configured display format.
			if d, err = s.settings.ParseDate(v); err != nil {
				return nil, &errEditorRequest{http.StatusBadRequest, "invalid start date " + strconv.Quote(v)}
			}
		}
		eq.start = model.Day(d)
	} else if r.Method == http.MethodPost {
		// A save must name the range it was rendered for.
		return nil, &errEditorRequest{http.StatusBadRequest, "start is required when saving values"}
	} else {
		eq.start = model.AddDays(s.today(), -(eq.days - 1))
	}

	slugs := splitList(q.Get("types"))
	types, err := st.ListValueTypes(r.Context(), model.ValueTypeFilter{ObjectKind: eq.kind, Slugs: slugs})
	if err != nil {
		return nil, err
	}
	if len(slugs) == 0 {
		if len(types) == 0 {
			return nil, &errEditorRequest{http.StatusNotFound, "no value types for object kind " + strconv.Quote(eq.kind)}
		}
		eq.types = types
		return eq, nil
	}

	bySlug := make(map[string]*model.ValueType, len(types))
	for _, vt := range types {
		if _, dup := bySlug[vt.Slug]; dup {
			return nil, &errEditorRequest{http.StatusConflict, "value type slug " + strconv.Quote(vt.Slug) + " is ambiguous"}
		}
		bySlug[vt.Slug] = vt
	}
	for _, slug := range slugs {
		vt, ok := bySlug[slug]
		if !ok {
			return nil, &errEditorRequest{http.StatusNotFound, "unknown value type " + strconv.Quote(slug)}
		}
		eq.types = append(eq.types, vt)
	}
	return eq, nil
}

func (s *Server) writeEditorError(w http.ResponseWriter, err error) {
	var re *errEditorRequest
	switch {
	case errors.As(err, &re):
		writeError(w, re.status, re.msg)
	case errors.Is(err, forms.ErrInvalidLength), errors.Is(err, forms.ErrNoTypes), errors.Is(err, forms.ErrDuplicatePrefix):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeStoreError(w, err, "values")
	}
}

// layout renders the formset as an editor response. Field values are the
// submitted input when data was bound, the stored value otherwise.
func (s *Server) layout(eq *editorQuery, m *forms.MultiTypeFormset, bound bool) editorResponse {
	resp := editorResponse{
		ObjectKind: eq.kind,
		ObjectID:   eq.objectID,
		Start:      model.DateKey(eq.start),
		Days:       m.Length(),
	}
	for _, d := range m.Days() {
		resp.Dates = append(resp.Dates, editorDate{Date: model.DateKey(d), Label: s.settings.FormatDate(d)})
	}
	for _, fs := range m.Formsets() {
		et := editorType{
			ID:     fs.Type().ID,
			Slug:   fs.Type().Slug,
			Name:   fs.Type().Name,
			Prefix: fs.Prefix(),
		}
		for _, f := range fs.Forms() {
			field := editorField{Key: f.Key(), Date: model.DateKey(f.Date()), Value: f.Initial()}
			if bound {
				field.Value = f.Raw()
				field.Errors = f.Errors()
				if a := f.Action(); a != forms.ActionNone {
					field.Action = a.String()
					field.Saved = f.Instance()
				}
				switch f.Action() {
				case forms.ActionCreated:
					resp.Created++
				case forms.ActionUpdated:
					resp.Updated++
				case forms.ActionDeleted:
					resp.Deleted++
				}
			}
			et.Fields = append(et.Fields, field)
		}
		resp.Types = append(resp.Types, et)
	}
	return resp
}

// handleGetEditor handles GET /v1/objects/{kind}/{id}/values. It returns the
// editor grid for the object: one row per value type, one field per day.
func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	eq, err := s.parseEditorQuery(r, s.store)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	m, err := forms.NewMultiTypeFormset(r.Context(), s.store, eq.objectID, eq.start, eq.days, eq.types, nil)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.layout(eq, m, false))
}

// readEditorData decodes the submitted fields. Both form-encoded bodies and
// JSON objects of key to string (or null for blank) are accepted.
func readEditorData(r *http.Request) (forms.Data, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return forms.DataFromValues(r.PostForm), nil
	}

	var raw map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	data := make(forms.Data, len(raw))
	for k, v := range raw {
		if v != nil {
			data[k] = *v
		}
	}
	return data, nil
}

// handleSaveEditor handles POST /v1/objects/{kind}/{id}/values. Validation
// and every write happen in one transaction; an invalid submission writes
// nothing and returns 422 with the per-field errors.
func (s *Server) handleSaveEditor(w http.ResponseWriter, r *http.Request) {
	data, err := readEditorData(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		eq *editorQuery
		m  *forms.MultiTypeFormset
	)
	err = s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		var err error
		if eq, err = s.parseEditorQuery(r, tx); err != nil {
			return err
		}
		if m, err = forms.NewMultiTypeFormset(r.Context(), tx, eq.objectID, eq.start, eq.days, eq.types, data); err != nil {
			return err
		}
		_, err = m.Save(r.Context())
		return err
	})
	if errors.Is(err, forms.ErrInvalid) {
		resp := map[string]any{
			"error":  "submitted values are not valid",
			"errors": m.Errors(),
		}
		var ve *model.ValidationError
		if errors.As(m.ValidationError(), &ve) {
			resp["fields"] = ve.Errors
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if err != nil {
		s.writeEditorError(w, err)
		return
	}

	s.publishSaved(r.Context(), m, authz.UserFromContext(r.Context()).Name)
	writeJSON(w, http.StatusOK, s.layout(eq, m, true))
}
