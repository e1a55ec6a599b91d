package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/forms"
	"github.com/alfredjeanlab/datedvalues/internal/model"
)

func str(s string) *string { return &s }

func TestHandleGetEditor_Layout(t *testing.T) {
	_, ms, _, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	steps := seedType(t, ms, "steps", "user")
	seedType(t, ms, "goals", "team")
	seedValue(t, ms, weight, "7", day0.AddDate(0, 0, 1), "72.5")
	seedValue(t, ms, weight, "8", day0.AddDate(0, 0, 1), "60")

	rec := doJSON(t, h, "GET", "/v1/objects/user/7/values?types=steps,weight&days=3&start=2024-02-26", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp editorResponse
	decodeJSON(t, rec, &resp)
	if resp.ObjectKind != "user" || resp.ObjectID != "7" || resp.Start != "2024-02-26" || resp.Days != 3 {
		t.Fatalf("header = %+v", resp)
	}
	wantDates := []editorDate{{"2024-02-26", "26-02-2024"}, {"2024-02-27", "27-02-2024"}, {"2024-02-28", "28-02-2024"}}
	if len(resp.Dates) != len(wantDates) {
		t.Fatalf("dates = %+v", resp.Dates)
	}
	for i, d := range wantDates {
		if resp.Dates[i] != d {
			t.Errorf("date %d = %+v, want %+v", i, resp.Dates[i], d)
		}
	}

	// Types come back in the requested order.
	if len(resp.Types) != 2 || resp.Types[0].ID != steps.ID || resp.Types[1].ID != weight.ID {
		t.Fatalf("types = %+v", resp.Types)
	}
	w := resp.Types[1]
	if w.Prefix != forms.Prefix(weight) || len(w.Fields) != 3 {
		t.Fatalf("weight row = %+v", w)
	}
	if w.Fields[1].Key != forms.FieldKey(w.Prefix, 1) || w.Fields[1].Value != "72.5" {
		t.Errorf("field 1 = %+v, want the stored 72.5", w.Fields[1])
	}
	if w.Fields[0].Value != "" || w.Fields[2].Value != "" {
		t.Errorf("fields 0 and 2 should be blank: %+v", w.Fields)
	}
}

func TestHandleGetEditor_DefaultRange(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedType(t, ms, "weight", "user")

	rec := doJSON(t, h, "GET", "/v1/objects/user/7/values", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp editorResponse
	decodeJSON(t, rec, &resp)

	// Fourteen days ending today (2024-03-10).
	if resp.Days != 14 || resp.Start != "2024-02-26" {
		t.Errorf("range = %s + %d days", resp.Start, resp.Days)
	}
	if last := resp.Dates[len(resp.Dates)-1].Date; last != "2024-03-10" {
		t.Errorf("last date = %s", last)
	}
}

func TestHandleGetEditor_StartInDisplayFormat(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedType(t, ms, "weight", "user")

	rec := doJSON(t, h, "GET", "/v1/objects/user/7/values?days=2&start=26-02-2024", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp editorResponse
	decodeJSON(t, rec, &resp)
	if resp.Start != "2024-02-26" {
		t.Errorf("start = %s", resp.Start)
	}
}

func TestHandleSaveEditor(t *testing.T) {
	_, ms, pub, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	steps := seedType(t, ms, "steps", "user")
	wp, sp := forms.Prefix(weight), forms.Prefix(steps)
	path := "/v1/objects/user/7/values?days=5&start=2024-02-26"

	body := map[string]*string{
		forms.FieldKey(wp, 0): str("72.5"),
		forms.FieldKey(wp, 1): str(" 73 "),
		forms.FieldKey(wp, 2): str(""),
		forms.FieldKey(wp, 3): nil,
		forms.FieldKey(sp, 0): str("0"),
		forms.FieldKey(sp, 4): str("10000"),
	}
	rec := doJSON(t, h, "POST", path, body)
	requireStatus(t, rec, http.StatusOK)

	var resp editorResponse
	decodeJSON(t, rec, &resp)
	if resp.Created != 4 || resp.Updated != 0 || resp.Deleted != 0 {
		t.Fatalf("counts = %d/%d/%d, want 4/0/0", resp.Created, resp.Updated, resp.Deleted)
	}
	if n := len(ms.values); n != 4 {
		t.Fatalf("stored %d values, want 4", n)
	}
	if f := resp.Types[0].Fields[1]; f.Action != "created" || f.Saved == nil || f.Saved.Value.Decimal.String() != "73" {
		t.Errorf("field = %+v", f)
	}
	if len(pub.topics) != 4 || pub.topics[0] != events.TopicValueCreated {
		t.Errorf("topics = %v", pub.topics)
	}

	// Resubmitting the same data updates in place.
	pub.topics, pub.events = nil, nil
	rec = doJSON(t, h, "POST", path, body)
	requireStatus(t, rec, http.StatusOK)
	resp = editorResponse{}
	decodeJSON(t, rec, &resp)
	if resp.Created != 0 || resp.Updated != 4 || len(ms.values) != 4 {
		t.Errorf("resubmit: created %d updated %d stored %d", resp.Created, resp.Updated, len(ms.values))
	}

	// Blanking removes rows.
	pub.topics, pub.events = nil, nil
	body[forms.FieldKey(wp, 0)] = str("")
	body[forms.FieldKey(sp, 0)] = nil
	rec = doJSON(t, h, "POST", path, body)
	requireStatus(t, rec, http.StatusOK)
	resp = editorResponse{}
	decodeJSON(t, rec, &resp)
	if resp.Deleted != 2 || len(ms.values) != 2 {
		t.Fatalf("blank: deleted %d stored %d", resp.Deleted, len(ms.values))
	}
	var deletes int
	for i, topic := range pub.topics {
		if topic == events.TopicValueDeleted {
			deletes++
			if vd := pub.events[i].(events.ValueDeleted); vd.ValueID == 0 || vd.ObjectID != "7" {
				t.Errorf("ValueDeleted = %+v", vd)
			}
		}
	}
	if deletes != 2 {
		t.Errorf("published %d deletes, want 2", deletes)
	}

	left, _ := ms.ListValues(context.Background(), model.ValueFilter{})
	for _, v := range left {
		if v.TypeID == weight.ID && v.DateKey() != "2024-02-27" {
			t.Errorf("unexpected weight row %s", v.DateKey())
		}
		if v.TypeID == steps.ID && v.DateKey() != "2024-03-01" {
			t.Errorf("unexpected steps row %s", v.DateKey())
		}
	}
}

func TestHandleSaveEditor_FormEncoded(t *testing.T) {
	_, ms, _, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")

	form := url.Values{}
	form.Set(forms.FieldKey(forms.Prefix(weight), 0), "80")
	req := httptest.NewRequest("POST", "/v1/objects/user/7/values?days=1&start=2024-02-26", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)

	v, _ := ms.FindValue(context.Background(), weight.ID, "7", day0)
	if v == nil || v.Value.Decimal.String() != "80" {
		t.Fatalf("stored = %+v", v)
	}
}

func TestHandleSaveEditor_InvalidWritesNothing(t *testing.T) {
	_, ms, pub, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	steps := seedType(t, ms, "steps", "user")
	seedValue(t, ms, weight, "7", day0, "70")
	wp, sp := forms.Prefix(weight), forms.Prefix(steps)

	body := map[string]*string{
		forms.FieldKey(wp, 0): str(""),
		forms.FieldKey(wp, 1): str("71"),
		forms.FieldKey(sp, 2): str("lots"),
	}
	rec := doJSON(t, h, "POST", "/v1/objects/user/7/values?days=3&start=2024-02-26", body)
	requireStatus(t, rec, http.StatusUnprocessableEntity)

	var resp struct {
		Errors [][]forms.ErrorList `json:"errors"`
		Fields []model.FieldError  `json:"fields"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Errors) != 2 || len(resp.Errors[1]) != 3 {
		t.Fatalf("errors shape = %v", resp.Errors)
	}
	if !resp.Errors[1][2].HasErrors() || resp.Errors[0][1].HasErrors() {
		t.Errorf("errors = %v", resp.Errors)
	}
	if len(resp.Fields) != 1 || resp.Fields[0].Field != forms.FieldKey(sp, 2) {
		t.Errorf("fields = %+v", resp.Fields)
	}

	if len(ms.values) != 1 {
		t.Errorf("stored %d values, want the original 1", len(ms.values))
	}
	if v, _ := ms.FindValue(context.Background(), weight.ID, "7", day0); v == nil || v.Value.Decimal.String() != "70" {
		t.Errorf("original value changed: %+v", v)
	}
	if len(pub.topics) != 0 {
		t.Errorf("published %v for an invalid submission", pub.topics)
	}
}

func TestHandleSaveEditor_StoreFailureRollsBack(t *testing.T) {
	_, ms, pub, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	seedValue(t, ms, weight, "7", day0, "70")
	ms.createValueErr = context.DeadlineExceeded
	wp := forms.Prefix(weight)

	body := map[string]*string{
		forms.FieldKey(wp, 0): str(""),
		forms.FieldKey(wp, 1): str("71"),
	}
	rec := doJSON(t, h, "POST", "/v1/objects/user/7/values?days=2&start=2024-02-26", body)
	requireStatus(t, rec, http.StatusInternalServerError)

	if len(ms.values) != 1 {
		t.Errorf("stored %d values after rollback, want 1", len(ms.values))
	}
	if len(pub.topics) != 0 {
		t.Errorf("published %v for a failed save", pub.topics)
	}
}

func TestHandleSaveEditor_BadBody(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedType(t, ms, "weight", "user")
	req := httptest.NewRequest("POST", "/v1/objects/user/7/values", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleSaveEditor_RequiresStart(t *testing.T) {
	_, ms, pub, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	body := map[string]*string{forms.FieldKey(forms.Prefix(weight), 0): str("71")}

	rec := doJSON(t, h, "POST", "/v1/objects/user/7/values?days=1", body)
	requireStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), "start is required") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(ms.values) != 0 || len(pub.topics) != 0 {
		t.Errorf("stored %d values, published %v", len(ms.values), pub.topics)
	}

	// GET still defaults to the range ending today.
	requireStatus(t, doJSON(t, h, "GET", "/v1/objects/user/7/values?days=1", nil), http.StatusOK)
}

func TestHandleSaveEditor_OutOfRangeValue(t *testing.T) {
	_, ms, pub, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	key := forms.FieldKey(forms.Prefix(weight), 0)

	tests := []struct {
		name string
		raw  string
	}{
		{"huge exponent", "1e999999999"},
		{"tiny exponent", "1e-999999999"},
		{"too many whole digits", "12345678901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, "POST", "/v1/objects/user/7/values?days=1&start=2024-02-26", map[string]*string{key: str(tt.raw)})
			requireStatus(t, rec, http.StatusUnprocessableEntity)
			var resp struct {
				Fields []model.FieldError `json:"fields"`
			}
			decodeJSON(t, rec, &resp)
			if len(resp.Fields) != 1 || resp.Fields[0].Field != key {
				t.Errorf("fields = %+v", resp.Fields)
			}
		})
	}
	if len(ms.values) != 0 || len(pub.topics) != 0 {
		t.Errorf("stored %d values, published %v", len(ms.values), pub.topics)
	}
}

func TestHandleTypes_DuplicateSlug(t *testing.T) {
	_, ms, _, h := newTestServer()
	weight := seedType(t, ms, "weight", "user")
	steps := seedType(t, ms, "steps", "user")

	rec := doJSON(t, h, "POST", "/v1/types", map[string]any{"slug": "weight", "name": "Weight again", "object_kind": "user"})
	requireStatus(t, rec, http.StatusConflict)
	if !strings.Contains(rec.Body.String(), "value type already exists") {
		t.Errorf("body = %s", rec.Body.String())
	}
	requireStatus(t, doJSON(t, h, "PATCH", "/v1/types/"+strconv.FormatInt(steps.ID, 10), map[string]any{"slug": "weight"}), http.StatusConflict)

	// The same slug is free for another kind.
	requireStatus(t, doJSON(t, h, "POST", "/v1/types", map[string]any{"slug": "weight", "name": "Weight", "object_kind": "team"}), http.StatusCreated)

	rec = doJSON(t, h, "GET", "/v1/objects/user/7/values?types=weight&days=1", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp editorResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Types) != 1 || resp.Types[0].ID != weight.ID {
		t.Errorf("types = %+v, want only %d", resp.Types, weight.ID)
	}
}

func TestHandleGetEditor_AmbiguousSlug(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedType(t, ms, "weight", "user")
	// Rows written before slugs were unique per kind.
	dup := &model.ValueType{ID: ms.id(), Slug: "weight", Name: "Weight", ObjectKind: "user"}
	ms.types[dup.ID] = dup

	rec := doJSON(t, h, "GET", "/v1/objects/user/7/values?types=weight&days=1", nil)
	requireStatus(t, rec, http.StatusConflict)
	if !strings.Contains(rec.Body.String(), "ambiguous") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
