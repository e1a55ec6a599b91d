// Package client provides a transport-agnostic interface for the dated values
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// DatedValuesClient is the interface that CLI commands use to communicate
// with the server.
type DatedValuesClient interface {
	// Value types
	CreateType(ctx context.Context, req *CreateTypeRequest) (*model.ValueType, error)
	ListTypes(ctx context.Context, req *ListTypesRequest) ([]*model.ValueType, error)
	UpdateType(ctx context.Context, id int64, req *UpdateTypeRequest) (*model.ValueType, error)
	DeleteType(ctx context.Context, id int64) error

	// Dated values
	CreateValue(ctx context.Context, req *CreateValueRequest) (*model.DatedValue, error)
	ListValues(ctx context.Context, req *ListValuesRequest) (*ListValuesResponse, error)
	DeleteValue(ctx context.Context, id int64) error

	// Editor
	GetEditor(ctx context.Context, req *EditorRequest) (*Editor, error)
	SaveEditor(ctx context.Context, req *EditorRequest, data map[string]*string) (*Editor, error)

	// Admin
	Export(ctx context.Context, w io.Writer) (int64, error)
	Settings(ctx context.Context) (*Settings, error)
	Health(ctx context.Context) (*Health, error)

	// Lifecycle
	Close() error
}

// CreateTypeRequest holds parameters for creating a value type.
type CreateTypeRequest struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ObjectKind string `json:"object_kind"`
}

// ListTypesRequest holds parameters for listing value types.
type ListTypesRequest struct {
	ObjectKind string
	Slugs      []string
}

// UpdateTypeRequest holds optional parameters for updating a value type.
// Nil pointer fields mean "don't change".
type UpdateTypeRequest struct {
	Slug       *string `json:"slug,omitempty"`
	Name       *string `json:"name,omitempty"`
	ObjectKind *string `json:"object_kind,omitempty"`
}

// CreateValueRequest holds parameters for creating a single dated value.
// Date is YYYY-MM-DD.
type CreateValueRequest struct {
	TypeID   int64           `json:"type_id"`
	ObjectID string          `json:"object_id"`
	Date     string          `json:"date"`
	Value    decimal.Decimal `json:"value"`
}

// ListValuesRequest holds parameters for listing dated values. From and To
// are YYYY-MM-DD; To is exclusive.
type ListValuesRequest struct {
	TypeIDs  []int64
	ObjectID string
	From     string
	To       string
	Limit    int
	Offset   int
}

// ListValuesResponse is the response from ListValues.
type ListValuesResponse struct {
	Values []*model.DatedValue `json:"values"`
	Total  int                 `json:"total"`
}

// EditorRequest addresses the editor grid of one object. Zero Days and an
// empty Start use the server's defaults; empty Types means every type of the
// object kind.
type EditorRequest struct {
	ObjectKind string
	ObjectID   string
	Types      []string
	Start      string
	Days       int
}

// EditorDate is one column of the editor grid.
type EditorDate struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// EditorField is one cell of the editor grid.
type EditorField struct {
	Key    string             `json:"key"`
	Date   string             `json:"date"`
	Value  string             `json:"value"`
	Errors []model.FieldError `json:"errors,omitempty"`
	Action string             `json:"action,omitempty"`
	Saved  *model.DatedValue  `json:"saved,omitempty"`
}

// EditorType is one row of the editor grid.
type EditorType struct {
	ID     int64         `json:"id"`
	Slug   string        `json:"slug"`
	Name   string        `json:"name"`
	Prefix string        `json:"prefix"`
	Fields []EditorField `json:"fields"`
}

// Editor is the editor grid, and after a save, the outcome per cell.
type Editor struct {
	ObjectKind string       `json:"object_kind"`
	ObjectID   string       `json:"object_id"`
	Start      string       `json:"start"`
	Days       int          `json:"days"`
	Dates      []EditorDate `json:"dates"`
	Types      []EditorType `json:"types"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Deleted    int          `json:"deleted"`
}

// Type returns the row for slug, or nil.
func (e *Editor) Type(slug string) *EditorType {
	for i := range e.Types {
		if e.Types[i].Slug == slug {
			return &e.Types[i]
		}
	}
	return nil
}

// Settings is the server's editor configuration.
type Settings struct {
	DisplayedItems int    `json:"displayed_items"`
	DateFormat     string `json:"date_format"`
	MaxDays        int    `json:"max_days"`
	AccessMode     string `json:"access_mode"`
}

// Health is the server's liveness report.
type Health struct {
	Status string  `json:"status"`
	Backup *Backup `json:"sync,omitempty"`
}

// Backup describes the most recent scheduled export, when one is configured.
type Backup struct {
	LastRun   time.Time `json:"last_run"`
	LastBytes int       `json:"last_bytes"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
}
