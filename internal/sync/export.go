package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
)

// exportPageSize bounds how many values are read from the store per query.
const exportPageSize = 1000

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	TypeCount  int       `json:"type_count"`
	ValueCount int       `json:"value_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all value types and dated values from the store as
// JSONL to w. Types are sorted by ID; values are ordered by type, owner and
// date.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	types, err := s.ListValueTypes(ctx, model.ValueTypeFilter{})
	if err != nil {
		return fmt.Errorf("list value types: %w", err)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].ID < types[j].ID
	})

	total, err := s.CountValues(ctx, model.ValueFilter{})
	if err != nil {
		return fmt.Errorf("count values: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		TypeCount:  len(types),
		ValueCount: total,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, vt := range types {
		if err := enc.Encode(record{Type: "value_type", Data: vt}); err != nil {
			return fmt.Errorf("encode value type %d: %w", vt.ID, err)
		}
	}

	for offset := 0; ; offset += exportPageSize {
		page, err := s.ListValues(ctx, model.ValueFilter{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("list values at offset %d: %w", offset, err)
		}
		for _, v := range page {
			if err := enc.Encode(record{Type: "value", Data: v}); err != nil {
				return fmt.Errorf("encode value %d: %w", v.ID, err)
			}
		}
		if len(page) < exportPageSize {
			break
		}
	}

	return nil
}
