package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/datedvalues/internal/client"
	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/ui"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printTypeTable(w io.Writer, types []*model.ValueType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME\tOBJECT KIND")
	for _, vt := range types {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", vt.ID, vt.Slug, vt.Name, vt.ObjectKind)
	}
	tw.Flush()
}

// gridCell is one cell of a rendered grid; paint, when set, colors the
// padded text.
type gridCell struct {
	text  string
	paint func(string) string
}

// writeGrid writes rows as left-aligned columns two spaces apart. Widths are
// measured on the plain text so colored cells stay aligned.
func writeGrid(w io.Writer, rows [][]gridCell) {
	var widths []int
	for _, row := range rows {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len([]rune(c.text)))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, c := range row {
			text := c.text
			if i < len(row)-1 {
				text += strings.Repeat(" ", widths[i]-len([]rune(c.text))+2)
			}
			if c.paint != nil {
				text = c.paint(text)
			}
			b.WriteString(text)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// printEditorGrid renders the editor with one row per day and one column per
// value type. Blank days show ui.BlankCell.
func printEditorGrid(w io.Writer, e *client.Editor) {
	header := []gridCell{{text: "DATE", paint: ui.RenderHeader}}
	for _, t := range e.Types {
		header = append(header, gridCell{text: strings.ToUpper(t.Slug), paint: ui.RenderHeader})
	}
	rows := [][]gridCell{header}

	for i, d := range e.Dates {
		row := []gridCell{{text: d.Label}}
		for _, t := range e.Types {
			cell := gridCell{text: ui.BlankCell, paint: mutedBlank}
			if i < len(t.Fields) {
				f := t.Fields[i]
				switch {
				case len(f.Errors) > 0:
					cell = gridCell{text: f.Value + " (" + f.Errors[0].Message + ")", paint: ui.RenderError}
				case f.Value != "":
					cell = gridCell{text: f.Value}
				}
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	writeGrid(w, rows)
}

// mutedBlank mutes the placeholder while keeping its padding.
func mutedBlank(s string) string {
	return strings.Replace(s, ui.BlankCell, ui.RenderBlank(), 1)
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+err.Error()))
}
