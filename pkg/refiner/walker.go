package refiner

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/jmylchreest/descrefine/internal/logger"
)

// cell is a pending <td>/<th>.
type cell struct {
	tag     string // opening tag name as written
	endTag  string // closing tag name as written, empty if implicitly closed
	attrs   string // serialized attributes
	lead    string // row markup between the previous cell and this one
	content strings.Builder
	replace *string // new inner markup, set when the description is rewritten
}

func (c *cell) markup() string {
	if c.replace != nil {
		return *c.replace
	}
	return c.content.String()
}

// row is a pending <tr>. Rows opened implicitly by a stray cell have no
// <tr> tag of their own.
type row struct {
	attrs    string
	implicit bool
	closed   bool
	cells    []*cell
	trail    string
}

// walker holds the per-document state of a refine run. Each call to step
// consumes one event and returns the markup to emit for it, which is
// empty while a row is still being buffered.
type walker struct {
	cfg    *Config
	result *Result

	table   string         // current table name from the last TABLE: heading
	columns map[string]int // from the current table's header row
	warned  bool           // default-columns warning issued for this table

	row  *row
	cell *cell
	gap  strings.Builder // in-row markup outside any cell
}

func newWalker(cfg *Config, result *Result) *walker {
	return &walker{cfg: cfg, result: result}
}

func (w *walker) step(ev Event) string {
	switch ev.Kind {
	case EventText:
		return w.text(ev)
	case EventStartTag:
		return w.open(ev)
	case EventEndTag:
		return w.close(ev)
	default:
		// Self-closing tags and comments never change structure.
		return w.passthrough(ev.Markup())
	}
}

// finish flushes whatever is still pending at end of input.
func (w *walker) finish() string {
	return w.flushRow()
}

func (w *walker) text(ev Event) string {
	if w.cell != nil {
		w.cell.content.WriteString(ev.Raw)
		return ""
	}
	w.noteHeading(ev.Raw)
	return w.passthrough(ev.Raw)
}

// passthrough routes markup to the open cell, the open row's gap, or
// straight to the output.
func (w *walker) passthrough(markup string) string {
	switch {
	case w.cell != nil:
		w.cell.content.WriteString(markup)
		return ""
	case w.row != nil:
		w.gap.WriteString(markup)
		return ""
	default:
		return markup
	}
}

func (w *walker) noteHeading(raw string) {
	name, found := TableName(html.UnescapeString(raw))
	if !found {
		return
	}
	if name == "" {
		w.result.AddWarning("heading", "TABLE: marker without identifier, keeping previous table name", w.table)
		logger.Debug("table heading without identifier", "previous", w.table)
		return
	}
	w.table = name
	w.result.Stats.RecordTableName(name)
	logger.Debug("entered table section", "table", name)
}

func (w *walker) open(ev Event) string {
	switch ev.Name {
	case "table":
		out := w.flushRow()
		w.columns = nil
		w.warned = false
		w.result.Stats.Tables++
		return out + ev.Markup()

	case "tr":
		out := w.flushRow()
		w.row = &row{attrs: ev.AttrString()}
		return out

	case "td", "th":
		if w.cell != nil {
			w.closeCell("")
		}
		if w.row == nil {
			w.row = &row{implicit: true}
		}
		w.cell = &cell{tag: ev.Name, attrs: ev.AttrString(), lead: w.gap.String()}
		w.gap.Reset()
		return ""

	default:
		return w.passthrough(ev.Markup())
	}
}

func (w *walker) close(ev Event) string {
	switch ev.Name {
	case "table":
		return w.flushRow() + ev.Markup()

	case "tr":
		if w.row == nil {
			return ev.Markup()
		}
		if w.cell != nil {
			w.closeCell("")
		}
		w.row.closed = true
		return w.flushRow()

	case "td", "th":
		if w.cell == nil {
			return w.passthrough(ev.Markup())
		}
		w.closeCell(ev.Name)
		return ""

	default:
		return w.passthrough(ev.Markup())
	}
}

func (w *walker) closeCell(endTag string) {
	w.cell.endTag = endTag
	w.row.cells = append(w.row.cells, w.cell)
	w.cell = nil
}

// flushRow processes and renders the pending row, if any.
func (w *walker) flushRow() string {
	if w.row == nil {
		return ""
	}
	if w.cell != nil {
		w.closeCell("")
	}
	r := w.row
	w.row = nil
	r.trail = w.gap.String()
	w.gap.Reset()

	header := w.processRow(r)
	return w.render(r, header)
}

// processRow classifies the row and rewrites its description cell when
// needed. It reports whether the row is a header row.
func (w *walker) processRow(r *row) bool {
	labels := make([]string, len(r.cells))
	for i, c := range r.cells {
		labels[i] = strings.ToLower(PlainText(c.content.String()))
	}

	if isHeaderRow(labels) {
		w.result.Stats.HeaderRows++
		if w.columns == nil {
			w.columns = make(map[string]int, len(labels))
			for i, label := range labels {
				w.columns[label] = i
			}
			logger.Debug("column map from header", "table", w.table, "columns", w.columns)
		}
		return true
	}

	w.result.Stats.DataRows++
	attrIdx, descIdx := w.resolveColumns()
	if attrIdx >= len(r.cells) || descIdx >= len(r.cells) {
		w.result.Stats.SkippedRows++
		w.result.AddWarning("row",
			fmt.Sprintf("row has %d cells, need attribute column %d and description column %d",
				len(r.cells), attrIdx, descIdx),
			w.table)
		return false
	}

	attribute := PlainText(r.cells[attrIdx].content.String())
	current := PlainText(r.cells[descIdx].content.String())

	generic, reason := Classify(attribute, current, w.cfg.GenericPhrases)
	if !generic {
		w.result.Stats.Kept++
		return false
	}

	next := Synthesize(attribute, SingularLabel(w.table))
	if next == current {
		w.result.Stats.Kept++
		return false
	}

	escaped := html.EscapeString(next)
	r.cells[descIdx].replace = &escaped
	w.result.Stats.RecordRewrite(reason)
	w.result.Changes = append(w.result.Changes, Change{
		Table:     w.table,
		Attribute: attribute,
		Reason:    reason,
		Before:    current,
		After:     next,
	})
	logger.Debug("rewrote description",
		"table", w.table,
		"attribute", attribute,
		"reason", reason,
		"after", next)
	return false
}

func isHeaderRow(labels []string) bool {
	var attr, desc bool
	for _, l := range labels {
		switch l {
		case ColumnAttribute:
			attr = true
		case ColumnDescription:
			desc = true
		}
	}
	return attr && desc
}

// resolveColumns returns the attribute and description positions for the
// current table, falling back to the configured defaults.
func (w *walker) resolveColumns() (int, int) {
	columns := w.columns
	if columns == nil {
		columns = w.cfg.DefaultColumns
		if !w.warned {
			w.warned = true
			w.result.AddWarning("table", "no header row before data rows, using default column positions", w.table)
		}
	}
	attrIdx, ok := columns[ColumnAttribute]
	if !ok {
		attrIdx = 0
	}
	descIdx, ok := columns[ColumnDescription]
	if !ok {
		descIdx = 7
	}
	return attrIdx, descIdx
}

func (w *walker) render(r *row, header bool) string {
	var sb strings.Builder
	if !r.implicit {
		sb.WriteString("<tr")
		sb.WriteString(r.attrs)
		sb.WriteString(">")
	}
	for _, c := range r.cells {
		tag, endTag := c.tag, c.endTag
		if w.cfg.NormalizeCellTags {
			tag = "td"
			if header {
				tag = "th"
			}
			endTag = tag
		}
		sb.WriteString(c.lead)
		sb.WriteString("<")
		sb.WriteString(tag)
		sb.WriteString(c.attrs)
		sb.WriteString(">")
		sb.WriteString(c.markup())
		if endTag != "" {
			sb.WriteString("</")
			sb.WriteString(endTag)
			sb.WriteString(">")
		}
	}
	sb.WriteString(r.trail)
	if r.closed {
		sb.WriteString("</tr>")
	}
	return sb.String()
}
