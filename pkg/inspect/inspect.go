// Package inspect builds a read-only catalog of the tables in a schema
// document: which section each table belongs to, its columns, and how many
// of its descriptions the refiner would rewrite.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize/english"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/descrefine/pkg/refiner"
)

// Table describes one <table> element.
type Table struct {
	// Index is the zero-based position of the table in the document.
	Index int `json:"index" yaml:"index"`
	// Name is the identifier from the closest preceding TABLE: marker.
	Name string `json:"name" yaml:"name"`
	// Label is the singular label used in synthesized descriptions.
	Label string `json:"label" yaml:"label"`
	// Columns holds the labels of the first header row, as written.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	// DefaultColumns is set when no header row precedes the data rows.
	DefaultColumns bool `json:"default_columns,omitempty" yaml:"default_columns,omitempty"`

	HeaderRows  int `json:"header_rows" yaml:"header_rows"`
	DataRows    int `json:"data_rows" yaml:"data_rows"`
	SkippedRows int `json:"skipped_rows,omitempty" yaml:"skipped_rows,omitempty"`
	Generic     int `json:"generic" yaml:"generic"`
	Pending     int `json:"pending" yaml:"pending"`

	// GenericAttributes lists attributes whose description is generic.
	GenericAttributes []string `json:"generic_attributes,omitempty" yaml:"generic_attributes,omitempty"`
}

// Catalog is the result of inspecting a document.
type Catalog struct {
	Tables []Table `json:"tables" yaml:"tables"`
	// Sections lists TABLE: marker names in document order.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Pending returns the number of descriptions a refine run would rewrite.
func (c *Catalog) Pending() int {
	n := 0
	for _, t := range c.Tables {
		n += t.Pending
	}
	return n
}

// Records returns the tables as a slice for the output writers.
func (c *Catalog) Records() []any {
	records := make([]any, len(c.Tables))
	for i, t := range c.Tables {
		records[i] = t
	}
	return records
}

// String renders a human-readable summary.
func (c *Catalog) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s\n",
		english.Plural(len(c.Tables), "table", ""),
		english.Plural(len(c.Sections), "named section", ""))
	for _, t := range c.Tables {
		name := t.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&sb, "  #%d %s: %s, %d generic, %d pending",
			t.Index, name, english.Plural(t.DataRows, "row", ""), t.Generic, t.Pending)
		if t.DefaultColumns {
			sb.WriteString(" [default columns]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Inspect parses the document and catalogs its tables. A nil config uses
// refiner.DefaultConfig.
func Inspect(r io.Reader, cfg *refiner.Config) (*Catalog, error) {
	if cfg == nil {
		cfg = refiner.DefaultConfig()
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	ins := &inspector{doc: doc, cfg: cfg, catalog: &Catalog{}}
	for _, n := range doc.Nodes {
		ins.walk(n, 0)
	}
	return ins.catalog, nil
}

// InspectString is Inspect for an in-memory document.
func InspectString(content string, cfg *refiner.Config) (*Catalog, error) {
	return Inspect(strings.NewReader(content), cfg)
}

type inspector struct {
	doc     *goquery.Document
	cfg     *refiner.Config
	catalog *Catalog
	table   string
}

// walk visits nodes in document order so TABLE: markers apply to the
// tables that follow them.
func (ins *inspector) walk(n *html.Node, depth int) {
	switch {
	case n.Type == html.TextNode && depth == 0:
		ins.noteMarker(n.Data)
	case n.Type == html.ElementNode && n.DataAtom == atom.Table:
		ins.addTable(ins.doc.FindNodes(n))
		depth++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ins.walk(c, depth)
	}
}

func (ins *inspector) noteMarker(text string) {
	name, found := refiner.TableName(text)
	if !found || name == "" {
		return
	}
	ins.table = name
	ins.catalog.Sections = append(ins.catalog.Sections, name)
}

func (ins *inspector) addTable(sel *goquery.Selection) {
	t := Table{
		Index: len(ins.catalog.Tables),
		Name:  ins.table,
		Label: refiner.SingularLabel(ins.table),
	}
	node := sel.Get(0)

	var columns map[string]int
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Rows of nested tables belong to those tables.
		if tr.Closest("table").Get(0) != node {
			return
		}

		var raw, labels []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			inner, _ := cell.Html()
			text := refiner.PlainText(inner)
			raw = append(raw, text)
			labels = append(labels, strings.ToLower(text))
		})

		if isHeader(labels) {
			t.HeaderRows++
			if columns == nil {
				t.Columns = raw
				columns = make(map[string]int, len(labels))
				for i, l := range labels {
					columns[l] = i
				}
			}
			return
		}

		t.DataRows++
		cols := columns
		if cols == nil {
			cols = ins.cfg.DefaultColumns
			t.DefaultColumns = true
		}
		attrIdx, descIdx := position(cols, refiner.ColumnAttribute, 0), position(cols, refiner.ColumnDescription, 7)
		if attrIdx >= len(raw) || descIdx >= len(raw) {
			t.SkippedRows++
			return
		}

		attribute, current := raw[attrIdx], raw[descIdx]
		if !refiner.IsGeneric(attribute, current, ins.cfg.GenericPhrases) {
			return
		}
		t.Generic++
		t.GenericAttributes = append(t.GenericAttributes, attribute)
		if refiner.Synthesize(attribute, t.Label) != current {
			t.Pending++
		}
	})

	ins.catalog.Tables = append(ins.catalog.Tables, t)
}

func isHeader(labels []string) bool {
	var attr, desc bool
	for _, l := range labels {
		attr = attr || l == refiner.ColumnAttribute
		desc = desc || l == refiner.ColumnDescription
	}
	return attr && desc
}

func position(columns map[string]int, label string, fallback int) int {
	if i, ok := columns[label]; ok {
		return i
	}
	return fallback
}
