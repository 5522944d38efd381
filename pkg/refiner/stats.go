package refiner

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats captures metrics about what the refiner did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`

	// Structure
	Tables     int      `json:"tables" yaml:"tables"`
	TableNames []string `json:"table_names" yaml:"table_names"` // in document order
	HeaderRows int      `json:"header_rows" yaml:"header_rows"`
	DataRows   int      `json:"data_rows" yaml:"data_rows"`

	// Descriptions
	Rewritten   int            `json:"rewritten" yaml:"rewritten"`
	Kept        int            `json:"kept" yaml:"kept"`
	SkippedRows int            `json:"skipped_rows" yaml:"skipped_rows"`
	ByReason    map[string]int `json:"by_reason" yaml:"by_reason"` // classification rule -> rewrites

	// Timing
	TotalDuration time.Duration `json:"total_duration_ms" yaml:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ByReason: make(map[string]int),
	}
}

// RecordRewrite records a replaced description.
func (s *Stats) RecordRewrite(reason string) {
	s.Rewritten++
	s.ByReason[reason]++
}

// RecordTableName records a table name declared by a section heading.
func (s *Stats) RecordTableName(name string) {
	s.TableNames = append(s.TableNames, name)
}

// Descriptions returns the number of description cells examined.
func (s *Stats) Descriptions() int {
	return s.Rewritten + s.Kept
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %s -> %s\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes))))

	sb.WriteString(fmt.Sprintf("Tables: %d (%d named sections)\n", s.Tables, len(s.TableNames)))
	sb.WriteString(fmt.Sprintf("Rows: %d header, %d data, %d skipped\n",
		s.HeaderRows, s.DataRows, s.SkippedRows))
	sb.WriteString(fmt.Sprintf("Descriptions: %d rewritten, %d kept\n", s.Rewritten, s.Kept))

	if len(s.ByReason) > 0 {
		sb.WriteString("Rewritten by reason: ")
		parts := make([]string, 0, len(s.ByReason))
		for reason, count := range s.ByReason {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, count))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Timing: total=%v\n", s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Change records a single rewritten description.
type Change struct {
	Table     string `json:"table" yaml:"table"`
	Attribute string `json:"attribute" yaml:"attribute"`
	Reason    string `json:"reason" yaml:"reason"`
	Before    string `json:"before" yaml:"before"`
	After     string `json:"after" yaml:"after"`
}

// Warning represents a non-fatal issue encountered while refining.
type Warning struct {
	Phase   string `json:"phase" yaml:"phase"`     // "heading", "row", "table", "read"
	Message string `json:"message" yaml:"message"` // Human-readable description
	Context string `json:"context" yaml:"context"` // Table or row that caused the issue
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a refine operation.
type Result struct {
	// Content is the refined document. On read errors, this contains the original input.
	Content string `json:"content" yaml:"content"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats" yaml:"stats"`

	// Changes lists every rewritten description in document order.
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Error is set only when the input could not be read (content is still returned).
	Error error `json:"-" yaml:"-"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Changed returns true if any description was rewritten.
func (r *Result) Changed() bool {
	return len(r.Changes) > 0
}
