// Package output writes refinement reports (change lists, stats and
// inspection results) as JSON, JSONL or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats, for flag help text.
func Formats() []string {
	return []string{string(FormatJSON), string(FormatJSONL), string(FormatYAML)}
}

// ParseFormat resolves a user-supplied format name. "yml" is accepted as
// an alias for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use %s)", s, strings.Join(Formats(), ", "))
	}
}

// Writer handles report serialization.
type Writer interface {
	// Write outputs a single record.
	Write(record any) error

	// WriteAll outputs multiple records.
	WriteAll(records []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	indent       string
	unwrapSingle bool
}

// WithIndent sets the JSON indentation string. An empty indent produces
// compact JSON.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithUnwrapSingle controls whether a single buffered record is written
// on its own rather than as a one-element list.
func WithUnwrapSingle(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.unwrapSingle = enabled
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		indent:       "  ",
		unwrapSingle: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.indent, cfg.unwrapSingle), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w, cfg.unwrapSingle), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
