package output

import (
	"bufio"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// buffered collects records and encodes them as one document on Flush.
type buffered struct {
	w            *bufio.Writer
	records      []any
	unwrapSingle bool
	encode       func(w io.Writer, v any) error
	flushed      bool
}

func (b *buffered) Write(record any) error {
	b.records = append(b.records, record)
	return nil
}

func (b *buffered) WriteAll(records []any) error {
	b.records = append(b.records, records...)
	return nil
}

// Flush encodes the buffered records. It is a no-op after the first call.
func (b *buffered) Flush() error {
	if b.flushed {
		return nil
	}
	b.flushed = true

	var v any = b.records
	if b.unwrapSingle && len(b.records) == 1 {
		v = b.records[0]
	}
	if b.records == nil {
		v = []any{}
	}
	if err := b.encode(b.w, v); err != nil {
		return err
	}
	return b.w.Flush()
}

func (b *buffered) Close() error {
	return b.Flush()
}

// JSONWriter writes all records as a single JSON document.
type JSONWriter struct {
	buffered
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, indent string, unwrapSingle bool) *JSONWriter {
	return &JSONWriter{buffered{
		w:            bufio.NewWriter(w),
		unwrapSingle: unwrapSingle,
		encode: func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			if indent != "" {
				enc.SetIndent("", indent)
			}
			return enc.Encode(v)
		},
	}}
}

// YAMLWriter writes all records as a single YAML document.
type YAMLWriter struct {
	buffered
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer, unwrapSingle bool) *YAMLWriter {
	return &YAMLWriter{buffered{
		w:            bufio.NewWriter(w),
		unwrapSingle: unwrapSingle,
		encode: func(w io.Writer, v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}}
}

// JSONLWriter writes newline-delimited JSON, one record per line, as
// records arrive.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write writes a single record as a JSON line.
func (w *JSONLWriter) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple records as JSON lines.
func (w *JSONLWriter) WriteAll(records []any) error {
	for _, r := range records {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
