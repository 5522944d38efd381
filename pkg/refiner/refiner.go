package refiner

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Transformer rewrites an HTML document.
type Transformer interface {
	// Refine transforms the input HTML and returns the new document.
	Refine(html string) (string, error)

	// Name returns the transformer type for logging/debugging.
	Name() string
}

// Refiner replaces generic column descriptions in schema documentation.
// It implements the Transformer interface.
//
// A Refiner only holds configuration and the stats of its last run; every
// call walks its document with fresh state.
type Refiner struct {
	config *Config
	stats  *Stats
}

// New creates a new Refiner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Refiner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Refiner{
		config: config,
	}
}

// Name returns the refiner name for logging.
func (r *Refiner) Name() string {
	return "refiner"
}

// Refine rewrites generic descriptions in html.
// This method implements the Transformer interface.
func (r *Refiner) Refine(html string) (string, error) {
	result := r.RefineWithStats(html)
	if result.Error != nil {
		return result.Content, result.Error
	}
	return result.Content, nil
}

// RefineWithStats performs refinement and returns detailed stats, the
// list of changes and any warnings.
func (r *Refiner) RefineWithStats(html string) *Result {
	var sb strings.Builder
	sb.Grow(len(html))

	result, err := r.run(strings.NewReader(html), &sb)
	result.Stats.InputBytes = len(html)
	if err != nil {
		// Graceful degradation: return original content with warning
		result.Content = html
		result.Error = err
		result.AddWarning("read", "refinement failed, returning original", err.Error())
		result.Stats.OutputBytes = len(html)
		return result
	}

	result.Content = sb.String()
	result.Stats.OutputBytes = sb.Len()
	return result
}

// RefineReader streams a document from src to dst. Output is written as
// soon as each row is complete; the returned Result has no Content.
func (r *Refiner) RefineReader(src io.Reader, dst io.Writer) (*Result, error) {
	cr := &countingReader{r: src}
	cw := &countingWriter{w: dst}
	result, err := r.run(cr, cw)
	result.Stats.InputBytes = cr.n
	result.Stats.OutputBytes = cw.n
	if err != nil {
		result.Error = err
		return result, err
	}
	return result, nil
}

// Stats returns the stats from the last Refine operation.
func (r *Refiner) Stats() *Stats {
	return r.stats
}

func (r *Refiner) run(src io.Reader, dst io.Writer) (*Result, error) {
	start := time.Now()
	result := &Result{Stats: NewStats()}
	defer func() {
		result.Stats.TotalDuration = time.Since(start)
		r.stats = result.Stats
	}()

	w := newWalker(r.config, result)
	s := NewScanner(src)
	for s.Scan() {
		if out := w.step(s.Event()); out != "" {
			if _, err := io.WriteString(dst, out); err != nil {
				return result, fmt.Errorf("writing output: %w", err)
			}
		}
	}
	if err := s.Err(); err != nil {
		return result, fmt.Errorf("reading input: %w", err)
	}
	if out := w.finish(); out != "" {
		if _, err := io.WriteString(dst, out); err != nil {
			return result, fmt.Errorf("writing output: %w", err)
		}
	}
	return result, nil
}

// Noop passes documents through without modification.
// Use it to re-encode a document without rewriting descriptions.
type Noop struct{}

// NewNoop creates a new no-op transformer.
func NewNoop() *Noop {
	return &Noop{}
}

// Refine returns the input unchanged.
func (n *Noop) Refine(html string) (string, error) {
	return html, nil
}

// Name returns the transformer type.
func (n *Noop) Name() string {
	return "noop"
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
