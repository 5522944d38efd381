// Package docio reads schema documents from files, stdin or URLs, decodes
// them to UTF-8, and writes refined documents back.
package docio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmylchreest/descrefine/internal/logger"
)

// Stdin is the location that reads the document from standard input.
const Stdin = "-"

// DefaultMaxSize bounds how much input is read when no limit is set.
const DefaultMaxSize = 64 << 20

var (
	// ErrInputTooLarge indicates the document exceeds the configured size limit.
	ErrInputTooLarge = errors.New("input too large")
	// ErrEmptyInput indicates the document has no content.
	ErrEmptyInput = errors.New("empty input")
)

// Kind identifies where a document came from.
type Kind string

const (
	KindFile  Kind = "file"
	KindStdin Kind = "stdin"
	KindURL   Kind = "url"
)

// Options controls how a document is read.
type Options struct {
	// MaxSize is the largest accepted input in bytes. Zero means DefaultMaxSize;
	// a negative value disables the limit.
	MaxSize int64
	// Encoding forces the input charset instead of sniffing it.
	Encoding string
	// UserAgent and Timeout apply to URL sources.
	UserAgent string
	Timeout   time.Duration
	// Stdin is read for the "-" location. Defaults to os.Stdin.
	Stdin io.Reader
}

// Document is a decoded input document.
type Document struct {
	Location string
	Kind     Kind
	// Content is the document decoded to UTF-8.
	Content string
	// Encoding is the canonical name of the source charset.
	Encoding string
	// HasBOM is set when a UTF-8 source started with a byte order mark,
	// which Content does not include.
	HasBOM bool
	// RawSize is the size of the undecoded input in bytes.
	RawSize int
	// Mode is the file mode of a file source, reused when writing back.
	Mode os.FileMode
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// ParseSize parses a human-readable size such as "10MB" or "512KiB".
func ParseSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

func (o Options) limit() int64 {
	switch {
	case o.MaxSize == 0:
		return DefaultMaxSize
	case o.MaxSize < 0:
		return 0
	default:
		return o.MaxSize
	}
}

// Read loads and decodes the document at location: a file path, "-" for
// stdin, or an http(s) URL.
func Read(ctx context.Context, location string, opts Options) (*Document, error) {
	doc := &Document{Location: location}

	var (
		raw         []byte
		contentType string
		err         error
	)
	switch {
	case location == Stdin:
		doc.Kind = KindStdin
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		raw, err = readLimited(in, opts.limit())
	case IsURL(location):
		doc.Kind = KindURL
		raw, contentType, err = fetch(ctx, location, opts)
	default:
		doc.Kind = KindFile
		raw, doc.Mode, err = readFile(location, opts.limit())
	}
	if err != nil {
		return nil, err
	}
	doc.RawSize = len(raw)

	logger.Debug("read document",
		"location", location,
		"kind", doc.Kind,
		"size", humanize.Bytes(uint64(len(raw))))

	if len(raw) == 0 {
		return doc, fmt.Errorf("%s: %w", location, ErrEmptyInput)
	}

	doc.Content, doc.Encoding, err = Decode(raw, contentType, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}
	doc.HasBOM = doc.Encoding == UTF8 && bytes.HasPrefix(raw, []byte(utf8BOM))
	return doc, nil
}

func readFile(path string, limit int64) ([]byte, os.FileMode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, 0, tooLarge(info.Size(), limit)
	}

	raw, err := readLimited(f, limit)
	return raw, info.Mode().Perm(), err
}

// readLimited reads r fully, failing with ErrInputTooLarge past limit.
// A zero limit reads without bound.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return raw, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, tooLarge(int64(len(raw)), limit)
	}
	return raw, nil
}

func tooLarge(size, limit int64) error {
	return fmt.Errorf("%w: more than %s (at least %s)", ErrInputTooLarge,
		humanize.Bytes(uint64(limit)), humanize.Bytes(uint64(size)))
}
