package docio

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// UTF8 is the canonical name of the UTF-8 encoding.
const UTF8 = "utf-8"

// utf8BOM is the UTF-8 byte order mark.
const utf8BOM = "\xef\xbb\xbf"

// Decode converts raw document bytes to UTF-8. When override is empty the
// charset is sniffed from the byte order mark, the content type and any
// <meta> declaration. It returns the content and the canonical charset name.
func Decode(raw []byte, contentType, override string) (string, string, error) {
	var (
		enc  encoding.Encoding
		name string
		err  error
	)
	if override != "" {
		enc, name, err = lookup(override)
		if err != nil {
			return "", "", err
		}
	} else {
		var certain bool
		enc, name, certain = charset.DetermineEncoding(raw, contentType)
		// Sniffing only looks at the first 1KiB and falls back to
		// windows-1252 for plain ASCII.
		if !certain && utf8.Valid(raw) {
			name = UTF8
		}
	}

	if name == UTF8 {
		// Strip a BOM so it does not end up in front of the doctype.
		return string(bytes.TrimPrefix(raw, []byte(utf8BOM))), name, nil
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), name, nil
}

// Encode converts UTF-8 content to the named charset. Empty names and
// UTF-8 return the content unchanged.
func Encode(content, name string) ([]byte, error) {
	if isUTF8(name) {
		return []byte(content), nil
	}
	enc, canonical, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if canonical == UTF8 {
		return []byte(content), nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(content))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", canonical, err)
	}
	return out, nil
}

func isUTF8(name string) bool {
	return name == "" || strings.EqualFold(name, UTF8) || strings.EqualFold(name, "utf8")
}

func lookup(label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, name, nil
}
