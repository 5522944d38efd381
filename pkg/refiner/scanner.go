package refiner

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// EventKind identifies the type of a markup event.
type EventKind int

const (
	// EventText is a run of character data, kept exactly as written.
	EventText EventKind = iota
	// EventStartTag is an opening tag such as <td class="x">.
	EventStartTag
	// EventEndTag is a closing tag such as </td>.
	EventEndTag
	// EventSelfClosingTag is a tag written as <br/>.
	EventSelfClosingTag
	// EventRaw covers comments and doctypes, which are never interpreted.
	EventRaw
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventStartTag:
		return "start"
	case EventEndTag:
		return "end"
	case EventSelfClosingTag:
		return "self-closing"
	case EventRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Attr is a single tag attribute. Valueless attributes have an empty Val.
type Attr struct {
	Key string
	Val string
}

// Event is one markup event delivered by the Scanner.
type Event struct {
	Kind  EventKind
	Name  string // lower-cased tag name, empty for text and raw events
	Attrs []Attr
	Raw   string // source bytes of the event
}

// AttrString serializes the attributes as ` key="value"` pairs.
// Values have double quotes escaped; valueless attributes become key="".
func (e Event) AttrString() string {
	return serializeAttrs(e.Attrs)
}

// Markup returns the serialized form of the event. Text and raw events
// are returned verbatim; tags are re-serialized from name and attributes.
func (e Event) Markup() string {
	switch e.Kind {
	case EventStartTag:
		return "<" + e.Name + e.AttrString() + ">"
	case EventSelfClosingTag:
		return "<" + e.Name + e.AttrString() + "/>"
	case EventEndTag:
		return "</" + e.Name + ">"
	default:
		return e.Raw
	}
}

func serializeAttrs(attrs []Attr) string {
	if len(attrs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(strings.ReplaceAll(a.Val, `"`, "&quot;"))
		sb.WriteByte('"')
	}
	return sb.String()
}

// Scanner delivers markup events in document order on top of the
// golang.org/x/net/html tokenizer. It never coalesces, reorders or
// inserts events.
//
// Usage follows bufio.Scanner:
//
//	s := refiner.NewScanner(r)
//	for s.Scan() {
//	    ev := s.Event()
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	z   *html.Tokenizer
	ev  Event
	err error
}

// NewScanner creates a Scanner reading UTF-8 markup from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{z: html.NewTokenizer(r)}
}

// Scan advances to the next event. It returns false at end of input or
// on a read error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	tt := s.z.Next()
	if tt == html.ErrorToken {
		if err := s.z.Err(); !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}

	raw := string(s.z.Raw())

	switch tt {
	case html.TextToken:
		s.ev = Event{Kind: EventText, Raw: raw}
	case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
		tok := s.z.Token()
		ev := Event{Name: tok.Data, Raw: raw}
		switch tt {
		case html.StartTagToken:
			ev.Kind = EventStartTag
		case html.EndTagToken:
			ev.Kind = EventEndTag
		default:
			ev.Kind = EventSelfClosingTag
		}
		if len(tok.Attr) > 0 {
			ev.Attrs = make([]Attr, len(tok.Attr))
			for i, a := range tok.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				ev.Attrs[i] = Attr{Key: key, Val: a.Val}
			}
		}
		s.ev = ev
	default:
		s.ev = Event{Kind: EventRaw, Raw: raw}
	}
	return true
}

// Event returns the most recent event produced by Scan.
func (s *Scanner) Event() Event {
	return s.ev
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}
