package refiner

import (
	"errors"
	"strings"
	"testing"
)

func scanAll(t *testing.T, doc string) []Event {
	t.Helper()
	s := NewScanner(strings.NewReader(doc))
	var events []Event
	for s.Scan() {
		events = append(events, s.Event())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return events
}

func TestScanner_EventOrder(t *testing.T) {
	events := scanAll(t, `<!-- gen --><h2 id="t1">TABLE: users</h2><br/>`)

	want := []struct {
		kind EventKind
		name string
		raw  string
	}{
		{EventRaw, "", "<!-- gen -->"},
		{EventStartTag, "h2", `<h2 id="t1">`},
		{EventText, "", "TABLE: users"},
		{EventEndTag, "h2", "</h2>"},
		{EventSelfClosingTag, "br", "<br/>"},
	}

	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		ev := events[i]
		if ev.Kind != w.kind || ev.Name != w.name || ev.Raw != w.raw {
			t.Errorf("event %d = {%s %q %q}, want {%s %q %q}",
				i, ev.Kind, ev.Name, ev.Raw, w.kind, w.name, w.raw)
		}
	}
}

func TestScanner_TextKeepsEntities(t *testing.T) {
	events := scanAll(t, `<p>Tom &amp; Jerry</p>`)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Raw != "Tom &amp; Jerry" {
		t.Errorf("expected raw entity text, got %q", events[1].Raw)
	}
}

func TestEvent_Markup(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"lower-cases tag names", `<TD>`, `<td>`},
		{"valueless attribute", `<td nowrap>`, `<td nowrap="">`},
		{"single quoted attribute", `<td class='a'>`, `<td class="a">`},
		{"escapes double quotes", `<td title='say "hi"'>`, `<td title="say &quot;hi&quot;">`},
		{"keeps attribute order", `<td b="2" a="1">`, `<td b="2" a="1">`},
		{"self closing", `<br />`, `<br/>`},
		{"end tag", `</TR>`, `</tr>`},
		{"comment verbatim", `<!--  TABLE: x -->`, `<!--  TABLE: x -->`},
		{"doctype verbatim", `<!DOCTYPE html>`, `<!DOCTYPE html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := scanAll(t, tt.doc)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if got := events[0].Markup(); got != tt.want {
				t.Errorf("Markup() = %q, want %q", got, tt.want)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestScanner_ReadError(t *testing.T) {
	s := NewScanner(failingReader{})
	if s.Scan() {
		t.Fatal("expected Scan() to return false")
	}
	if s.Err() == nil || !strings.Contains(s.Err().Error(), "disk on fire") {
		t.Errorf("expected read error, got %v", s.Err())
	}
}
