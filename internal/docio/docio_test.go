package docio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `<html><body><h2>TABLE: projects</h2><table><tr><th>Attribute</th><th>Description</th></tr></table></body></html>`

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"http://example.com/schema.html", true},
		{"HTTPS://example.com", true},
		{"database_structure.html", false},
		{"-", false},
		{"ftp://example.com/x", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsURL(tt.in); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"10MB", 10_000_000, false},
		{"512KiB", 512 * 1024, false},
		{"42", 42, false},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRead_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database_structure.html")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Read(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Kind != KindFile {
		t.Errorf("expected file kind, got %s", doc.Kind)
	}
	if doc.Content != sampleDoc {
		t.Errorf("unexpected content %q", doc.Content)
	}
	if doc.Encoding != UTF8 {
		t.Errorf("expected utf-8, got %s", doc.Encoding)
	}
	if doc.Mode != 0o600 {
		t.Errorf("expected mode 0600, got %o", doc.Mode)
	}
	if doc.RawSize != len(sampleDoc) {
		t.Errorf("expected raw size %d, got %d", len(sampleDoc), doc.RawSize)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.html")
	if err := os.WriteFile(big, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.html")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		location string
		opts     Options
		sentinel error
	}{
		{name: "missing file", location: filepath.Join(dir, "missing.html")},
		{name: "directory", location: dir},
		{name: "file too large", location: big, opts: Options{MaxSize: 10}, sentinel: ErrInputTooLarge},
		{name: "stdin too large", location: Stdin, opts: Options{MaxSize: 10, Stdin: strings.NewReader(sampleDoc)}, sentinel: ErrInputTooLarge},
		{name: "empty file", location: empty, sentinel: ErrEmptyInput},
		{name: "empty stdin", location: Stdin, opts: Options{Stdin: strings.NewReader("")}, sentinel: ErrEmptyInput},
		{name: "unknown encoding", location: big, opts: Options{Encoding: "klingon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), tt.location, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}

func TestRead_Stdin(t *testing.T) {
	doc, err := Read(context.Background(), Stdin, Options{Stdin: strings.NewReader(sampleDoc), MaxSize: -1})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Kind != KindStdin {
		t.Errorf("expected stdin kind, got %s", doc.Kind)
	}
	if doc.Content != sampleDoc {
		t.Errorf("unexpected content %q", doc.Content)
	}
}

func TestRead_URL(t *testing.T) {
	latin1 := "<html><head><meta charset=\"windows-1252\"></head><body><p>Caf\xe9</p></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schema.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(sampleDoc))
		case "/latin1.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(latin1))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("utf-8", func(t *testing.T) {
		doc, err := Read(context.Background(), srv.URL+"/schema.html", Options{})
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if doc.Kind != KindURL {
			t.Errorf("expected url kind, got %s", doc.Kind)
		}
		if doc.Content != sampleDoc {
			t.Errorf("unexpected content %q", doc.Content)
		}
	})

	t.Run("meta charset", func(t *testing.T) {
		doc, err := Read(context.Background(), srv.URL+"/latin1.html", Options{})
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if doc.Encoding != "windows-1252" {
			t.Errorf("expected windows-1252, got %s", doc.Encoding)
		}
		if !strings.Contains(doc.Content, "Café") {
			t.Errorf("expected decoded text, got %q", doc.Content)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := Read(context.Background(), srv.URL+"/missing.html", Options{}); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Read(context.Background(), srv.URL+"/schema.html", Options{MaxSize: 16})
		if !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge, got %v", err)
		}
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		contentType string
		override    string
		want        string
		wantName    string
	}{
		{
			name:     "plain ascii is utf-8",
			raw:      "<p>plain</p>",
			want:     "<p>plain</p>",
			wantName: UTF8,
		},
		{
			name:     "utf-8 bom is stripped",
			raw:      "\xef\xbb\xbf<p>x</p>",
			want:     "<p>x</p>",
			wantName: UTF8,
		},
		{
			name:        "content type wins",
			raw:         "<p>Caf\xe9</p>",
			contentType: "text/html; charset=iso-8859-1",
			want:        "<p>Café</p>",
			wantName:    "windows-1252",
		},
		{
			name:     "override",
			raw:      "<p>Caf\xe9</p>",
			override: "latin1",
			want:     "<p>Café</p>",
			wantName: "windows-1252",
		},
		{
			name:     "utf-8 beyond the sniffed prefix",
			raw:      strings.Repeat("x", 2048) + "Café",
			want:     strings.Repeat("x", 2048) + "Café",
			wantName: UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, name, err := Decode([]byte(tt.raw), tt.contentType, tt.override)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
			if name != tt.wantName {
				t.Errorf("Decode() name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	got, err := Encode("Café", "windows-1252")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(got) != "Caf\xe9" {
		t.Errorf("Encode() = %q", got)
	}

	got, err = Encode("Café", "")
	if err != nil || string(got) != "Café" {
		t.Errorf("expected passthrough, got %q, %v", got, err)
	}

	if _, err := Encode("x", "klingon"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestWriteFile(t *testing.T) {
	t.Run("replaces content and keeps mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.html")
		if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := WriteFile(path, "new", WriteOptions{}); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "new" {
			t.Errorf("expected new content, got %q", data)
		}
		info, _ := os.Stat(path)
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}
		if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
			t.Error("expected no backup")
		}
	})

	t.Run("backup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.html")
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := WriteFile(path, "new", WriteOptions{Backup: true}); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		backup, err := os.ReadFile(path + BackupSuffix)
		if err != nil {
			t.Fatalf("expected backup: %v", err)
		}
		if string(backup) != "old" {
			t.Errorf("expected old content in backup, got %q", backup)
		}
	})

	t.Run("new file with encoding", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.html")

		if err := WriteFile(path, "Café", WriteOptions{Encoding: "windows-1252", Backup: true}); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "Caf\xe9" {
			t.Errorf("expected windows-1252 bytes, got %q", data)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("expected only the output file, got %d entries", len(entries))
		}
	})
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, "<p>x</p>", WriteOptions{Encoding: UTF8}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if sb.String() != "<p>x</p>" {
		t.Errorf("unexpected output %q", sb.String())
	}
}

func TestBOMRoundTrip(t *testing.T) {
	original := "\xef\xbb\xbf" + sampleDoc
	path := filepath.Join(t.TempDir(), "bom.html")
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Read(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !doc.HasBOM {
		t.Error("expected HasBOM to be set")
	}
	if doc.Content != sampleDoc {
		t.Errorf("expected BOM stripped from content, got %q", doc.Content)
	}

	if err := WriteFile(path, doc.Content, WriteOptions{Encoding: doc.Encoding, BOM: doc.HasBOM}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != original {
		t.Errorf("expected BOM restored, got %q", got)
	}

	var sb strings.Builder
	if err := Write(&sb, "<p>x</p>", WriteOptions{BOM: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if sb.String() != "\xef\xbb\xbf<p>x</p>" {
		t.Errorf("expected BOM on stdout output, got %q", sb.String())
	}

	sb.Reset()
	if err := Write(&sb, "Café", WriteOptions{Encoding: "windows-1252", BOM: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if sb.String() != "Caf\xe9" {
		t.Errorf("expected no BOM for windows-1252, got %q", sb.String())
	}
}

func TestRead_NoBOM(t *testing.T) {
	doc, err := Read(context.Background(), Stdin, Options{Stdin: strings.NewReader(sampleDoc)})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.HasBOM {
		t.Error("expected HasBOM to be false")
	}
}
