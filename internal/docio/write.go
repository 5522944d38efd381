package docio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jmylchreest/descrefine/internal/logger"
)

// BackupSuffix is appended to the original path when a backup is kept.
const BackupSuffix = ".bak"

// WriteOptions controls how a document is written.
type WriteOptions struct {
	// Backup copies the existing file to <path>.bak before replacing it.
	Backup bool
	// Encoding re-encodes the content into the named charset.
	Encoding string
	// BOM prefixes UTF-8 output with a byte order mark. Ignored for
	// other encodings.
	BOM bool
	// Mode is the file mode for new files. Defaults to 0o644.
	Mode os.FileMode
}

// WriteFile replaces path with content atomically: the data goes to a
// temporary file in the same directory which is then renamed over path.
func WriteFile(path, content string, opts WriteOptions) error {
	data, err := opts.encode(content)
	if err != nil {
		return err
	}

	mode := opts.Mode
	if mode == 0 {
		mode = 0o644
	}
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if opts.Backup {
			if err := copyFile(path, path+BackupSuffix, mode); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			logger.Debug("wrote backup", "path", path+BackupSuffix)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	logger.Debug("wrote document", "path", path, "size", len(data))
	return nil
}

// Write encodes content into w. Only Encoding and BOM apply.
func Write(w io.Writer, content string, opts WriteOptions) error {
	data, err := opts.encode(content)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (o WriteOptions) encode(content string) ([]byte, error) {
	data, err := Encode(content, o.Encoding)
	if err != nil {
		return nil, err
	}
	if o.BOM && isUTF8(o.Encoding) {
		data = append([]byte(utf8BOM), data...)
	}
	return data, nil
}
