package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// WriteFile writes data to path, compressing it when the name ends in .xz or
// .gz. The file is written to a temporary sibling first and renamed into
// place, so readers never observe a partial document.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	var w io.WriteCloser
	switch DetectCompression(path) {
	case XZ:
		xzw, err := xz.NewWriter(tmp)
		if err != nil {
			cleanup()
			return fmt.Errorf("xz writer: %w", err)
		}
		w = xzw
	case Gzip:
		w = gzip.NewWriter(tmp)
	}

	if w != nil {
		if _, err := w.Write(data); err != nil {
			cleanup()
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			cleanup()
			return fmt.Errorf("compress %s: %w", path, err)
		}
	} else if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
