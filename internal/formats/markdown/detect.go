package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
	"github.com/FocuswithJustin/outline/internal/archive"
)

// Extensions recognized as Markdown, before any compression suffix.
var Extensions = []string{".md", ".markdown"}

// DetectResult is the result of format detection.
type DetectResult struct {
	Detected bool   `json:"detected"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Detect reports whether path names a Markdown source, possibly compressed.
func Detect(path string) (*DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Reason: fmt.Sprintf("cannot stat: %v", err)}, nil
	}
	if info.IsDir() {
		return &DetectResult{Reason: "path is a directory"}, nil
	}
	ext := strings.ToLower(filepath.Ext(archive.StripCompression(path)))
	for _, e := range Extensions {
		if ext == e {
			return &DetectResult{Detected: true, Format: FormatName, Reason: "Markdown file detected"}, nil
		}
	}
	return &DetectResult{Reason: "not a Markdown file"}, nil
}

// ParseFile reads and parses a possibly compressed Markdown file.
func (r *Reader) ParseFile(path string, pctx provenance.Context) (*tree.Document, error) {
	data, err := archive.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return r.Parse(string(data), path, pctx)
}
