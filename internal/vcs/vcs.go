// Package vcs looks up version-control metadata for file-backed provenance
// contexts. Lookups shell out to git; a file outside a repository simply
// yields no metadata.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/outline/core/provenance"
)

// Info is the last commit touching a file.
type Info struct {
	Commit string
	Author string
}

// runGit is replaced in tests.
var runGit = func(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Lookup returns the last commit that touched path. ok is false when path is
// not tracked by git or git is unavailable.
func Lookup(ctx context.Context, path string) (Info, bool) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	out, err := runGit(ctx, dir, "log", "-1", "--format=%H%n%an", "--", name)
	if err != nil {
		return Info{}, false
	}
	return parseLog(out)
}

func parseLog(out []byte) (Info, bool) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 || len(lines[0]) < 7 {
		return Info{}, false
	}
	return Info{
		Commit: strings.TrimSpace(lines[0]),
		Author: strings.TrimSpace(lines[1]),
	}, true
}

// FileContext builds the provenance context for path, filling commit and
// author from git when available. A non-empty author overrides the commit
// author.
func FileContext(ctx context.Context, path, author string) provenance.FileContext {
	fc := provenance.FileContext{Path: path, Author: author}
	if info, ok := Lookup(ctx, path); ok {
		fc.Commit = info.Commit
		if fc.Author == "" {
			fc.Author = info.Author
		}
	}
	return fc
}
