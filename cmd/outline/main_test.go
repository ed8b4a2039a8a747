package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
	"github.com/FocuswithJustin/outline/internal/archive"
	"github.com/FocuswithJustin/outline/internal/formats/markdown"
	"github.com/FocuswithJustin/outline/internal/validation"
)

const sample = "# Title\n\n## Section\n\n- one\n- two\n"

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// runCLI runs the command line with a config file that does not exist, so
// defaults apply regardless of the working directory.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"OUTLINE_LOG_LEVEL", "OUTLINE_LOG_FORMAT", "OUTLINE_CACHE_SIZE", "OUTLINE_COMPAT", "OUTLINE_AUTHOR"} {
		t.Setenv(k, "")
	}
	cfg := filepath.Join(t.TempDir(), "none.yaml")
	var out bytes.Buffer
	err := run(append([]string{"--config", cfg, "--log-level", "error"}, args...), &out)
	return out.String(), err
}

func nodeIDs(t *testing.T, src string) *tree.Document {
	t.Helper()
	doc, err := markdown.NewReader(nil).Parse(src, "x.md", provenance.FileContext{})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "outline version "+version+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestIDsCmd(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", sample)
	doc := nodeIDs(t, sample)

	out, err := runCLI(t, "ids", path, "--legacy")
	if err != nil {
		t.Fatalf("ids failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out)
	}
	want := doc.Nodes()[1].ID().String() + " (n1)  Section"
	if lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
	if !strings.HasPrefix(lines[3], "  ") || !strings.HasSuffix(lines[3], "(n2.0)  one") {
		t.Errorf("list item line = %q", lines[3])
	}

	out, err = runCLI(t, "ids", path, "--json")
	if err != nil {
		t.Fatalf("ids --json failed: %v", err)
	}
	var resp struct {
		Success bool
		Data    []map[string]any
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !resp.Success || len(resp.Data) != 3 || resp.Data[0]["id"] != doc.Nodes()[0].ID().String() {
		t.Errorf("payload = %+v", resp)
	}
}

func TestOpPromote(t *testing.T) {
	src := "# Title\n\n## Section\n"
	path := createTestFile(t, t.TempDir(), "doc.md", src)
	section := nodeIDs(t, src).Nodes()[1].ID().String()

	out, err := runCLI(t, "op", "promote", path, section)
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if out != "# Title\n\n# Section\n" {
		t.Errorf("output = %q", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != src {
		t.Error("file modified without --write")
	}
}

func TestOpWriteCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md.xz")
	if err := archive.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	two := nodeIDs(t, sample).Nodes()[2].(*tree.List).Items()[1].ID().String()

	out, err := runCLI(t, "op", "move-up", path, two, "-w")
	if err != nil {
		t.Fatalf("move-up failed: %v", err)
	}
	if out != "move-up: "+two+"\n" {
		t.Errorf("output = %q", out)
	}
	data, err := archive.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "# Title\n\n## Section\n\n- two\n- one\n"; string(data) != want {
		t.Errorf("written = %q, want %q", data, want)
	}
}

func TestOpSetTextJSON(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", sample)
	title := nodeIDs(t, sample).Nodes()[0].ID().String()

	out, err := runCLI(t, "op", "set-text", path, title, "Renamed", "--json")
	if err != nil {
		t.Fatalf("set-text failed: %v", err)
	}
	var resp struct {
		Data struct {
			Op     string           `json:"op"`
			Target string           `json:"target"`
			NewID  string           `json:"new_id"`
			Edits  []map[string]any `json:"edits"`
			Text   string           `json:"text"`
		}
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	d := resp.Data
	if d.Op != "set-text" || d.Target != title || d.NewID == "" || d.NewID == title {
		t.Errorf("payload = %+v", d)
	}
	if len(d.Edits) != 1 || d.Edits[0]["new_text"] != "# Renamed" {
		t.Errorf("edits = %v", d.Edits)
	}
	if !strings.HasPrefix(d.Text, "# Renamed\n") {
		t.Errorf("text = %q", d.Text)
	}
}

func TestOpErrors(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", sample)
	doc := nodeIDs(t, sample)

	if _, err := runCLI(t, "op", "promote", path, "heading:nope:0123456789abcdef"); err == nil {
		t.Error("unknown id accepted")
	}
	if _, err := runCLI(t, "op", "promote", path, doc.Nodes()[2].ID().String()); err == nil {
		t.Error("promote of a list accepted")
	}
	if _, err := runCLI(t, "op", "promote", path, "n1"); err == nil {
		t.Error("positional id accepted without --compat")
	}
	if _, err := runCLI(t, "--compat", "op", "promote", path, "n1"); err != nil {
		t.Errorf("positional id with --compat: %v", err)
	}
}

func TestCheckCmd(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", "# A\n\n### B\n")
	out, err := runCLI(t, "check", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "[heading-level-skip]") || !strings.Contains(out, "| ### B") {
		t.Errorf("output = %q", out)
	}

	clean := createTestFile(t, t.TempDir(), "clean.md", sample)
	out, err = runCLI(t, "check", clean, "--json")
	if err != nil {
		t.Fatalf("check --json failed: %v", err)
	}
	var resp struct {
		Data []any
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil || resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("clean check = %s (%v)", out, err)
	}
}

func TestLookupCmd(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", sample)
	doc := nodeIDs(t, sample)

	out, err := runCLI(t, "--compat", "lookup", path, "n2.1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	item := doc.Nodes()[2].(*tree.List).Items()[1].ID().String()
	if out != item+"\tn2.1\tlistitem\n" {
		t.Errorf("output = %q", out)
	}

	out, err = runCLI(t, "lookup", path, "n9", "--json")
	if err == nil {
		t.Fatal("lookup of unknown ref succeeded")
	}
	if !strings.Contains(out, `"not_found"`) {
		t.Errorf("error payload = %s", out)
	}
}

func TestViewCmd(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "doc.md", sample)
	out, err := runCLI(t, "view", path)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if want := "# Title\n\n## Section\n\n- one\n\n- two\n"; out != want {
		t.Errorf("view = %q, want %q", out, want)
	}

	out, err = runCLI(t, "view", path, "--map")
	if err != nil {
		t.Fatalf("view --map failed: %v", err)
	}
	var m struct {
		Entries []struct {
			NodeID string `json:"node_id"`
			Origin string `json:"origin"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(m.Entries) != 4 || m.Entries[0].Origin != path {
		t.Errorf("mapping = %+v", m)
	}
}

func TestRejectsBinaryInput(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bin.md", "\x00\x01\x02")
	_, err := runCLI(t, "ids", path)
	if !errors.Is(err, validation.ErrTypeMismatch) {
		t.Fatalf("binary input error = %v, want ErrTypeMismatch", err)
	}
	if !strings.HasPrefix(err.Error(), "invalid input "+path+": ") {
		t.Errorf("error = %q", err)
	}
}

func TestOpRejectsBadOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "doc.md", sample)
	title := nodeIDs(t, sample).Nodes()[0].ID().String()

	_, err := runCLI(t, "op", "delete", path, title, "-o", filepath.Join(dir, "-out.md"))
	if !errors.Is(err, validation.ErrInvalidFilename) {
		t.Fatalf("error = %v, want ErrInvalidFilename", err)
	}
	if !strings.HasPrefix(err.Error(), "invalid output path: ") {
		t.Errorf("error = %q", err)
	}
}
