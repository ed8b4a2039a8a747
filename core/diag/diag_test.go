package diag

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

func identified(t *testing.T, nodes ...tree.Node) *tree.Document {
	t.Helper()
	out, err := tree.NewIdentifier(nil).AssignAll(nodes, nil)
	if err != nil {
		t.Fatalf("AssignAll failed: %v", err)
	}
	return tree.NewDocument(out...)
}

func codes(ds []Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func TestCheckClean(t *testing.T) {
	doc := identified(t,
		tree.NewHeading(1, "Title"),
		tree.NewParagraph("Body."),
		tree.NewHeading(2, "Section"),
		tree.NewList(false, tree.NewListItem("one")),
	)
	ds, err := NewChecker().Check(context.Background(), doc)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(ds) != 0 {
		t.Errorf("Check() = %v, want no diagnostics", ds)
	}
}

func TestCheckFindings(t *testing.T) {
	stale := tree.WithID(tree.NewParagraph("edited"), nodeid.MustParse("paragraph:edited:0123456789abcdef"))
	doc := identified(t,
		tree.NewHeading(1, "Title"),
		tree.NewHeading(3, "Deep"),
		tree.NewParagraph("same"),
		tree.NewParagraph("same"),
		stale,
		tree.NewList(true),
	)
	doc = tree.NewDocument(append(doc.Nodes(), tree.NewParagraph(""))...)

	ds, err := NewChecker().Check(context.Background(), doc)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	want := []string{
		CodeHeadingLevelSkip,
		CodeDuplicateID,
		CodeStaleID,
		CodeEmptyList,
		CodeMissingID,
		CodeEmptyParagraph,
	}
	got := codes(ds)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("codes = %v, want %v", got, want)
	}

	skip := ds[0]
	if skip.Severity != SeverityWarning || len(skip.QuickFixes) != 1 || skip.QuickFixes[0].Op != "promote" {
		t.Errorf("heading skip = %+v", skip)
	}
	if !skip.QuickFixes[0].Target.Equal(doc.Nodes()[1].ID()) {
		t.Errorf("quick fix target = %s", skip.QuickFixes[0].Target)
	}
	if ds[4].Severity != SeverityError || !HasErrors(ds) {
		t.Errorf("missing id should be an error: %+v", ds[4])
	}
	if len(ds[5].QuickFixes) != 0 {
		t.Errorf("node without id offered quick fixes: %+v", ds[5].QuickFixes)
	}
	if ds[5].Severity != SeverityInfo {
		t.Errorf("empty paragraph severity = %s", ds[5].Severity)
	}
}

func TestCheckNested(t *testing.T) {
	doc := identified(t,
		tree.NewBlockQuote(tree.NewHeading(1, "")),
		tree.NewList(false, tree.NewListItem("x", tree.NewList(false))),
	)
	ds, err := NewChecker().Check(context.Background(), doc)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	got := codes(ds)
	if len(got) != 2 || got[0] != CodeEmptyHeading || got[1] != CodeEmptyList {
		t.Errorf("codes = %v", got)
	}
}

func TestContextLines(t *testing.T) {
	src := "# Title\n\n### Deep\n\ntail\n"
	h := tree.WithSpan(tree.NewHeading(3, "Deep"), provenance.Span{StartLine: 2, EndLine: 2, EndCol: 8})
	doc := identified(t,
		tree.WithSpan(tree.NewHeading(1, "Title"), provenance.Span{EndCol: 7}),
		h,
	)
	ds, err := NewChecker(WithSource(src), WithContextLines(1)).Check(context.Background(), doc)
	if err != nil || len(ds) != 1 {
		t.Fatalf("Check() = %v, %v", ds, err)
	}
	want := []string{"", "### Deep", ""}
	if strings.Join(ds[0].ContextLines, "|") != strings.Join(want, "|") {
		t.Errorf("ContextLines = %q, want %q", ds[0].ContextLines, want)
	}
	if got := ds[0].String(); got != "3:1 warning [heading-level-skip] heading level jumps from 1 to 3" {
		t.Errorf("String() = %q", got)
	}
}

func TestCheckCancelled(t *testing.T) {
	doc := identified(t,
		tree.NewParagraph(""),
		tree.NewParagraph(" "),
		tree.NewParagraph("  "),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	c := NewChecker()
	c.visit = func() {
		calls++
		if calls == 3 {
			cancel()
		}
	}
	ds, err := c.Check(ctx, doc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// Blank paragraphs share an id, so the second one is also a duplicate.
	if got := codes(ds); len(got) != 3 {
		t.Errorf("partial results = %v, want findings for two nodes", got)
	}
}

func TestSessionSupersedes(t *testing.T) {
	first := identified(t, tree.NewParagraph(""))
	second := identified(t, tree.NewHeading(1, "ok"))

	entered := make(chan struct{})
	release := make(chan struct{})
	var blocked atomic.Bool
	c := NewChecker()
	c.visit = func() {
		if blocked.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	}
	s := NewSession(c, nil)

	type result struct {
		ds  []Diagnostic
		err error
	}
	done := make(chan result)
	go func() {
		ds, err := s.Check(context.Background(), first)
		done <- result{ds, err}
	}()

	<-entered
	ds, err := s.Check(context.Background(), second)
	if err != nil || len(ds) != 0 {
		t.Errorf("current check = %v, %v", ds, err)
	}
	close(release)

	r := <-done
	if !errors.Is(r.err, errors.ErrSuperseded) || r.ds != nil {
		t.Errorf("superseded check = %v, %v; want ErrSuperseded", r.ds, r.err)
	}
}

func TestSessionCancel(t *testing.T) {
	s := NewSession(NewChecker(), nil)
	s.Cancel()
	ds, err := s.Check(context.Background(), identified(t, tree.NewParagraph("")))
	if err != nil || len(ds) != 1 || ds[0].Code != CodeEmptyParagraph {
		t.Errorf("Check() = %v, %v", ds, err)
	}
}

func TestDiagnosticJSON(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  "m",
		Span:     &provenance.Span{StartLine: 1, EndLine: 1, EndCol: 4},
		NodeID:   nodeid.MustParse("heading:deep:0123456789abcdef"),
		Code:     CodeHeadingLevelSkip,
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["severity"] != "warning" || m["node_id"] != "heading:deep:0123456789abcdef" || m["code"] != CodeHeadingLevelSkip {
		t.Errorf("payload = %s", b)
	}
	if _, ok := m["source_span"].(map[string]any); !ok {
		t.Errorf("source_span missing: %s", b)
	}

	b, _ = json.Marshal(Diagnostic{Severity: SeverityError, Code: CodeMissingID})
	if strings.Contains(string(b), "node_id") {
		t.Errorf("zero id serialized: %s", b)
	}

	var s Severity
	if err := s.UnmarshalText([]byte("hint")); err != nil || s != SeverityHint {
		t.Errorf("UnmarshalText(hint) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("fatal")); err == nil {
		t.Error("UnmarshalText(fatal) should fail")
	}
}
