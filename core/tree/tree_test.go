package tree

import (
	"testing"

	"github.com/FocuswithJustin/outline/core/cache"
	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
)

// fakeNode is a node type the package does not know how to canonicalize.
type fakeNode struct {
	base
	leaf
}

func (f *fakeNode) Type() nodeid.Type { return nodeid.Type("fake") }
func (f *fakeNode) clone() mutable    { c := *f; return &c }

func assign(t *testing.T, n Node) Node {
	t.Helper()
	out, err := NewIdentifier(nil).Assign(n, nil)
	if err != nil {
		t.Fatalf("Assign(%s) failed: %v", n.Type(), err)
	}
	return out
}

func mustID(t *testing.T, n Node) nodeid.ID {
	t.Helper()
	id, err := NewIdentifier(nil).FromNode(n)
	if err != nil {
		t.Fatalf("FromNode(%s) failed: %v", n.Type(), err)
	}
	return id
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"heading collapses whitespace", NewHeading(2, "  Hello \t  World "), "heading:Hello World"},
		{"paragraph", NewParagraph("a\nb"), "paragraph:a b"},
		{"code keeps spaces", NewCodeBlock("go", "a\r\n\tb  c\r"), "codeblock:go:a\n    b  c\n"},
		{"code language escapes colon", NewCodeBlock("c:x", "x"), "codeblock:c\x1b4x:x"},
		{"paragraph escapes separators", NewParagraph("a\x1eb\x02"), "paragraph:a\x1b3b\x1b1"},
		{"list item", NewListItem("one", NewParagraph("p")), "listitem:\x02one\x1eparagraph:p\x03"},
		{"list", NewList(true, NewListItem("a"), NewListItem("b")), "list:\x02listitem:\x02a\x03\x1elistitem:\x02b\x03\x03"},
		{"empty quote", NewBlockQuote(), "blockquote:\x02\x03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.node)
			if err != nil {
				t.Fatalf("Canonicalize failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalizeNFC(t *testing.T) {
	composed, _ := Canonicalize(NewParagraph("café"))
	decomposed, _ := Canonicalize(NewParagraph("cafe\u0301"))
	if composed != decomposed {
		t.Errorf("NFC forms differ: %q vs %q", composed, decomposed)
	}
}

func TestPresentationExcludedFromIdentity(t *testing.T) {
	if !mustID(t, NewHeading(1, "Title")).Equal(mustID(t, NewHeading(4, "Title"))) {
		t.Error("heading level changed identity")
	}
	items := []*ListItem{NewListItem("a"), NewListItem("b")}
	if !mustID(t, NewList(true, items...)).Equal(mustID(t, NewList(false, items...))) {
		t.Error("list ordering changed identity")
	}
	if mustID(t, NewList(false, items[0])).Equal(mustID(t, NewList(false, items...))) {
		t.Error("different items produced the same list identity")
	}
}

func TestCanonicalizeUnsupported(t *testing.T) {
	_, err := Canonicalize(&fakeNode{})
	if err == nil {
		t.Fatal("expected error for unknown node type")
	}
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("error %v does not wrap ErrUnsupported", err)
	}
	var ce *errors.CanonicalizationError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not a CanonicalizationError", err)
	}

	// Nested inside a container, the failure still surfaces.
	q := &BlockQuote{content: []Node{NewParagraph("ok"), &fakeNode{}}}
	if _, err := Canonicalize(q); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("nested unknown node: err = %v", err)
	}
	if _, err := NewIdentifier(nil).Assign(q, nil); err == nil {
		t.Error("Assign hashed an unknown node type")
	}
	if _, err := Fingerprint(q); err == nil {
		t.Error("Fingerprint accepted an unknown node type")
	}
}

func TestIdenticalContentSameID(t *testing.T) {
	a := NewList(false, NewListItem("x", NewParagraph("nested")))
	b := NewList(true, NewListItem("x  ", NewParagraph(" nested")))
	if !mustID(t, a).Equal(mustID(t, b)) {
		t.Error("semantically identical lists produced different ids")
	}
}

func TestAssign(t *testing.T) {
	prov := provenance.FromContext(provenance.FileContext{Path: "a.md"})
	q := NewBlockQuote(NewParagraph("p"), NewList(false, NewListItem("i")))
	got, err := NewIdentifier(nil).Assign(q, &prov)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	doc := NewDocument(got)
	count := 0
	doc.Walk(func(n Node, p Path) bool {
		count++
		if !n.HasID() {
			t.Errorf("node at %s has no id", p)
		}
		if pv, ok := n.Provenance(); !ok || pv.Origin != "a.md" {
			t.Errorf("node at %s provenance = %+v, %v", p, pv, ok)
		}
		return true
	})
	if count != 4 {
		t.Errorf("walked %d nodes, want 4", count)
	}
	if q.HasID() {
		t.Error("Assign mutated its input")
	}

	// Existing ids are kept.
	custom := nodeid.MustParse("paragraph:custom:0123456789abcdef")
	kept, err := NewIdentifier(nil).Assign(WithID(NewParagraph("p"), custom), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !kept.ID().Equal(custom) {
		t.Errorf("Assign replaced existing id: %s", kept.ID())
	}
}

func TestWithMethodsIdentity(t *testing.T) {
	h := assign(t, NewHeading(2, "Intro")).(*Heading)

	if got := h.WithLevel(3); !got.ID().Equal(h.ID()) || got.Level() != 3 {
		t.Errorf("WithLevel: id %s level %d", got.ID(), got.Level())
	}
	if got := h.WithLevel(9); got.Level() != MaxHeadingLevel {
		t.Errorf("WithLevel(9).Level() = %d, want %d", got.Level(), MaxHeadingLevel)
	}
	if got := h.WithChildren(NewParagraph("x")); !got.ID().Equal(h.ID()) {
		t.Error("WithChildren changed id")
	}
	edited := h.WithText("Introduction")
	if edited.ID().Equal(h.ID()) {
		t.Error("WithText kept the old id")
	}
	if !edited.ID().Equal(mustID(t, NewHeading(1, "Introduction"))) {
		t.Error("regenerated id does not match a fresh computation")
	}
	if h.Text() != "Intro" {
		t.Error("WithText mutated the receiver")
	}

	l := assign(t, NewList(false, NewListItem("a"))).(*List)
	if got := l.WithOrdered(true); !got.ID().Equal(l.ID()) || !got.Ordered() {
		t.Error("WithOrdered changed id or did not apply")
	}
	if got := l.WithItems(NewListItem("b")); got.ID().Equal(l.ID()) {
		t.Error("WithItems kept the old id")
	}

	it := assign(t, NewListItem("a")).(*ListItem)
	if got := it.WithContent(NewParagraph("more")); got.ID().Equal(it.ID()) {
		t.Error("ListItem.WithContent kept the old id")
	}
	bq := assign(t, NewBlockQuote(NewParagraph("a"))).(*BlockQuote)
	if got := bq.WithContent(NewParagraph("b")); got.ID().Equal(bq.ID()) {
		t.Error("BlockQuote.WithContent kept the old id")
	}

	// Nodes without ids stay without ids.
	if NewParagraph("x").WithText("y").HasID() {
		t.Error("WithText assigned an id to an unidentified node")
	}
}

func TestCodeEditKeepsLanguageAndSiblings(t *testing.T) {
	nodes, err := NewIdentifier(nil).AssignAll([]Node{
		NewParagraph("before"),
		NewCodeBlock("go", "fmt.Println(1)"),
		NewParagraph("after"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	doc := NewDocument(nodes...)
	code := nodes[1].(*CodeBlock)

	edited := code.WithCode("fmt.Println(2)")
	if edited.ID().Equal(code.ID()) {
		t.Error("code edit kept id")
	}
	if edited.Language() != "go" {
		t.Errorf("Language() = %q, want go", edited.Language())
	}

	next, err := doc.Replace(Path{1}, edited)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{0, 2} {
		n, _ := next.NodeAt(Path{i})
		if !n.ID().Equal(nodes[i].ID()) {
			t.Errorf("sibling %d id changed: %s -> %s", i, nodes[i].ID(), n.ID())
		}
	}
	if _, ok := next.FindNode(code.ID()); ok {
		t.Error("old code id still indexed")
	}
	if _, ok := next.FindNode(edited.ID()); !ok {
		t.Error("new code id not indexed")
	}
	if _, ok := doc.FindNode(code.ID()); !ok {
		t.Error("original document lost its index entry")
	}
}

func TestMetadataDeepCopy(t *testing.T) {
	nested := map[string]any{"k": "v"}
	tags := []any{"a", map[string]any{"deep": 1}}
	p := assign(t, NewParagraph("x"))
	p2 := WithMetadata(p, Metadata{"nested": nested, "tags": tags})

	if !p2.ID().Equal(p.ID()) {
		t.Error("metadata update changed id")
	}
	nested["k"] = "changed"
	tags[1].(map[string]any)["deep"] = 2
	m := p2.Metadata()
	if m["nested"].(map[string]any)["k"] != "v" {
		t.Error("node shares nested map with caller")
	}
	if m["tags"].([]any)[1].(map[string]any)["deep"] != 1 {
		t.Error("node shares nested slice element with caller")
	}

	m["nested"].(map[string]any)["k"] = "mutated"
	if p2.Metadata()["nested"].(map[string]any)["k"] != "v" {
		t.Error("Metadata() returned shared state")
	}

	p3 := WithMetadataValue(p2, "extra", 1)
	if _, ok := p2.Metadata()["extra"]; ok {
		t.Error("WithMetadataValue mutated the original node")
	}
	if p3.Metadata()["extra"] != 1 {
		t.Error("WithMetadataValue did not set the key")
	}
	if len(p.Metadata()) != 0 {
		t.Error("original node gained metadata")
	}
}

type sourceRef struct {
	Line  *int
	Names []string
}

func TestMetadataDeepCopyTypedValues(t *testing.T) {
	line := 3
	orig := WithMetadata(NewParagraph("p"), Metadata{
		"tags":   []int{1, 2},
		"counts": map[string]int{"a": 1},
		"ref":    &sourceRef{Line: &line, Names: []string{"x"}},
		"pair":   [2][]int{{1}, {2}},
	})
	derived := WithMetadataValue(orig, "other", true)

	m := derived.Metadata()
	m["tags"].([]int)[0] = 99
	m["counts"].(map[string]int)["a"] = 42
	*m["ref"].(*sourceRef).Line = 7
	m["ref"].(*sourceRef).Names[0] = "y"
	m["pair"].([2][]int)[0][0] = 5

	om := orig.Metadata()
	if got := om["tags"].([]int)[0]; got != 1 {
		t.Errorf("orig tags[0] = %d, want 1", got)
	}
	if got := om["counts"].(map[string]int)["a"]; got != 1 {
		t.Errorf("orig counts[a] = %d, want 1", got)
	}
	ref := om["ref"].(*sourceRef)
	if *ref.Line != 3 || ref.Names[0] != "x" {
		t.Errorf("orig ref = {%d %v}, want {3 [x]}", *ref.Line, ref.Names)
	}
	if got := om["pair"].([2][]int)[0][0]; got != 1 {
		t.Errorf("orig pair[0][0] = %d, want 1", got)
	}
	if line != 3 {
		t.Error("caller's pointee was modified")
	}
	if derived.Metadata()["tags"].([]int)[0] != 1 {
		t.Error("Metadata() returned shared state")
	}
}

func nestedDocument(t *testing.T) *Document {
	t.Helper()
	tree := NewBlockQuote(
		NewParagraph("quoted"),
		NewList(false,
			NewListItem("outer",
				NewList(true,
					NewListItem("inner", NewParagraph("deepest")),
				),
			),
		),
	)
	return NewDocument(assign(t, NewHeading(1, "Top")), assign(t, tree))
}

func TestFindNodeNested(t *testing.T) {
	doc := nestedDocument(t)
	var total int
	doc.Walk(func(n Node, p Path) bool {
		total++
		found, ok := doc.FindNode(n.ID())
		if !ok {
			t.Errorf("FindNode(%s) at %s: not found", n.ID(), p)
			return true
		}
		if !found.ID().Equal(n.ID()) {
			t.Errorf("FindNode(%s) returned %s", n.ID(), found.ID())
		}
		return true
	})
	if total != 8 {
		t.Errorf("walked %d nodes, want 8", total)
	}

	deepest := mustID(t, NewParagraph("deepest"))
	p, ok := doc.Locate(deepest)
	if !ok {
		t.Fatal("deepest paragraph not indexed")
	}
	if p.String() != "n1.1.0.0.0.0" {
		t.Errorf("Locate() = %s, want n1.1.0.0.0.0", p)
	}
	if len(p) < 4 {
		t.Errorf("path %s is not nested", p)
	}
	if got := len(doc.IDs()); got != 8 {
		t.Errorf("len(IDs()) = %d, want 8", got)
	}
}

func TestDuplicateContentIndexesAllOccurrences(t *testing.T) {
	doc := NewDocument(assign(t, NewParagraph("same")), assign(t, NewParagraph("other")), assign(t, NewParagraph("same")))
	id := mustID(t, NewParagraph("same"))
	paths := doc.FindAll(id)
	if len(paths) != 2 || paths[0].String() != "n0" || paths[1].String() != "n2" {
		t.Errorf("FindAll() = %v, want [n0 n2]", paths)
	}
	if got := len(doc.IDs()); got != 2 {
		t.Errorf("len(IDs()) = %d, want 2", got)
	}
}

func TestDocumentRemove(t *testing.T) {
	doc := nestedDocument(t)
	before := doc.IDs()
	inner := mustID(t, NewListItem("inner", NewParagraph("deepest")))
	p, _ := doc.Locate(inner)

	next, err := doc.Remove(p)
	if err != nil {
		t.Fatalf("Remove(%s) failed: %v", p, err)
	}
	if next.Version() != doc.Version()+1 {
		t.Errorf("Version() = %d, want %d", next.Version(), doc.Version()+1)
	}
	if _, ok := next.FindNode(inner); ok {
		t.Error("removed item still indexed")
	}
	if _, ok := next.FindNode(mustID(t, NewParagraph("deepest"))); ok {
		t.Error("child of removed item still indexed")
	}
	for _, id := range before {
		if id.Equal(inner) || id.Equal(mustID(t, NewParagraph("deepest"))) {
			continue
		}
		if _, ok := next.FindNode(id); !ok {
			t.Errorf("unrelated id %s lost", id)
		}
	}
	if _, err := doc.Remove(Path{7}); err == nil {
		t.Error("Remove out of range succeeded")
	}
}

func TestMapFilterReduce(t *testing.T) {
	doc := nestedDocument(t)

	paragraphs := doc.FindNodes(func(n Node) bool { return n.Type() == nodeid.TypeParagraph })
	if len(paragraphs) != 2 {
		t.Errorf("FindNodes(paragraph) = %d nodes, want 2", len(paragraphs))
	}

	count := Reduce(doc, 0, func(acc int, n Node) int { return acc + 1 })
	if count != 8 {
		t.Errorf("Reduce count = %d, want 8", count)
	}

	upper, err := doc.Map(func(n Node) Node {
		if p, ok := n.(*Paragraph); ok {
			return p.WithText(p.Text() + "!")
		}
		return n
	})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if _, ok := upper.FindNode(mustID(t, NewParagraph("deepest!"))); !ok {
		t.Error("mapped nested paragraph not indexed")
	}
	if _, ok := upper.FindNode(mustID(t, NewParagraph("deepest"))); ok {
		t.Error("stale id survived Map")
	}
	if upper.Version() != 2 {
		t.Errorf("Version() = %d, want 2", upper.Version())
	}

	dropped, err := doc.Map(func(n Node) Node {
		if n.Type() == nodeid.TypeParagraph {
			return nil
		}
		return n
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(dropped.FindNodes(func(n Node) bool { return n.Type() == nodeid.TypeParagraph })); got != 0 {
		t.Errorf("Map(nil) left %d paragraphs", got)
	}

	noQuotes := doc.Filter(func(n Node) bool { return n.Type() != nodeid.TypeBlockQuote })
	if noQuotes.Len() != 1 {
		t.Errorf("Filter Len() = %d, want 1", noQuotes.Len())
	}
	if len(noQuotes.IDs()) != 1 {
		t.Errorf("Filter left %d ids, want 1", len(noQuotes.IDs()))
	}
}

func TestPathHelpers(t *testing.T) {
	p := Path{0, 2, 1}
	if p.String() != "n0.2.1" {
		t.Errorf("String() = %q", p.String())
	}
	if !p.Parent().Equal(Path{0, 2}) {
		t.Errorf("Parent() = %v", p.Parent())
	}
	if p.Last() != 1 {
		t.Errorf("Last() = %d", p.Last())
	}
	if Path([]int{3}).Parent() != nil {
		t.Error("top-level Parent() should be nil")
	}
	if !p.Child(4).Equal(Path{0, 2, 1, 4}) || len(p) != 3 {
		t.Error("Child() aliased its receiver")
	}
}

func TestIdentifierUsesCache(t *testing.T) {
	c := cache.NewIdentityCache(16)
	ids := NewIdentifier(c)

	first, err := ids.FromNode(NewHeading(1, "Cached"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ids.FromNode(NewHeading(5, "Cached"))
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Error("cache returned a different id for the same content")
	}
	if !first.Equal(mustID(t, NewHeading(1, "Cached"))) {
		t.Error("cached id differs from uncached computation")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit 1 miss", stats)
	}

	a, _ := Fingerprint(NewCodeBlock("ab", "c"))
	b, _ := Fingerprint(NewCodeBlock("a", "bc"))
	if a == b {
		t.Error("fingerprint fields are not length-prefixed")
	}
}

func TestRegenerateRecordsModification(t *testing.T) {
	prov := provenance.FromContext(provenance.SessionContext{SessionID: "s1", User: "u"})
	p := WithProvenance(NewParagraph("new text"), prov)
	p = WithID(p, mustID(t, NewParagraph("old text")))

	got, err := NewIdentifier(nil).Regenerate(p, "set-text")
	if err != nil {
		t.Fatal(err)
	}
	if !got.ID().Equal(mustID(t, NewParagraph("new text"))) {
		t.Errorf("Regenerate id = %s", got.ID())
	}
	pv, _ := got.Provenance()
	if pv.Revision != 1 || pv.Modified.Op != "set-text" || pv.Origin != "session:s1" {
		t.Errorf("provenance = %+v", pv)
	}

	touched := Touch(got, "promote")
	tp, _ := touched.Provenance()
	if tp.Revision != 1 || tp.Modified.Op != "promote" {
		t.Errorf("Touch provenance = %+v", tp)
	}
	if !touched.ID().Equal(got.ID()) {
		t.Error("Touch changed id")
	}
}

func TestSpanPreserved(t *testing.T) {
	s := provenance.Span{StartLine: 2, EndLine: 4, EndCol: 3}
	h := WithSpan(assign(t, NewHeading(2, "S")), s).(*Heading)
	got, ok := h.WithLevel(1).Span()
	if !ok || got != s {
		t.Errorf("Span() after WithLevel = %v, %v", got, ok)
	}
}
