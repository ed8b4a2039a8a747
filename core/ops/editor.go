// Package ops implements identity-aware structure operations over documents.
//
// Every operation is a pure function from one Document to a new one. Whether
// the target keeps its id depends on the operation:
//
//	promote, demote, move-up, move-down   preserved
//	nest, unnest                          preserved
//	to-ordered, to-unordered              preserved
//	set-metadata                          preserved
//	set-text, set-code, set-language      regenerated
//	delete                                removed from the index
//
// Failures are returned as *errors.NodeNotFoundError or
// *errors.InvalidOperationError naming the operation and the target id.
package ops

import (
	"log/slog"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/tree"
)

// Operation names, as reported in results, errors and provenance markers.
const (
	OpPromote     = "promote"
	OpDemote      = "demote"
	OpMoveUp      = "move-up"
	OpMoveDown    = "move-down"
	OpNest        = "nest"
	OpUnnest      = "unnest"
	OpToOrdered   = "to-ordered"
	OpToUnordered = "to-unordered"
	OpDelete      = "delete"
	OpSetText     = "set-text"
	OpSetCode     = "set-code"
	OpSetLanguage = "set-language"
	OpSetMetadata = "set-metadata"
)

// Renderer serializes nodes back to source text. It is supplied by a format
// writer; without one, results carry no text and no range edits.
type Renderer interface {
	// RenderBlock renders one top-level block without trailing separator.
	RenderBlock(n tree.Node) string
	// Render renders a whole document.
	Render(doc *tree.Document) string
}

// RangeEdit replaces the source text between two positions. Positions use
// the 0-based line and column convention of provenance.Span.
type RangeEdit struct {
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	NewText   string `json:"new_text"`
}

// Result is the outcome of a successful operation.
type Result struct {
	Document *tree.Document
	Op       string
	Target   nodeid.ID
	// NewID is the target's id in Document: equal to Target when identity is
	// preserved, zero after a delete.
	NewID nodeid.ID
	// Edits are minimal source replacements, present only when every
	// affected block carries a source span.
	Edits []RangeEdit
	// Text is the full rendered document.
	Text string
}

// Editor applies structure operations.
type Editor struct {
	ids      *tree.Identifier
	renderer Renderer
	logger   *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithRenderer makes results carry rendered text and range edits.
func WithRenderer(r Renderer) Option {
	return func(e *Editor) { e.renderer = r }
}

// WithLogger sets the logger used for operation tracing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor creates an Editor computing ids through ids.
func NewEditor(ids *tree.Identifier, opts ...Option) *Editor {
	e := &Editor{ids: ids, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// target is a located operation target.
type target struct {
	id   nodeid.ID
	path tree.Path
	node tree.Node
}

func locate(doc *tree.Document, op string, id nodeid.ID) (target, error) {
	p, ok := doc.Locate(id)
	if !ok {
		return target{}, errors.NewNodeNotFound(op, id.String())
	}
	n, _ := doc.NodeAt(p)
	return target{id: id, path: p, node: n}, nil
}

// siblings returns the nodes sharing t's parent, t included.
func siblings(doc *tree.Document, p tree.Path) []tree.Node {
	parent := p.Parent()
	if parent == nil {
		return doc.Nodes()
	}
	n, _ := doc.NodeAt(parent)
	return n.Children()
}

func invalid(op string, id nodeid.ID, reason string) error {
	return errors.NewInvalidOperation(op, id.String(), reason)
}

// blocks describes which top-level blocks an operation touched: [oldFrom,
// oldTo] in the input document became [newFrom, newTo] in the output.
// newTo < newFrom means the blocks were removed.
type blocks struct {
	oldFrom, oldTo int
	newFrom, newTo int
}

func sameBlock(p tree.Path) blocks {
	i := p[0]
	return blocks{i, i, i, i}
}

// finish builds the result and logs it.
func (e *Editor) finish(op string, before, after *tree.Document, t target, newID nodeid.ID, b blocks) *Result {
	r := &Result{
		Document: after,
		Op:       op,
		Target:   t.id,
		NewID:    newID,
	}
	if e.renderer != nil {
		r.Text = e.renderer.Render(after)
		if after != before {
			r.Edits = rangeEdits(e.renderer, before, after, b)
		}
	}
	e.logger.Debug("operation applied",
		"op", op,
		"target", t.id.String(),
		"path", t.path.String(),
		"new_id", newID.String(),
		"version", after.Version(),
	)
	return r
}

// unchanged is the result of a no-op: the same document is returned.
func (e *Editor) unchanged(op string, doc *tree.Document, t target) *Result {
	return e.finish(op, doc, doc, t, t.id, sameBlock(t.path))
}
