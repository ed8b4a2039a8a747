// Package bridge shapes documents, operation results and lookups into JSON
// payloads for external protocols such as editor tree views.
//
// Every node payload carries its stable id. During migration from positional
// identifiers a legacy id ("n0.2.1") can be included alongside it.
package bridge

import (
	"encoding/json"
	"io"
	"time"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/ops"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/resolve"
	"github.com/FocuswithJustin/outline/core/tree"
)

// now is injectable for testing.
var now = time.Now

// Response is the envelope around every payload.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains response metadata.
type Meta struct {
	Version   uint64 `json:"document_version,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Error codes.
const (
	CodeNotFound         = "not_found"
	CodeInvalidOperation = "invalid_operation"
	CodeMalformedID      = "malformed_id"
	CodeUnsupported      = "unsupported"
	CodeInvalidInput     = "invalid_input"
	CodeIO               = "io_error"
	CodeSuperseded       = "superseded"
	CodeInternal         = "internal"
)

func meta(version uint64) *Meta {
	return &Meta{Version: version, Timestamp: now().UTC().Format(time.RFC3339)}
}

// OK wraps data produced from a document at version.
func OK(data any, version uint64) Response {
	return Response{Success: true, Data: data, Meta: meta(version)}
}

// Fail wraps err, classifying it by the error taxonomy.
func Fail(err error) Response {
	return Response{Error: &Error{Code: ErrorCode(err), Message: err.Error()}, Meta: meta(0)}
}

// ErrorCode maps err to a payload error code.
func ErrorCode(err error) string {
	var (
		notFound  *errors.NodeNotFoundError
		invalidOp *errors.InvalidOperationError
		malformed *errors.MalformedIdentifierError
		canon     *errors.CanonicalizationError
		ioErr     *errors.IOError
	)
	switch {
	case errors.As(err, &notFound):
		return CodeNotFound
	case errors.As(err, &invalidOp):
		return CodeInvalidOperation
	case errors.As(err, &malformed):
		return CodeMalformedID
	case errors.As(err, &canon):
		return CodeUnsupported
	case errors.As(err, &ioErr):
		return CodeIO
	case errors.Is(err, errors.ErrSuperseded):
		return CodeSuperseded
	case errors.Is(err, errors.ErrInvalidInput):
		return CodeInvalidInput
	}
	return CodeInternal
}

// Encode writes resp as indented JSON.
func Encode(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Node is the payload for one tree node.
type Node struct {
	ID       nodeid.ID        `json:"id"`
	Short    string           `json:"short"`
	LegacyID string           `json:"legacy_id,omitempty"`
	Type     nodeid.Type      `json:"type"`
	Text     string           `json:"text,omitempty"`
	Level    int              `json:"level,omitempty"`
	Ordered  bool             `json:"ordered,omitempty"`
	Language string           `json:"language,omitempty"`
	Span     *provenance.Span `json:"source_span,omitempty"`
	Children []Node           `json:"children,omitempty"`
}

// Outline converts doc to node payloads. With legacy set every node also
// carries its positional id.
func Outline(doc *tree.Document, legacy bool) []Node {
	out := make([]Node, 0, doc.Len())
	for i, n := range doc.Nodes() {
		out = append(out, nodePayload(n, tree.Path{i}, legacy))
	}
	return out
}

func nodePayload(n tree.Node, p tree.Path, legacy bool) Node {
	out := Node{
		ID:    n.ID(),
		Short: n.ID().Short(),
		Type:  n.Type(),
	}
	if legacy {
		out.LegacyID = p.String()
	}
	switch v := n.(type) {
	case *tree.Heading:
		out.Text, out.Level = v.Text(), v.Level()
	case *tree.Paragraph:
		out.Text = v.Text()
	case *tree.CodeBlock:
		out.Text, out.Language = v.Code(), v.Language()
	case *tree.List:
		out.Ordered = v.Ordered()
	case *tree.ListItem:
		out.Text = v.Text()
	}
	if s, ok := n.Span(); ok {
		out.Span = &s
	}
	for i, ch := range n.Children() {
		out.Children = append(out.Children, nodePayload(ch, p.Child(i), legacy))
	}
	return out
}

// Edit is the payload for an operation result.
type Edit struct {
	Op     string          `json:"op"`
	Target nodeid.ID       `json:"target"`
	NewID  *nodeid.ID      `json:"new_id,omitempty"`
	Edits  []ops.RangeEdit `json:"edits,omitempty"`
	Text   string          `json:"text,omitempty"`
}

// FromResult converts an operation result. A deleted target has no new id.
func FromResult(r *ops.Result) Edit {
	e := Edit{Op: r.Op, Target: r.Target, Edits: r.Edits, Text: r.Text}
	if !r.NewID.IsZero() {
		id := r.NewID
		e.NewID = &id
	}
	return e
}

// Lookup is the payload for a resolved reference.
type Lookup struct {
	Node   Node `json:"node"`
	Legacy bool `json:"resolved_by_position,omitempty"`
}

// FromResolution converts a lookup result.
func FromResolution(r *resolve.Resolution) Lookup {
	return Lookup{Node: nodePayload(r.Node, r.Path, true), Legacy: r.Legacy}
}
