// Package diag checks documents for structural problems and reports them as
// diagnostics that tooling layers (CLI, editors) can display.
//
// Checking collects every finding rather than stopping at the first. It is
// cancellable: a cancelled check returns the diagnostics found so far.
package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

// Severity ranks a diagnostic.
type Severity int

// Severities, most severe first.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	for _, v := range []Severity{SeverityError, SeverityWarning, SeverityInfo, SeverityHint} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Diagnostic codes.
const (
	CodeMissingID        = "missing-id"
	CodeDuplicateID      = "duplicate-id"
	CodeStaleID          = "stale-id"
	CodeHeadingLevelSkip = "heading-level-skip"
	CodeEmptyHeading     = "empty-heading"
	CodeEmptyParagraph   = "empty-paragraph"
	CodeEmptyList        = "empty-list"
)

// QuickFix is a structure operation that resolves a diagnostic.
type QuickFix struct {
	Title  string    `json:"title"`
	Op     string    `json:"op"`
	Target nodeid.ID `json:"target"`
	Arg    string    `json:"arg,omitempty"`
}

// Diagnostic is one finding.
type Diagnostic struct {
	Severity     Severity         `json:"severity"`
	Message      string           `json:"message"`
	Span         *provenance.Span `json:"source_span,omitempty"`
	NodeID       nodeid.ID        `json:"node_id"`
	Code         string           `json:"code"`
	QuickFixes   []QuickFix       `json:"quick_fixes,omitempty"`
	ContextLines []string         `json:"context_lines,omitempty"`
}

func (d Diagnostic) String() string {
	loc := "-"
	if d.Span != nil {
		loc = fmt.Sprintf("%d:%d", d.Span.StartLine+1, d.Span.StartCol+1)
	}
	return fmt.Sprintf("%s %s [%s] %s", loc, d.Severity, d.Code, d.Message)
}

// MarshalJSON keeps the zero node id out of the payload.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	type plain Diagnostic
	out := struct {
		plain
		NodeID *nodeid.ID `json:"node_id,omitempty"`
	}{plain: plain(d)}
	if !d.NodeID.IsZero() {
		out.NodeID = &d.NodeID
	}
	return json.Marshal(out)
}

// Checker runs the document checks.
type Checker struct {
	source  []string
	context int

	// visit is called before each node is checked.
	visit func()
}

// Option configures a Checker.
type Option func(*Checker)

// WithSource supplies the text the document was parsed from, enabling
// context lines in diagnostics.
func WithSource(src string) Option {
	return func(c *Checker) { c.source = strings.Split(src, "\n") }
}

// WithContextLines sets how many lines around a span are included.
func WithContextLines(n int) Option {
	return func(c *Checker) { c.context = n }
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{context: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check inspects every node of doc. If ctx is cancelled the diagnostics
// collected so far are returned together with the context's error.
func (c *Checker) Check(ctx context.Context, doc *tree.Document) ([]Diagnostic, error) {
	var (
		out       []Diagnostic
		err       error
		lastLevel int
		seen      = make(map[string]bool)
	)
	doc.Walk(func(n tree.Node, p tree.Path) bool {
		if err != nil {
			return false
		}
		if c.visit != nil {
			c.visit()
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		out = append(out, c.checkIdentity(n, seen)...)
		if h, ok := n.(*tree.Heading); ok {
			out = append(out, c.checkHeading(h, lastLevel)...)
			lastLevel = h.Level()
		}
		out = append(out, c.checkEmpty(n)...)
		return true
	})
	return out, err
}

func (c *Checker) checkIdentity(n tree.Node, seen map[string]bool) []Diagnostic {
	if !n.HasID() {
		return []Diagnostic{c.diagnostic(n, SeverityError, CodeMissingID,
			fmt.Sprintf("%s has no identity", n.Type()))}
	}
	var out []Diagnostic
	key := n.ID().Key()
	if seen[key] {
		out = append(out, c.diagnostic(n, SeverityWarning, CodeDuplicateID,
			fmt.Sprintf("id %s appears more than once; lookups resolve to the first occurrence", n.ID().Short())))
	}
	seen[key] = true

	if form, err := tree.Canonicalize(n); err == nil && !n.ID().Verify(form) {
		out = append(out, c.diagnostic(n, SeverityWarning, CodeStaleID,
			fmt.Sprintf("id %s does not match the node's content", n.ID().Short())))
	}
	return out
}

func (c *Checker) checkHeading(h *tree.Heading, lastLevel int) []Diagnostic {
	if lastLevel == 0 || h.Level() <= lastLevel+1 {
		return nil
	}
	d := c.diagnostic(h, SeverityWarning, CodeHeadingLevelSkip,
		fmt.Sprintf("heading level jumps from %d to %d", lastLevel, h.Level()))
	d.QuickFixes = []QuickFix{{Title: "Promote heading", Op: "promote", Target: h.ID()}}
	return []Diagnostic{d}
}

func (c *Checker) checkEmpty(n tree.Node) []Diagnostic {
	var code, msg string
	sev := SeverityWarning
	switch v := n.(type) {
	case *tree.Heading:
		if strings.TrimSpace(v.Text()) != "" {
			return nil
		}
		code, msg = CodeEmptyHeading, "heading has no text"
	case *tree.Paragraph:
		if strings.TrimSpace(v.Text()) != "" {
			return nil
		}
		code, msg, sev = CodeEmptyParagraph, "paragraph is empty", SeverityInfo
	case *tree.List:
		if len(v.Items()) > 0 {
			return nil
		}
		code, msg = CodeEmptyList, "list has no items"
	default:
		return nil
	}
	d := c.diagnostic(n, sev, code, msg)
	if n.HasID() {
		d.QuickFixes = []QuickFix{{Title: "Delete node", Op: "delete", Target: n.ID()}}
	}
	return []Diagnostic{d}
}

func (c *Checker) diagnostic(n tree.Node, sev Severity, code, msg string) Diagnostic {
	d := Diagnostic{Severity: sev, Message: msg, NodeID: n.ID(), Code: code}
	if s, ok := n.Span(); ok {
		d.Span = &s
		d.ContextLines = c.contextLines(s)
	}
	return d
}

func (c *Checker) contextLines(s provenance.Span) []string {
	if len(c.source) == 0 {
		return nil
	}
	from := max(s.StartLine-c.context, 0)
	to := min(s.EndLine+c.context, len(c.source)-1)
	if from > to {
		return nil
	}
	return append([]string(nil), c.source[from:to+1]...)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
