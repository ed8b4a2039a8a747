// Package provenance records where nodes come from and where they sit in
// source text.
package provenance

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// now is injectable for testing.
var now = time.Now

// Kind distinguishes file-backed from interactive origins.
type Kind string

// Origin kinds.
const (
	KindFile    Kind = "file"
	KindSession Kind = "session"
)

// Context is the explicit, caller-supplied description of a parse origin.
// Provenance is never inferred implicitly.
type Context interface {
	provenance() Provenance
}

// FileContext describes a document read from disk. Commit and Author are
// optional version-control metadata.
type FileContext struct {
	Path   string
	Commit string
	Author string
}

func (c FileContext) provenance() Provenance {
	author := strings.TrimSpace(c.Author)
	if author == "" {
		author = "unknown"
	}
	return Provenance{
		Origin:  c.Path,
		Kind:    KindFile,
		Version: c.Commit,
		Author:  author,
	}
}

// SessionContext describes an interactive editing session. An empty SessionID
// gets a random one; an empty User becomes "session".
type SessionContext struct {
	SessionID string
	User      string
}

func (c SessionContext) provenance() Provenance {
	id := c.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = "session"
	}
	return Provenance{
		Origin: "session:" + id,
		Kind:   KindSession,
		Author: user,
	}
}

// Marker records when and by which operation a node was last touched.
type Marker struct {
	At time.Time `json:"at"`
	Op string    `json:"op,omitempty"`
}

// Provenance is an immutable record of a node's origin and edit history.
type Provenance struct {
	Origin   string `json:"origin"`
	Kind     Kind   `json:"kind"`
	Version  string `json:"version,omitempty"`
	Author   string `json:"author"`
	Created  Marker `json:"created"`
	Modified Marker `json:"modified"`
	// Revision counts content edits that regenerated the node's identity.
	Revision int `json:"revision"`
}

// FromContext builds the provenance for nodes created under ctx.
func FromContext(ctx Context) Provenance {
	p := ctx.provenance()
	t := now()
	p.Created = Marker{At: t, Op: "parse"}
	p.Modified = p.Created
	return p
}

// Touch returns a copy with an updated modification marker. Used by
// operations that preserve identity.
func (p Provenance) Touch(op string) Provenance {
	p.Modified = Marker{At: now(), Op: op}
	return p
}

// WithModification records a content edit: the modification marker moves and
// the revision counter increases. Origin, author and creation are preserved.
func (p Provenance) WithModification(op string) Provenance {
	p = p.Touch(op)
	p.Revision++
	return p
}
