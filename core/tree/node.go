package tree

import (
	"fmt"
	"reflect"

	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
)

// Node is one block of a document tree. Nodes are immutable: every update
// returns a new node and never touches the receiver.
type Node interface {
	// Type returns the node-type tag used in identifiers.
	Type() nodeid.Type

	// ID returns the node's identity; the zero ID when none was assigned.
	ID() nodeid.ID

	// HasID reports whether an identity was assigned.
	HasID() bool

	// Provenance returns origin metadata, if attached.
	Provenance() (provenance.Provenance, bool)

	// Span returns the block's source span, if attached.
	Span() (provenance.Span, bool)

	// Metadata returns a deep copy of the node's metadata.
	Metadata() Metadata

	// Children returns a copy of the node's structural children in order:
	// list items, list-item content, block-quote content or heading children.
	Children() []Node

	clone() mutable
}

// mutable is a freshly cloned node that may be adjusted before it escapes.
type mutable interface {
	Node
	core() *base
	setChildren(children []Node) error
}

// base holds the attributes common to every node.
type base struct {
	id   nodeid.ID
	prov *provenance.Provenance
	span *provenance.Span
	meta Metadata
}

func (b *base) ID() nodeid.ID { return b.id }

func (b *base) HasID() bool { return !b.id.IsZero() }

func (b *base) Provenance() (provenance.Provenance, bool) {
	if b.prov == nil {
		return provenance.Provenance{}, false
	}
	return *b.prov, true
}

func (b *base) Span() (provenance.Span, bool) {
	if b.span == nil {
		return provenance.Span{}, false
	}
	return *b.span, true
}

func (b *base) Metadata() Metadata { return b.meta.Clone() }

func (b *base) core() *base { return b }

// copied returns a base that shares nothing mutable with b. Provenance and
// span values are never modified in place, so the pointers may be shared.
func (b base) copied() base {
	b.meta = b.meta.Clone()
	return b
}

// leaf is embedded by node types without structural children.
type leaf struct{}

func (leaf) Children() []Node { return nil }

func (leaf) setChildren(children []Node) error {
	if len(children) > 0 {
		return fmt.Errorf("node does not accept children")
	}
	return nil
}

// WithID returns a copy of n carrying id.
func WithID(n Node, id nodeid.ID) Node {
	c := n.clone()
	c.core().id = id
	return c
}

// WithProvenance returns a copy of n carrying p.
func WithProvenance(n Node, p provenance.Provenance) Node {
	c := n.clone()
	c.core().prov = &p
	return c
}

// WithSpan returns a copy of n located at s.
func WithSpan(n Node, s provenance.Span) Node {
	c := n.clone()
	c.core().span = &s
	return c
}

// WithMetadata returns a copy of n whose metadata is a deep copy of m.
// Metadata is excluded from identity, so the id is preserved.
func WithMetadata(n Node, m Metadata) Node {
	c := n.clone()
	c.core().meta = m.Clone()
	return c
}

// WithMetadataValue returns a copy of n with one metadata key set.
func WithMetadataValue(n Node, key string, value any) Node {
	c := n.clone()
	b := c.core()
	if b.meta == nil {
		b.meta = Metadata{}
	}
	b.meta[key] = cloneValue(value)
	return c
}

// Touch returns a copy of n whose provenance carries a new modification
// marker for op. Nodes without provenance are returned unchanged.
func Touch(n Node, op string) Node {
	p, ok := n.Provenance()
	if !ok {
		return n
	}
	return WithProvenance(n, p.Touch(op))
}

// Restructure returns a copy of n with new structural children. Re-parenting
// is not a content edit, so the id is preserved.
func Restructure(n Node, children ...Node) (Node, error) {
	return withChildren(n, children)
}

// withChildren rebuilds n structurally, preserving its identity.
func withChildren(n Node, children []Node) (Node, error) {
	c := n.clone()
	if err := c.setChildren(children); err != nil {
		return nil, fmt.Errorf("%s: %w", n.Type(), err)
	}
	return c, nil
}

// regenerate recomputes the id of a freshly edited node that had one.
// Canonicalization can only fail for node types unknown to this package, so a
// failure here is a programming error and is not recoverable.
func regenerate(c mutable) {
	if !c.HasID() {
		return
	}
	id, err := computeID(c)
	if err != nil {
		panic(err)
	}
	c.core().id = id
}

// Metadata is free-form, identity-neutral data attached to a node. Values
// must be acyclic; they are deep-copied whenever a node is derived.
type Metadata map[string]any

// Clone deep-copies the metadata, including nested maps, slices, arrays,
// pointers and struct fields.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

// deepCopy returns a copy of v that shares no maps, slices or pointees with
// it. Unexported struct fields are copied shallowly; channels and funcs are
// returned as is.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := range v.NumField() {
			if f := out.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	return append([]Node(nil), nodes...)
}
