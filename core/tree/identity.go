package tree

import (
	"fmt"

	"github.com/FocuswithJustin/outline/core/cache"
	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
)

// Identifier assigns content-addressable ids to nodes.
//
// It memoizes through an injected IdentityCache so callers decide the cache's
// scope (per process, per session, per test). A nil cache disables memoization.
type Identifier struct {
	cache *cache.IdentityCache
}

// NewIdentifier creates an Identifier backed by c.
func NewIdentifier(c *cache.IdentityCache) *Identifier {
	return &Identifier{cache: c}
}

// Cache returns the backing cache, possibly nil.
func (i *Identifier) Cache() *cache.IdentityCache {
	if i == nil {
		return nil
	}
	return i.cache
}

// FromNode computes n's id from its canonical form, consulting the cache first.
func (i *Identifier) FromNode(n Node) (nodeid.ID, error) {
	if i == nil || i.cache == nil {
		return computeID(n)
	}
	fp, err := Fingerprint(n)
	if err != nil {
		return nodeid.ID{}, err
	}
	return i.cache.GetOrCompute(fp, func() (nodeid.ID, error) {
		return computeID(n)
	})
}

// Assign returns n with ids attached to it and every descendant that lacks
// one. Existing ids are kept. When prov is non-nil it is attached to every
// node that has no provenance yet.
func (i *Identifier) Assign(n Node, prov *provenance.Provenance) (Node, error) {
	children := n.Children()
	changed := false
	for idx, ch := range children {
		assigned, err := i.Assign(ch, prov)
		if err != nil {
			return nil, err
		}
		if assigned != ch {
			children[idx] = assigned
			changed = true
		}
	}

	_, hasProv := n.Provenance()
	if !changed && n.HasID() && (prov == nil || hasProv) {
		return n, nil
	}

	c := n.clone()
	if changed {
		if err := c.setChildren(children); err != nil {
			return nil, fmt.Errorf("assign %s: %w", n.Type(), err)
		}
	}
	if !c.HasID() {
		id, err := i.FromNode(c)
		if err != nil {
			return nil, err
		}
		c.core().id = id
	}
	if prov != nil && !hasProv {
		p := *prov
		c.core().prov = &p
	}
	return c, nil
}

// AssignAll assigns ids to a sequence of top-level nodes.
func (i *Identifier) AssignAll(nodes []Node, prov *provenance.Provenance) ([]Node, error) {
	out := make([]Node, len(nodes))
	for idx, n := range nodes {
		assigned, err := i.Assign(n, prov)
		if err != nil {
			return nil, err
		}
		out[idx] = assigned
	}
	return out, nil
}

// Regenerate returns a copy of n with a freshly computed id, and its
// provenance, if any, recording op as a content modification.
func (i *Identifier) Regenerate(n Node, op string) (Node, error) {
	id, err := i.FromNode(n)
	if err != nil {
		return nil, err
	}
	c := n.clone()
	c.core().id = id
	if p, ok := n.Provenance(); ok {
		p = p.WithModification(op)
		c.core().prov = &p
	}
	return c, nil
}

// Fingerprint computes the cheap cache key over n's significant fields.
// Like Canonicalize it excludes heading level and list ordering.
func Fingerprint(n Node) (cache.Fingerprint, error) {
	switch v := n.(type) {
	case *Heading:
		return cache.NewFingerprintBuilder(v.Type()).String(v.text).Sum(), nil
	case *Paragraph:
		return cache.NewFingerprintBuilder(v.Type()).String(v.text).Sum(), nil
	case *CodeBlock:
		return cache.NewFingerprintBuilder(v.Type()).String(v.language).String(v.code).Sum(), nil
	case *List, *ListItem, *BlockQuote:
		b := cache.NewFingerprintBuilder(n.Type())
		if it, ok := v.(*ListItem); ok {
			b.String(it.text)
		}
		for _, ch := range n.Children() {
			fp, err := Fingerprint(ch)
			if err != nil {
				return cache.Fingerprint{}, err
			}
			b.Child(fp)
		}
		return b.Sum(), nil
	case nil:
		return cache.Fingerprint{}, &errors.CanonicalizationError{NodeType: "<nil>", Reason: "nil node"}
	}
	return cache.Fingerprint{}, errors.NewUnsupportedNodeType(fmt.Sprintf("%T", n))
}
