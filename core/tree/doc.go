// Package tree provides the immutable document model: typed block nodes,
// their canonical forms and identities, and Documents indexing every node
// of a tree by id.
//
// Nodes are never mutated in place. Constructors and With-methods return
// fresh values; editing a significant field regenerates the node's id while
// presentation changes (heading level, list ordering) and structural changes
// preserve it.
package tree
