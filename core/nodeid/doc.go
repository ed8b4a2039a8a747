// Package nodeid implements content-addressable node identifiers.
//
// # ID Format
//
// The canonical textual form is {type}:{hint}:{hash16}, for example
//
//	heading:getting-started:3f2a9c1b7d4e5f60
//
// The hash is the SHA-256 of the node's canonical form (see package tree).
// Presentation-only attributes such as heading level and list ordering are
// excluded from that form, so promoting a heading or toggling a list keeps
// its identifier.
//
// The 8-character display form returned by Short is for UI use only. Parse
// accepts exactly 16 hex characters and rejects everything else.
package nodeid
