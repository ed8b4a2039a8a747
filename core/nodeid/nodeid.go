package nodeid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/outline/core/errors"
)

// Type is the node-type tag that prefixes every identifier.
type Type string

// Node type tags.
const (
	TypeHeading    Type = "heading"
	TypeParagraph  Type = "paragraph"
	TypeCodeBlock  Type = "codeblock"
	TypeList       Type = "list"
	TypeListItem   Type = "listitem"
	TypeBlockQuote Type = "blockquote"
)

var validTypes = map[Type]bool{
	TypeHeading:    true,
	TypeParagraph:  true,
	TypeCodeBlock:  true,
	TypeList:       true,
	TypeListItem:   true,
	TypeBlockQuote: true,
}

// IsValid returns true if the type tag is one of the known node types.
func (t Type) IsValid() bool {
	return validTypes[t]
}

// Hash lengths in hex characters.
const (
	FullHashLen      = 64
	CanonicalHashLen = 16
	ShortHashLen     = 8
	MaxHintLen       = 32
)

// ID is a content-addressable node identifier.
//
// The zero value means "no identity". IDs built by New keep the full SHA-256
// digest; IDs built by Parse only know the 16-character canonical prefix.
// Equality is defined on (type, hint, 16-char prefix), so use Equal or Key
// rather than comparing ID values with ==.
type ID struct {
	typ  Type
	hint string
	hash string
}

// New computes an ID from the node type, the text the hint is derived from,
// and the node's canonical form.
func New(t Type, hintSource, canonical string) ID {
	sum := sha256.Sum256([]byte(canonical))
	return ID{
		typ:  t,
		hint: Hint(t, hintSource),
		hash: hex.EncodeToString(sum[:]),
	}
}

// Type returns the node-type tag.
func (id ID) Type() Type { return id.typ }

// Hint returns the human-readable hint segment.
func (id ID) Hint() string { return id.hint }

// Hash returns the hash as known: 64 hex chars for computed IDs, 16 for parsed ones.
func (id ID) Hash() string { return id.hash }

// FullHash returns the complete SHA-256 digest when it is known.
func (id ID) FullHash() (string, bool) {
	if len(id.hash) == FullHashLen {
		return id.hash, true
	}
	return "", false
}

// IsZero reports whether id carries no identity.
func (id ID) IsZero() bool { return id.typ == "" }

// String returns the canonical textual form type:hint:hash16.
func (id ID) String() string {
	return id.format(CanonicalHashLen)
}

// Short returns the 8-character display form. It is for UI use only and
// cannot be parsed back.
func (id ID) Short() string {
	return id.format(ShortHashLen)
}

func (id ID) format(n int) string {
	if id.IsZero() {
		return ""
	}
	h := id.hash
	if len(h) > n {
		h = h[:n]
	}
	return string(id.typ) + ":" + id.hint + ":" + h
}

// Key returns a comparable key suitable for maps; it is the canonical string.
func (id ID) Key() string { return id.String() }

// Equal compares type, hint and the 16-character hash prefix.
func (id ID) Equal(other ID) bool {
	return id.String() == other.String()
}

// Verify recomputes the hash of canonical and reports whether it matches.
// When only the prefix is known, only the prefix is compared.
func (id ID) Verify(canonical string) bool {
	if id.IsZero() {
		return false
	}
	sum := sha256.Sum256([]byte(canonical))
	got := hex.EncodeToString(sum[:])
	return strings.HasPrefix(got, id.hash)
}

// MarshalText encodes the canonical form; the zero ID encodes as "".
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical form strictly. An empty input yields the zero ID.
func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ID{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse parses the canonical form type:hint:hash16.
//
// The hash is isolated from the right first, then the type from the left, so
// the hint may itself contain ':'. Only 16 lowercase hex characters are
// accepted as hash: the 8-character display form is rejected.
func Parse(s string) (ID, error) {
	last := strings.LastIndexByte(s, ':')
	if last < 0 {
		return ID{}, errors.NewMalformedIdentifier(s, "expected type:hint:hash")
	}
	head, hash := s[:last], s[last+1:]
	first := strings.IndexByte(head, ':')
	if first < 0 {
		return ID{}, errors.NewMalformedIdentifier(s, "expected type:hint:hash")
	}
	typ, hint := Type(head[:first]), head[first+1:]

	if !typ.IsValid() {
		return ID{}, errors.NewMalformedIdentifier(s, "unknown node type "+strconv.Quote(string(typ)))
	}
	if hint == "" {
		return ID{}, errors.NewMalformedIdentifier(s, "empty hint")
	}
	if strings.IndexFunc(hint, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return ID{}, errors.NewMalformedIdentifier(s, "hint contains whitespace or control characters")
	}
	if len(hash) != CanonicalHashLen {
		return ID{}, errors.NewMalformedIdentifier(s, "hash segment must be 16 hex characters")
	}
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return ID{}, errors.NewMalformedIdentifier(s, "hash segment must be lowercase hex")
		}
	}
	return ID{typ: typ, hint: hint, hash: hash}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Hint derives the human-readable hint from text: compatibility-decompose,
// drop combining marks, lowercase, collapse non-alphanumeric runs to '-' and
// truncate to MaxHintLen runes. Empty results fall back to the type name.
func Hint(t Type, text string) string {
	var b strings.Builder
	sep := false
	for _, r := range norm.NFKD.String(text) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			sep = true
		}
	}

	hint := []rune(b.String())
	if len(hint) > MaxHintLen {
		hint = hint[:MaxHintLen]
	}
	out := strings.Trim(string(hint), "-")
	if out == "" {
		return string(t)
	}
	return out
}
