// Package pointer implements RFC 6901 JSON Pointer parsing, escaping and
// traversal over Go's native JSON representation (map[string]any, []any and
// scalar types as produced by encoding/json-style decoding).
//
// It does not know about JSON Patch operations; apply.go builds on top of
// the primitives here to implement add/remove/replace/move/copy/test.
package pointer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pointer is a parsed, unescaped JSON Pointer: a sequence of reference
// tokens. An empty Pointer addresses the document root.
type Pointer []string

// Parse splits the string representation of a JSON Pointer into its
// unescaped tokens. The empty string parses to the root (zero tokens); any
// other valid pointer must begin with '/'. Unescaping (~1 -> '/', then
// ~0 -> '~') is applied token-wise, after splitting, never before.
func Parse(raw string) (Pointer, error) {
	if raw == "" {
		return Pointer{}, nil
	}
	if raw[0] != '/' {
		return nil, errors.Errorf("json pointer %q must be empty or start with '/'", raw)
	}
	parts := strings.Split(raw, "/")[1:]
	tokens := make(Pointer, len(parts))
	for i, p := range parts {
		tokens[i] = UnescapeToken(p)
	}
	return tokens, nil
}

// String renders the Pointer back to its RFC 6901 string form, escaping
// each token.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p {
		b.WriteByte('/')
		b.WriteString(EscapeToken(t))
	}
	return b.String()
}

// Parent returns the pointer with its last token dropped.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final reference token, and whether the pointer is
// non-empty.
func (p Pointer) Last() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[len(p)-1], true
}

// EscapeToken escapes a single raw token for inclusion in a pointer string.
// Order matters: '~' must be escaped before '/'.
func EscapeToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

// UnescapeToken reverses EscapeToken. Order matters: '~1' is decoded before
// '~0' in two separate passes (decoding '~0' first would turn "~01" into "/"
// instead of "~1").
func UnescapeToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	s = strings.ReplaceAll(s, "~0", "~")
	return s
}

// IsAppendToken reports whether a token is the array "append" marker.
func IsAppendToken(token string) bool {
	return token == "-"
}

// ParseIndex parses an array index token leniently: digits only, no sign,
// leading zeros accepted (resolution-time behaviour per RFC 6901 §4; callers
// that must enforce the stricter add-time grammar should use
// IsStrictIndex as well).
func ParseIndex(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsStrictIndex reports whether token is a valid RFC 6902 array index for
// mutating operations: either "0" or a non-zero digit followed by digits,
// with no leading zeros and no sign.
func IsStrictIndex(token string) bool {
	if token == "" {
		return false
	}
	if token == "0" {
		return true
	}
	if token[0] < '1' || token[0] > '9' {
		return false
	}
	for _, r := range token[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NotFoundError indicates that a pointer could not be resolved against a
// document.
type NotFoundError struct {
	Path  string
	Token string
}

func (e *NotFoundError) Error() string {
	if e.Token != "" {
		return "json pointer: token " + strconv.Quote(e.Token) + " not found in " + strconv.Quote(e.Path)
	}
	return "json pointer: path " + strconv.Quote(e.Path) + " not found"
}

// TypeError indicates a pointer walked into a scalar (or nil) with tokens
// still remaining.
type TypeError struct {
	Path string
}

func (e *TypeError) Error() string {
	return "json pointer: " + strconv.Quote(e.Path) + " does not address a container (object or array)"
}

// IndexError indicates an array token was not a valid, in-bounds index.
type IndexError struct {
	Path  string
	Token string
}

func (e *IndexError) Error() string {
	return "json pointer: " + strconv.Quote(e.Token) + " is not a valid index into " + strconv.Quote(e.Path)
}

// Get resolves a pointer against a document, returning the addressed value.
// The root (empty pointer) resolves to the document itself.
func Get(document any, p Pointer) (any, error) {
	cur := document
	for i, token := range p {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[token]
			if !ok {
				return nil, &NotFoundError{Path: Pointer(p[:i+1]).String(), Token: token}
			}
			cur = v
		case []any:
			idx, ok := ParseIndex(token)
			if !ok || idx < 0 || idx >= len(node) {
				return nil, &IndexError{Path: Pointer(p[:i+1]).String(), Token: token}
			}
			cur = node[idx]
		default:
			return nil, &TypeError{Path: Pointer(p[:i]).String()}
		}
	}
	return cur, nil
}

// Resolve walks every token except the last, returning the parent container
// the final token addresses into, plus that final token. It is the shared
// entry point for add/remove/replace dispatch in apply.go (and, through
// those, for move/copy); test reads with Get.
func Resolve(document any, p Pointer) (parent any, lastToken string, err error) {
	if len(p) == 0 {
		return nil, "", errors.New("json pointer: root has no parent")
	}
	parent, err = Get(document, p.Parent())
	if err != nil {
		return nil, "", err
	}
	last, _ := p.Last()
	return parent, last, nil
}

// Set writes value at the position p addresses into document, returning the
// (possibly replaced) document root. Unlike Resolve, Set is only ever used
// to write back a container that has already been rebuilt at its own
// address (e.g. a resized array) into its parent slot; the parent's own
// container never needs to be resized as a result, since Set only ever
// replaces a single map value or a single array element.
func Set(document any, p Pointer, value any) (any, error) {
	if len(p) == 0 {
		return value, nil
	}
	parent, err := Get(document, p.Parent())
	if err != nil {
		return nil, err
	}
	token, _ := p.Last()
	switch t := parent.(type) {
	case map[string]any:
		t[token] = value
		return document, nil
	case []any:
		idx, ok := ParseIndex(token)
		if !ok || idx < 0 || idx >= len(t) {
			return nil, &IndexError{Path: p.String(), Token: token}
		}
		t[idx] = value
		return document, nil
	default:
		return nil, &TypeError{Path: p.Parent().String()}
	}
}

// ExistingPrefix returns the longest prefix of p that resolves against
// document, as a Pointer. Used by the validator to compute
// existingPathFragment without erroring on a wholly-unresolvable path.
func ExistingPrefix(document any, p Pointer) Pointer {
	cur := document
	for i, token := range p {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[token]
			if !ok {
				return p[:i]
			}
			cur = v
		case []any:
			idx, ok := ParseIndex(token)
			if !ok || idx < 0 || idx >= len(node) {
				return p[:i]
			}
			cur = node[idx]
		default:
			return p[:i]
		}
	}
	return p
}
