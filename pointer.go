package jsonpatch

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/agentflare-ai/go-jsonpatch/internal/pointer"
)

// GetValueByPointer resolves a raw RFC 6901 pointer string against document
// and returns the addressed value, without going through the Apply/Result
// machinery. It is the external entry point spec §6 lists alongside Apply
// and Compare for callers that just want a read.
func GetValueByPointer(document any, ptr string) (any, error) {
	p, err := pointer.Parse(ptr)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: get value by pointer")
	}
	v, err := pointer.Get(document, p)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: get value by pointer")
	}
	return v, nil
}

// GetPath walks root looking for a node identical to target and returns the
// RFC 6901 pointer string addressing it, or an error if no such node is
// found. Identity here means "the exact map/slice/scalar value reached
// during the walk equals target via areEquals" — the first matching path in
// depth-first, key-sorted order wins when several nodes are structurally
// equal. Per spec §6, the root itself is reported as "/" rather than the
// RFC 6901-literal empty string, matching the reference library's
// getPath(root, root) convention.
func GetPath(root, target any) (string, error) {
	p, ok := findPath(root, target, pointer.Pointer{})
	if !ok {
		return "", errors.New("jsonpatch: get path: no node in document equals the target value")
	}
	if len(p) == 0 {
		return "/", nil
	}
	return p.String(), nil
}

func findPath(node, target any, path pointer.Pointer) (pointer.Pointer, bool) {
	if areEquals(node, target) {
		return path, true
	}
	switch t := node.(type) {
	case map[string]any:
		for _, key := range containerKeys(t) {
			if p, ok := findPath(t[key], target, withToken(path, key)); ok {
				return p, true
			}
		}
	case []any:
		for i, child := range t {
			if p, ok := findPath(child, target, withToken(path, strconv.Itoa(i))); ok {
				return p, true
			}
		}
	}
	return nil, false
}

// EscapePathComponent escapes a single raw reference token for use inside an
// RFC 6901 pointer string.
func EscapePathComponent(token string) string {
	return pointer.EscapeToken(token)
}

// UnescapePathComponent reverses EscapePathComponent.
func UnescapePathComponent(token string) string {
	return pointer.UnescapeToken(token)
}
