package jsonpatch

import (
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/agentflare-ai/go-jsonpatch/internal/pointer"
)

// Canonicalizer lets a value normalize itself before being diffed, mirroring
// the reference library's optional toJSON() hook (spec §4.6, §9). Types in
// this module never implement it themselves; it exists for callers whose
// values (e.g. a wrapper around a database row) have a canonical JSON
// projection that differs from their Go zero-value shape.
type Canonicalizer interface {
	Canonicalize() any
}

type collector struct {
	invertible bool
	patch      Patch
}

func (c *collector) test(path pointer.Pointer, value any) {
	c.patch = append(c.patch, Operation{Op: Test, Path: path.String(), Value: mustClone(value)})
}

func (c *collector) add(path pointer.Pointer, value any) {
	c.patch = append(c.patch, Operation{Op: Add, Path: path.String(), Value: value})
}

func (c *collector) remove(path pointer.Pointer) {
	c.patch = append(c.patch, Operation{Op: Remove, Path: path.String()})
}

func (c *collector) replace(path pointer.Pointer, value any) {
	c.patch = append(c.patch, Operation{Op: Replace, Path: path.String(), Value: mustClone(value)})
}

// withToken returns path with token appended, without aliasing path's
// backing array across sibling calls in the same loop.
func withToken(path pointer.Pointer, token string) pointer.Pointer {
	out := make(pointer.Pointer, len(path)+1)
	copy(out, path)
	out[len(path)] = token
	return out
}

// Compare synthesizes a JSON Patch that transforms a into a value structurally
// equal to b (spec §4.6). When invertible is true, each mutating operation is
// preceded by a test of the value it is about to touch, so the resulting
// patch both verifies the source state and can be manually inverted.
func Compare(a, b any, invertible bool) Patch {
	c := &collector{invertible: invertible, patch: Patch{}}
	diffValue(a, b, pointer.Pointer{}, c)
	return c.patch
}

// New is Compare's forgiving entry point: a and b need not already be
// map[string]any/[]any/scalar — each is normalized to that shape first, so
// callers may pass raw JSON bytes (a []byte or json.RawMessage holding an
// encoded document), a Go struct with json tags, or an already-decoded
// value interchangeably. It returns an error only if normalization fails
// (e.g. a isn't valid JSON), never as a result of the comparison itself.
func New(a, b any) (Patch, error) {
	na, err := normalizeForDiff(a)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: new: normalize a")
	}
	nb, err := normalizeForDiff(b)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: new: normalize b")
	}
	return Compare(na, nb, false), nil
}

// normalizeForDiff reduces v to the map[string]any/[]any/scalar shape that
// diffValue and compareContainer expect, round-tripping through the JSON
// codec. Raw JSON text ([]byte or json.RawMessage) is unmarshaled directly
// rather than marshaled first, since marshaling a []byte re-encodes it as a
// base64 string instead of treating it as already-encoded JSON.
func normalizeForDiff(v any) (any, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "unmarshal raw json")
		}
		return out, nil
	case []byte:
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "unmarshal json bytes")
		}
		return out, nil
	default:
		return DeepClone(v)
	}
}

// diffValue handles one (oldVal, newVal) pair addressed at path. It performs
// the identity short-circuit and the container-vs-scalar shape check, then
// either recurses into compareContainer or emits a replace.
func diffValue(oldVal, newVal any, path pointer.Pointer, c *collector) {
	if sameValue(oldVal, newVal) {
		return
	}
	if canon, ok := newVal.(Canonicalizer); ok {
		newVal = canon.Canonicalize()
	}

	oldKind, oldIsContainer := containerKind(oldVal)
	newKind, newIsContainer := containerKind(newVal)

	if oldIsContainer && newIsContainer && oldKind == newKind {
		compareContainer(oldVal, newVal, path, c)
		return
	}

	if areEquals(oldVal, newVal) {
		return
	}
	if c.invertible {
		c.test(path, oldVal)
	}
	c.replace(path, newVal)
}

// compareContainer implements the Pass 1 / Pass 2 keyset walk of spec §4.6
// for a pair of containers already known to be the same kind (both objects
// or both arrays).
func compareContainer(oldVal, newVal any, path pointer.Pointer, c *collector) {
	_, isArray := newVal.([]any)
	oldKeys := containerKeys(oldVal)
	deletedAny := false

	// Pass 1: iterate old keys in reverse. For arrays this keeps earlier
	// indices valid as later (higher-index) elements are removed first; do
	// not "clean up" into forward iteration.
	for i := len(oldKeys) - 1; i >= 0; i-- {
		key := oldKeys[i]
		oldChild, _ := lookupKey(oldVal, key)
		newChild, existsInNew := lookupKey(newVal, key)

		// An absent-valued element only suppresses emission for objects
		// (spec §4.6): a missing object key and a key whose value is the
		// absent sentinel are treated the same way, as "not here". Arrays
		// have no such optionality — every index in range holds a real
		// element — so an array element being (or containing) Absent never
		// falls through to the remove branch below. A container value that
		// merely contains Absent further down is diffed like any other.
		_, newIsAbsent := newChild.(absentSentinel)
		if existsInNew && (isArray || !newIsAbsent) {
			diffValue(oldChild, newChild, withToken(path, key), c)
			continue
		}

		deletedAny = true
		if c.invertible {
			c.test(withToken(path, key), oldChild)
		}
		c.remove(withToken(path, key))
	}

	// Pass 2: only when something was deleted, or the key counts differ,
	// walk new keys in order and add whatever the old side never had.
	newKeys := containerKeys(newVal)
	if !deletedAny && len(newKeys) == len(oldKeys) {
		return
	}
	for _, key := range newKeys {
		if _, existsInOld := lookupKey(oldVal, key); existsInOld {
			continue
		}
		newChild, _ := lookupKey(newVal, key)
		if _, newIsAbsent := newChild.(absentSentinel); !isArray && newIsAbsent {
			continue
		}
		c.add(withToken(path, key), mustClone(newChild))
	}
}

// containerKind reports whether v is an object or array, per spec's
// data model, and a discriminator ("object"/"array") for the same-kind
// comparison in diffValue.
func containerKind(v any) (kind string, ok bool) {
	switch v.(type) {
	case map[string]any:
		return "object", true
	case []any:
		return "array", true
	default:
		return "", false
	}
}

// containerKeys returns a container's keys in canonical order: for objects,
// sorted lexicographically (Go maps have no insertion order to preserve, so
// this module adopts the alternative spec §9 sanctions: a canonical order
// applied consistently to both sides of a diff); for arrays, "0".."len-1".
func containerKeys(v any) []string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case []any:
		keys := make([]string, len(t))
		for i := range t {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	default:
		return nil
	}
}

func lookupKey(v any, key string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		val, ok := t[key]
		return val, ok
	case []any:
		idx, ok := pointer.ParseIndex(key)
		if !ok || idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	default:
		return nil, false
	}
}
