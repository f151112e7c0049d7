package jsonpatch

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/agentflare-ai/go-jsonpatch/internal/pointer"
)

// ApplyOptions controls how ApplyOperation and ApplyPatch behave; it is the
// Go rendering of spec's validate/mutate/banProto keyword arguments.
type ApplyOptions struct {
	// Validate runs the static + document-aware checks from Validate before
	// performing the operation, returning a *JsonPatchError instead of a
	// raw traversal error on failure.
	Validate bool
	// Mutate, when false, deep-clones the document once before the first
	// operation and mutates the clone instead of the caller's tree.
	Mutate bool
	// BanProto rejects paths that would create '__proto__' or reach
	// 'prototype' beneath 'constructor'.
	BanProto bool
}

// DefaultApplyOptions matches the teacher's original Apply/ApplyInPlace
// split: validation off, prototype guard on, and mutate on (Apply clones the
// document itself before handing it to ApplyInPlace).
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{Validate: false, Mutate: true, BanProto: true}
}

// PatchResult is the outcome of applying a full Patch: the final document
// and the per-operation Results in order.
type PatchResult struct {
	Document any
	Results  []Result
}

// Apply applies patch to a deep clone of document, leaving document
// unmodified, and returns the resulting document.
func Apply(document any, patch Patch) (any, error) {
	cloned, err := DeepClone(document)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: apply")
	}
	return ApplyInPlace(cloned, patch)
}

// ApplyInPlace applies patch to document, mutating it, and returns the
// (possibly root-replaced) resulting document.
func ApplyInPlace(document any, patch Patch) (any, error) {
	opts := DefaultApplyOptions()
	result, err := ApplyPatch(document, patch, opts)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}

// ApplyPatch threads document through every operation in patch in order,
// per spec §4.5/§5: the root used by operation i+1 is operation i's
// returned Result.Document. When opts.Mutate is false the document is
// deep-cloned once up front and every subsequent operation mutates that
// clone.
func ApplyPatch(document any, patch Patch, opts ApplyOptions) (*PatchResult, error) {
	doc := document
	if !opts.Mutate {
		cloned, err := DeepClone(document)
		if err != nil {
			return nil, errors.Wrap(err, "jsonpatch: apply patch")
		}
		doc = cloned
	}

	results := make([]Result, 0, len(patch))
	for i, op := range patch {
		res, err := applyOperation(doc, op, i, opts, true /* already cloned/mutating */)
		if err != nil {
			return nil, errors.Wrapf(err, "jsonpatch: operation %d (%s %s)", i, op.Op, op.Path)
		}
		doc = res.Document
		results = append(results, res)
	}
	return &PatchResult{Document: doc, Results: results}, nil
}

// ApplyOperation applies a single operation to document per spec §6. It
// honors opts.Mutate independently of ApplyPatch: with Mutate=false it
// clones document before touching it, exactly like ApplyPatch does once for
// a whole sequence.
func ApplyOperation(document any, op Operation, index int, opts ApplyOptions) (Result, error) {
	doc := document
	if !opts.Mutate {
		cloned, err := DeepClone(document)
		if err != nil {
			return Result{}, errors.Wrap(err, "jsonpatch: apply operation")
		}
		doc = cloned
	}
	return applyOperation(doc, op, index, opts, true)
}

// ApplyReducer is sugar for ApplyOperation that returns only the resulting
// document, and turns a failed test into an error rather than a Result with
// TestResult=false.
func ApplyReducer(document any, op Operation, index int) (any, error) {
	res, err := ApplyOperation(document, op, index, ApplyOptions{Mutate: true, BanProto: true})
	if err != nil {
		return nil, err
	}
	if op.Op == Test && res.HasTest && !res.TestResult {
		return nil, newPatchError(TestOperationFailed, index, &op, document, "test operation did not pass")
	}
	return res.Document, nil
}

// applyOperation is the shared dispatch core; alreadyPositioned is always
// true from the exported wrappers above (it exists purely so this function
// reads as "operate on doc in place", since cloning has already happened by
// the time we get here).
func applyOperation(doc any, op Operation, index int, opts ApplyOptions, alreadyPositioned bool) (Result, error) {
	_ = alreadyPositioned

	if opts.Validate {
		existing := pointer.Pointer{}
		if p, err := pointer.Parse(op.Path); err == nil {
			existing = pointer.ExistingPrefix(doc, p)
		}
		if verr := validateOne(op, index, doc, existing); verr != nil {
			return Result{}, verr
		}
	}

	if opts.BanProto {
		if err := checkPrototypeGuard(op.Path); err != nil {
			return Result{}, err
		}
		if op.Op == Move || op.Op == Copy {
			if err := checkPrototypeGuard(op.From); err != nil {
				return Result{}, err
			}
		}
	}

	if op.Path == "" {
		return applyRootOperation(doc, op, index)
	}

	p, err := pointer.Parse(op.Path)
	if err != nil {
		return Result{}, newPatchError(OperationPathInvalid, index, &op, doc, "%s", err)
	}

	switch op.Op {
	case Add:
		return containerAdd(doc, p, op.Value)
	case Remove:
		return containerRemove(doc, p)
	case Replace:
		return containerReplace(doc, p, op.Value)
	case Test:
		res, err := containerTest(doc, p, op.Value)
		if err != nil {
			return Result{}, err
		}
		if !res.TestResult {
			return Result{}, newPatchError(TestOperationFailed, index, &op, doc, "test failed: value at %q does not match", op.Path)
		}
		return res, nil
	case get:
		return containerGet(doc, p)
	case Move:
		fromP, err := pointer.Parse(op.From)
		if err != nil {
			return Result{}, newPatchError(OperationPathInvalid, index, &op, doc, "%s", err)
		}
		return containerMove(doc, fromP, p)
	case Copy:
		fromP, err := pointer.Parse(op.From)
		if err != nil {
			return Result{}, newPatchError(OperationPathInvalid, index, &op, doc, "%s", err)
		}
		return containerCopy(doc, fromP, p)
	default:
		return Result{}, newPatchError(OperationOpInvalid, index, &op, doc, "unsupported operation %q", op.Op)
	}
}

// applyRootOperation implements spec §4.4: when path is empty the container
// does not exist, so dispatch happens on op alone.
func applyRootOperation(doc any, op Operation, index int) (Result, error) {
	switch op.Op {
	case Add:
		return Result{Document: op.Value}, nil
	case Replace:
		return Result{Document: op.Value, Removed: doc, HasRemoved: true}, nil
	case Remove:
		return Result{Document: nil, Removed: doc, HasRemoved: true}, nil
	case Move, Copy:
		fromP, err := pointer.Parse(op.From)
		if err != nil {
			return Result{}, newPatchError(OperationPathInvalid, index, &op, doc, "%s", err)
		}
		moved, err := pointer.Get(doc, fromP)
		if err != nil {
			return Result{}, newPatchError(OperationFromUnresolvable, index, &op, doc, "%s", err)
		}
		res := Result{Document: moved}
		if op.Op == Move {
			res.Removed = doc
			res.HasRemoved = true
		}
		return res, nil
	case Test:
		if !areEquals(doc, op.Value) {
			return Result{}, newPatchError(TestOperationFailed, index, &op, doc, "root test operation did not pass")
		}
		return Result{Document: doc, TestResult: true, HasTest: true}, nil
	case get:
		return Result{Document: doc, Value: doc}, nil
	default:
		return Result{}, newPatchError(OperationOpInvalid, index, &op, doc, "unsupported root-level operation %q", op.Op)
	}
}

// checkPrototypeGuard rejects any pointer path that touches '__proto__' or
// reaches 'prototype' immediately beneath 'constructor'. Go values have no
// prototype chain, but the guard is kept to keep cross-implementation patch
// replay behaviour uniform (spec §3, §9).
func checkPrototypeGuard(raw string) error {
	if raw == "" {
		return nil
	}
	p, err := pointer.Parse(raw)
	if err != nil {
		return nil // malformed paths are reported elsewhere
	}
	for i, token := range p {
		if token == "__proto__" {
			return &PrototypeGuardError{Path: raw}
		}
		if token == "constructor" && i+1 < len(p) && p[i+1] == "prototype" {
			return &PrototypeGuardError{Path: raw}
		}
	}
	return nil
}

// containerAdd implements the "add" row of spec §4.3.
func containerAdd(doc any, p pointer.Pointer, value any) (Result, error) {
	parent, token, err := pointer.Resolve(doc, p)
	if err != nil {
		return Result{}, err
	}
	switch c := parent.(type) {
	case map[string]any:
		c[token] = value
		return Result{Document: doc}, nil
	case []any:
		idx := len(c)
		if !pointer.IsAppendToken(token) {
			n, ok := pointer.ParseIndex(token)
			if !ok {
				return Result{}, errors.Errorf("jsonpatch: %q is not a valid array index", token)
			}
			idx = n
		}
		if idx > len(c) {
			return Result{}, errors.Errorf("jsonpatch: add index %d out of bounds for array of length %d", idx, len(c))
		}
		newArr := make([]any, 0, len(c)+1)
		newArr = append(newArr, c[:idx]...)
		newArr = append(newArr, value)
		newArr = append(newArr, c[idx:]...)
		newDoc, err := pointer.Set(doc, p.Parent(), newArr)
		if err != nil {
			return Result{}, err
		}
		return Result{Document: newDoc, Index: idx, HasIndex: true}, nil
	default:
		return Result{}, &pointer.TypeError{Path: p.Parent().String()}
	}
}

// containerRemove implements the "remove" row of spec §4.3.
func containerRemove(doc any, p pointer.Pointer) (Result, error) {
	parent, token, err := pointer.Resolve(doc, p)
	if err != nil {
		return Result{}, err
	}
	switch c := parent.(type) {
	case map[string]any:
		removed, ok := c[token]
		if !ok {
			return Result{}, &pointer.NotFoundError{Path: p.String(), Token: token}
		}
		delete(c, token)
		return Result{Document: doc, Removed: removed, HasRemoved: true}, nil
	case []any:
		idx, ok := pointer.ParseIndex(token)
		if !ok || idx < 0 || idx >= len(c) {
			return Result{}, &pointer.IndexError{Path: p.String(), Token: token}
		}
		removed := c[idx]
		newArr := make([]any, 0, len(c)-1)
		newArr = append(newArr, c[:idx]...)
		newArr = append(newArr, c[idx+1:]...)
		newDoc, err := pointer.Set(doc, p.Parent(), newArr)
		if err != nil {
			return Result{}, err
		}
		return Result{Document: newDoc, Removed: removed, HasRemoved: true}, nil
	default:
		return Result{}, &pointer.TypeError{Path: p.Parent().String()}
	}
}

// containerReplace implements the "replace" row of spec §4.3.
func containerReplace(doc any, p pointer.Pointer, value any) (Result, error) {
	parent, token, err := pointer.Resolve(doc, p)
	if err != nil {
		return Result{}, err
	}
	switch c := parent.(type) {
	case map[string]any:
		removed, ok := c[token]
		if !ok {
			return Result{}, &pointer.NotFoundError{Path: p.String(), Token: token}
		}
		c[token] = value
		return Result{Document: doc, Removed: removed, HasRemoved: true}, nil
	case []any:
		idx, ok := pointer.ParseIndex(token)
		if !ok || idx < 0 || idx >= len(c) {
			return Result{}, &pointer.IndexError{Path: p.String(), Token: token}
		}
		removed := c[idx]
		c[idx] = value
		return Result{Document: doc, Removed: removed, HasRemoved: true}, nil
	default:
		return Result{}, &pointer.TypeError{Path: p.Parent().String()}
	}
}

// containerTest implements the "test" row of spec §4.3.
func containerTest(doc any, p pointer.Pointer, expected any) (Result, error) {
	actual, err := pointer.Get(doc, p)
	if err != nil {
		return Result{}, err
	}
	return Result{Document: doc, TestResult: areEquals(actual, expected), HasTest: true}, nil
}

// containerGet implements the internal "_get" row of spec §4.3. Neither
// GetValueByPointer nor the diff generator goes through it; both read with
// internal/pointer directly.
func containerGet(doc any, p pointer.Pointer) (Result, error) {
	v, err := pointer.Get(doc, p)
	if err != nil {
		return Result{}, err
	}
	return Result{Document: doc, Value: v}, nil
}

// containerMove implements "move" as remove(from) followed by add(path,
// src), per spec §4.3's note that move/copy are defined purely in terms of
// the primitive ops. The intermediate remove's Removed is intentionally
// discarded: spec §4.3 states the moved-from value must not be reported as
// Removed for a non-root move.
func containerMove(doc any, from, to pointer.Pointer) (Result, error) {
	src, err := pointer.Get(doc, from)
	if err != nil {
		return Result{}, err
	}
	afterRemove, err := containerRemove(doc, from)
	if err != nil {
		return Result{}, err
	}
	return containerAdd(afterRemove.Document, to, src)
}

// containerCopy implements "copy" as add(path, deepClone(get(from))).
func containerCopy(doc any, from, to pointer.Pointer) (Result, error) {
	src, err := pointer.Get(doc, from)
	if err != nil {
		return Result{}, err
	}
	cloned, err := DeepClone(src)
	if err != nil {
		return Result{}, err
	}
	return containerAdd(doc, to, cloned)
}

// ApplyStream decodes a document from reader, applies patch, and encodes the
// result to writer. More memory-efficient than Apply for large documents
// since it skips the explicit clone (it is already the sole owner of the
// freshly-decoded value).
func ApplyStream(reader io.Reader, writer io.Writer, patch Patch) error {
	var doc any
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&doc); err != nil {
		return errors.Wrap(err, "jsonpatch: apply stream: decode document")
	}

	result, err := ApplyInPlace(doc, patch)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	return encoder.Encode(result)
}
