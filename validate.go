package jsonpatch

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/agentflare-ai/go-jsonpatch/internal/log"
	"github.com/agentflare-ai/go-jsonpatch/internal/pointer"
)

// ExternalValidator lets a caller layer domain-specific checks (e.g. "this
// path must live under /spec") on top of the built-in structural and
// document-aware validation performed by Validate.
type ExternalValidator func(op Operation, index int, document any, existingPathFragment string) error

var validatorLog = log.Noop

// SetLogger installs the logger Validate uses to report which operation
// index failed before returning. The CLI installs a real logrus-backed
// logger via internal/log.New(); library callers get a silent default.
func SetLogger(l log.Logger) {
	validatorLog = l
}

// validOps is the set of externally-permitted operation kinds; "_get" is
// deliberately excluded since it is an internal pseudo-operation.
var validOps = map[Op]bool{
	Add: true, Remove: true, Replace: true, Move: true, Copy: true, Test: true,
}

// validateOne performs the static (shape) and, when document is non-nil,
// document-aware checks from spec §4.7.
func validateOne(op Operation, index int, document any, existingFragment pointer.Pointer) *JsonPatchError {
	if !validOps[op.Op] {
		return newPatchError(OperationOpInvalid, index, &op, document, "unknown operation %q", op.Op)
	}

	p, err := pointer.Parse(op.Path)
	if err != nil {
		return newPatchError(OperationPathInvalid, index, &op, document, "%s", err)
	}

	if op.Op == Move || op.Op == Copy {
		if _, err := pointer.Parse(op.From); err != nil {
			return newPatchError(OperationFromRequired, index, &op, document, "%s", err)
		}
	}

	if op.Op == Add || op.Op == Replace || op.Op == Test {
		if containsAbsent(op.Value) {
			return newPatchError(OperationValueCannotContainUndefined, index, &op, document, "value must not contain the absent sentinel")
		}
	}

	if document == nil {
		return nil
	}

	switch op.Op {
	case Add:
		if len(p) != len(existingFragment) && len(p) != len(existingFragment)+1 {
			return newPatchError(OperationPathCannotAdd, index, &op, document, "path %q is neither an existing slot nor one new leaf below %q", op.Path, existingFragment.String())
		}
		if last, ok := p.Last(); ok && !pointer.IsAppendToken(last) {
			if parent, err := pointer.Get(document, p.Parent()); err == nil {
				if arr, isArr := parent.([]any); isArr {
					if !pointer.IsStrictIndex(last) {
						return newPatchError(OperationPathIllegalArrayIndex, index, &op, document, "%q is not a strict array index", last)
					}
					if n, _ := pointer.ParseIndex(last); n > len(arr) {
						return newPatchError(OperationValueOutOfBounds, index, &op, document, "index %d out of bounds for array of length %d", n, len(arr))
					}
				}
			}
		}
	case Replace, Remove, get:
		if len(p) != len(existingFragment) {
			return newPatchError(OperationPathUnresolvable, index, &op, document, "path %q does not resolve", op.Path)
		}
	case Move, Copy:
		fromP, _ := pointer.Parse(op.From)
		fromExisting := pointer.ExistingPrefix(document, fromP)
		if len(fromExisting) != len(fromP) {
			return newPatchError(OperationFromUnresolvable, index, &op, document, "from %q does not resolve", op.From)
		}
	}

	return nil
}

// Validate implements spec §4.7's sequence validator: it runs the
// static/document-aware checks over every operation and, when document is
// non-nil, trial-applies the whole sequence against a clone so that
// cross-operation failures (e.g. operation 3 depends on operation 1 having
// run) surface too. It returns the first failure, wrapped as either a
// *JsonPatchError or, for a prototype-pollution attempt, a
// *PrototypeGuardError — spec keeps that error distinct from the patch
// error taxon.
func Validate(sequence Patch, document any, external ExternalValidator) error {
	for i, op := range sequence {
		// The prototype guard is a security invariant (spec §3), checked
		// ahead of the shape/resolvability checks below: it must fire
		// regardless of whether the path would otherwise be a valid
		// add/replace/etc target, and is reported as the spec-mandated
		// distinct *PrototypeGuardError rather than a *JsonPatchError.
		if guardErr := checkPrototypeGuard(op.Path); guardErr != nil {
			validatorLog.Warnf("jsonpatch: validate: operation %d (%s %s) failed: prototype guard", i, op.Op, op.Path)
			return guardErr
		}
		if op.Op == Move || op.Op == Copy {
			if guardErr := checkPrototypeGuard(op.From); guardErr != nil {
				validatorLog.Warnf("jsonpatch: validate: operation %d (%s) failed: prototype guard on from", i, op.Op)
				return guardErr
			}
		}

		existing := pointer.Pointer{}
		if document != nil {
			if p, err := pointer.Parse(op.Path); err == nil {
				existing = pointer.ExistingPrefix(document, p)
			}
		}
		if verr := validateOne(op, i, document, existing); verr != nil {
			validatorLog.Warnf("jsonpatch: validate: operation %d (%s %s) failed: %s", i, op.Op, op.Path, verr.Name)
			return verr
		}
		if external != nil {
			if err := external(op, i, document, existing.String()); err != nil {
				validatorLog.Warnf("jsonpatch: validate: operation %d failed external validation: %s", i, err)
				return newPatchError(OperationOpInvalid, i, &op, document, "external validation failed: %s", err)
			}
		}
	}

	if document == nil {
		return nil
	}

	clonedDoc, err := DeepClone(document)
	if err != nil {
		return pkgerrors.Wrap(err, "jsonpatch: validate: clone document")
	}
	clonedPatch := make(Patch, len(sequence))
	copy(clonedPatch, sequence)

	if _, err := ApplyPatch(clonedDoc, clonedPatch, ApplyOptions{Mutate: true, BanProto: true}); err != nil {
		var guardErr *PrototypeGuardError
		if errors.As(err, &guardErr) {
			return guardErr
		}
		var patchErr *JsonPatchError
		if errors.As(err, &patchErr) {
			return patchErr
		}
		return newPatchError(OperationPathUnresolvable, -1, nil, document, "trial apply failed: %s", err)
	}
	return nil
}
