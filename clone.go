package jsonpatch

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// DeepClone produces a JSON-safe deep copy of v by round-tripping it through
// the JSON codec, the same approach the teacher library used for Apply's
// copy-on-write semantics. goccy/go-json is used in place of encoding/json
// for the speedup on the hot clone-per-Apply-call path; its Marshal/Unmarshal
// signatures and struct-tag handling are drop-in compatible.
//
// Absent (and anything containing it) marshals to null rather than failing,
// mirroring JSON.stringify's undefined-to-null behaviour. Compare relies on
// this: an Absent array element in the new document reaches the generated
// operation's Value as null, never as Absent itself.
func DeepClone(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "jsonpatch: deep clone: marshal")
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "jsonpatch: deep clone: unmarshal")
	}
	return out, nil
}

func mustClone(v any) any {
	out, err := DeepClone(v)
	if err != nil {
		// mustClone is only called by the diff generator, on values taken
		// from the documents being compared, so a clone failure here
		// indicates a value that was never JSON-safe to begin with.
		panic(err)
	}
	return out
}
