package jsonpatch_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/agentflare-ai/go-jsonpatch"
)

// TestApplyPatch drives the RFC 6902 Appendix A.1-A.9 scenarios through
// ApplyPatch with Validate+BanProto on and Mutate off, so the same table
// exercises the full options surface instead of the bare Apply shortcut.
func TestApplyPatch(t *testing.T) {
	testCases := []struct {
		name        string
		doc         string
		patch       string
		expected    string
		expectedErr string
	}{
		// RFC 6902, Appendix A.1. Add an Object Member
		{
			name:     "add an object member",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"add","path":"/b","value":"e"}]`,
			expected: `{"a":"b","b":"e","c":"d"}`,
		},
		// RFC 6902, Appendix A.2. Add an Array Element
		{
			name:     "add an array element",
			doc:      `{"foo":["bar","baz"]}`,
			patch:    `[{"op":"add","path":"/foo/1","value":"qux"}]`,
			expected: `{"foo":["bar","qux","baz"]}`,
		},
		// RFC 6902, Appendix A.3. Remove an Object Member
		{
			name:     "remove an object member",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"remove","path":"/a"}]`,
			expected: `{"c":"d"}`,
		},
		// RFC 6902, Appendix A.4. Remove an Array Element
		{
			name:     "remove an array element",
			doc:      `{"foo":["bar","qux","baz"]}`,
			patch:    `[{"op":"remove","path":"/foo/1"}]`,
			expected: `{"foo":["bar","baz"]}`,
		},
		// RFC 6902, Appendix A.5. Replace a Value
		{
			name:     "replace a value",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"replace","path":"/a","value":"e"}]`,
			expected: `{"a":"e","c":"d"}`,
		},
		// RFC 6902, Appendix A.6. Move a Value
		{
			name:     "move a value",
			doc:      `{"foo":{"bar":"baz","waldo":"fred"},"qux":{"corge":"grault"}}`,
			patch:    `[{"op":"move","from":"/foo/waldo","path":"/qux/thud"}]`,
			expected: `{"foo":{"bar":"baz"},"qux":{"corge":"grault","thud":"fred"}}`,
		},
		// RFC 6902, Appendix A.7. Move an Array Element
		{
			name:     "move an array element",
			doc:      `{"foo":["all","grass","cows","eat"]}`,
			patch:    `[{"op":"move","from":"/foo/1","path":"/foo/3"}]`,
			expected: `{"foo":["all","cows","eat","grass"]}`,
		},
		// RFC 6902, Appendix A.8. Test a Value
		{
			name:     "test a value (success)",
			doc:      `{"baz":"qux","foo":["a",2,"c"]}`,
			patch:    `[{"op":"test","path":"/baz","value":"qux"}]`,
			expected: `{"baz":"qux","foo":["a",2,"c"]}`,
		},
		// RFC 6902, Appendix A.9. Test a Value (error)
		{
			name:        "test a value (error)",
			doc:         `{"baz":"qux"}`,
			patch:       `[{"op":"test","path":"/baz","value":"bar"}]`,
			expectedErr: "test failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var doc any
			json.Unmarshal([]byte(tc.doc), &doc)

			var patch jsonpatch.Patch
			json.Unmarshal([]byte(tc.patch), &patch)

			res, err := jsonpatch.ApplyPatch(doc, patch, jsonpatch.ApplyOptions{
				Validate: true,
				Mutate:   false,
				BanProto: true,
			})

			if tc.expectedErr != "" {
				if err == nil {
					t.Errorf("expected error containing %q, but got none", tc.expectedErr)
				} else if !strings.Contains(err.Error(), tc.expectedErr) {
					t.Errorf("expected error containing %q, but got %q", tc.expectedErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if len(res.Results) != len(patch) {
				t.Errorf("expected %d per-operation results, got %d", len(patch), len(res.Results))
			}

			var expected any
			json.Unmarshal([]byte(tc.expected), &expected)

			if !reflect.DeepEqual(res.Document, expected) {
				resBytes, _ := json.Marshal(res.Document)
				expBytes, _ := json.Marshal(expected)
				t.Errorf("unexpected result\n\tgot: %s\n\twant: %s", resBytes, expBytes)
			}

			var original any
			json.Unmarshal([]byte(tc.doc), &original)
			if !reflect.DeepEqual(doc, original) {
				t.Errorf("ApplyOptions{Mutate: false} mutated the caller's document")
			}
		})
	}
}

func TestApplyOperation_RejectsAbsentInValue(t *testing.T) {
	_, err := jsonpatch.ApplyOperation(map[string]any{"a": "b"}, jsonpatch.Operation{
		Op: jsonpatch.Add, Path: "/c", Value: jsonpatch.Absent,
	}, 0, jsonpatch.ApplyOptions{Validate: true, Mutate: true, BanProto: true})
	if err == nil {
		t.Fatal("expected an error applying an operation whose value contains the Absent sentinel")
	}
	var perr *jsonpatch.JsonPatchError
	if !errors.As(err, &perr) || perr.Name != jsonpatch.OperationValueCannotContainUndefined {
		t.Fatalf("expected OperationValueCannotContainUndefined, got %v", err)
	}
}

func TestApplyPatch_PrototypeGuardRejectsProtoPath(t *testing.T) {
	_, err := jsonpatch.ApplyPatch(map[string]any{"a": "b"}, jsonpatch.Patch{
		{Op: jsonpatch.Add, Path: "/__proto__/polluted", Value: true},
	}, jsonpatch.ApplyOptions{Mutate: true, BanProto: true})
	if err == nil {
		t.Fatal("expected the prototype guard to reject a __proto__ path")
	}
	var guardErr *jsonpatch.PrototypeGuardError
	if !errors.As(err, &guardErr) {
		t.Fatalf("expected *PrototypeGuardError, got %v (%T)", err, err)
	}
}

func TestApplyPatch_BanProtoFalseAllowsProtoPath(t *testing.T) {
	// With the guard off, __proto__ is just another object key on a Go map.
	res, err := jsonpatch.ApplyPatch(map[string]any{}, jsonpatch.Patch{
		{Op: jsonpatch.Add, Path: "/__proto__", Value: "harmless"},
	}, jsonpatch.ApplyOptions{Mutate: true, BanProto: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := res.Document.(map[string]any)
	if doc["__proto__"] != "harmless" {
		t.Fatalf("expected __proto__ key to be set, got %#v", doc)
	}
}

func TestApplyStream(t *testing.T) {
	doc := `{"a":"b","c":"d"}`
	patch := `[{"op":"add","path":"/b","value":"e"}]`
	expected := `{"a":"b","b":"e","c":"d"}`

	reader := strings.NewReader(doc)
	var writer bytes.Buffer

	var patchOps jsonpatch.Patch
	json.Unmarshal([]byte(patch), &patchOps)

	err := jsonpatch.ApplyStream(reader, &writer, patchOps)
	if err != nil {
		t.Fatalf("ApplyStream() unexpected error: %v", err)
	}

	// The JSON encoder adds a newline, so we trim it for comparison
	result := strings.TrimSpace(writer.String())

	var resultJSON, expectedJSON any
	json.Unmarshal([]byte(result), &resultJSON)
	json.Unmarshal([]byte(expected), &expectedJSON)

	if !reflect.DeepEqual(resultJSON, expectedJSON) {
		t.Errorf("ApplyStream() result mismatch:\ngot:  %s\nwant: %s", result, expected)
	}
}
