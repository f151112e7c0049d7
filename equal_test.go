package jsonpatch_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentflare-ai/go-jsonpatch"
)

func TestCompare_NaNEqualsNaN(t *testing.T) {
	// areEquals isn't exported directly, so exercise it through a test
	// operation's result.
	nan := math.NaN()
	res, err := jsonpatch.ApplyOperation(map[string]any{"n": nan}, jsonpatch.Operation{
		Op: jsonpatch.Test, Path: "/n", Value: nan,
	}, 0, jsonpatch.ApplyOptions{Mutate: true, BanProto: true})
	assert.NoError(t, err)
	assert.True(t, res.HasTest)
	assert.True(t, res.TestResult)
}

func TestValidate_AbsentRejectedAtAnyDepth(t *testing.T) {
	err := jsonpatch.Validate(jsonpatch.Patch{
		{Op: jsonpatch.Add, Path: "/a", Value: []any{1.0, jsonpatch.Absent}},
	}, nil, nil)
	assert.Error(t, err)
	var perr *jsonpatch.JsonPatchError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, jsonpatch.OperationValueCannotContainUndefined, perr.Name)
	}
}

func TestDeepClone_IsIndependentOfSource(t *testing.T) {
	original := map[string]any{"nested": map[string]any{"x": 1.0}}
	cloned, err := jsonpatch.DeepClone(original)
	assert.NoError(t, err)

	clonedMap := cloned.(map[string]any)
	clonedMap["nested"].(map[string]any)["x"] = 2.0

	assert.Equal(t, 1.0, original["nested"].(map[string]any)["x"])
}
