package jsonpatch

// sameValue is diffValue's cheap pre-check, short-circuiting before the
// container-vs-scalar shape test. Two containers are only ever short-circuited
// here when both are empty; anything else, including two structurally equal
// non-empty containers, still falls through to compareContainer, since Go
// gives no way to compare map/slice values for reference identity and this
// module never assumes callers pass the same backing array on both sides of
// a Compare.
func sameValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && len(av) == 0 && len(bv) == 0
	case []any:
		bv, ok := b.([]any)
		return ok && len(av) == 0 && len(bv) == 0
	default:
		return areEquals(a, b)
	}
}

// areEquals implements spec §4.2: structural, type-strict equality over
// Go's JSON value representation, with the NaN special case (two NaNs
// compare equal, matching the reference library's a!==a && b!==b rule).
// Object key order never affects equality.
func areEquals(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if av != av && bv != bv { // both NaN
			return true
		}
		return av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !areEquals(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !areEquals(v, bvv) {
				return false
			}
		}
		return true
	default:
		// Other concrete numeric/scalar types (e.g. json.Number, int) that
		// a caller constructed by hand rather than via encoding/json decode.
		return a == b
	}
}
