package golite

import (
	"math"
	"testing"
)

func TestCompareValues_NaN(t *testing.T) {
	nan := math.NaN()

	// For ordering purposes, NaN sorts below every other numeric value,
	// including another NaN — CompareValues must produce a total order
	// so B-tree descent never gets stuck comparing two NaNs.
	if got := CompareValues(nan, nan); got != 0 {
		t.Errorf("CompareValues(NaN, NaN) = %d, want 0", got)
	}
	if got := CompareValues(nan, int64(1)); got != -1 {
		t.Errorf("CompareValues(NaN, 1) = %d, want -1", got)
	}
	if got := CompareValues(int64(1), nan); got != 1 {
		t.Errorf("CompareValues(1, NaN) = %d, want 1", got)
	}
	if got := CompareValues(nan, -1.0); got != -1 {
		t.Errorf("CompareValues(NaN, -1.0) = %d, want -1", got)
	}
}

func TestValuesEqual_NaN(t *testing.T) {
	nan := math.NaN()

	// Unlike CompareValues, ValuesEqual follows strict IEEE 754 equality:
	// a NaN is never equal to anything, including another NaN.
	if ValuesEqual(nan, nan) {
		t.Error("ValuesEqual(NaN, NaN) = true, want false")
	}
	if ValuesEqual(nan, int64(0)) {
		t.Error("ValuesEqual(NaN, 0) = true, want false")
	}
}

func TestCompareValues_TypeOrdering(t *testing.T) {
	// NULL < numeric < text < blob, regardless of the particular values.
	null := SQLNull
	num := int64(1)
	text := "a"
	blob := []byte{0x01}

	ordered := []any{null, num, text, blob}
	for i := 0; i < len(ordered)-1; i++ {
		if got := CompareValues(ordered[i], ordered[i+1]); got != -1 {
			t.Errorf("CompareValues(%#v, %#v) = %d, want -1", ordered[i], ordered[i+1], got)
		}
		if got := CompareValues(ordered[i+1], ordered[i]); got != 1 {
			t.Errorf("CompareValues(%#v, %#v) = %d, want 1", ordered[i+1], ordered[i], got)
		}
	}
}

// TestCompareValues_LargeIntPrecision guards against widening both
// operands to float64 before comparing: two distinct int64 values that
// straddle float64's 53-bit mantissa round to the same float and would
// wrongly compare equal if compared as floats.
func TestCompareValues_LargeIntPrecision(t *testing.T) {
	a := int64(9007199254740992)
	b := int64(9007199254740993)

	if float64(a) != float64(b) {
		t.Fatalf("test precondition failed: %d and %d do not collide as float64", a, b)
	}
	if got := CompareValues(a, b); got != -1 {
		t.Errorf("CompareValues(%d, %d) = %d, want -1", a, b, got)
	}
	if got := CompareValues(b, a); got != 1 {
		t.Errorf("CompareValues(%d, %d) = %d, want 1", b, a, got)
	}
	if got := CompareValues(a, a); got != 0 {
		t.Errorf("CompareValues(%d, %d) = %d, want 0", a, a, got)
	}
}

func TestValuesEqual_NumericCrossType(t *testing.T) {
	if !ValuesEqual(int64(5), 5.0) {
		t.Error("ValuesEqual(int64(5), 5.0) = false, want true")
	}
	if ValuesEqual(int64(5), 5.5) {
		t.Error("ValuesEqual(int64(5), 5.5) = true, want false")
	}
	if ValuesEqual(SQLNull, SQLNull) == false {
		t.Error("ValuesEqual(NULL, NULL) = false, want true")
	}
	if ValuesEqual(int64(0), SQLNull) {
		t.Error("ValuesEqual(0, NULL) = true, want false")
	}
}

func TestCmpPrefix_Asymmetric(t *testing.T) {
	// A short search key (just the indexed columns) must match a longer
	// index-leaf record that trails a row id column.
	key := Record{"name300"}
	indexRecord := Record{"name300", int64(300)}

	if got := CmpPrefix(key, indexRecord); got != 0 {
		t.Errorf("CmpPrefix(key, indexRecord) = %d, want 0", got)
	}

	// The comparison is not commutative: comparing the other way treats
	// the longer record as the prefix-bearing side, so the trailing
	// row id makes it greater than the short key.
	if got := CmpPrefix(indexRecord, key); got != 1 {
		t.Errorf("CmpPrefix(indexRecord, key) = %d, want 1", got)
	}
}
