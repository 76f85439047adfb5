package variable

import (
	"errors"
	"testing"

	"github.com/cpsource/shvars/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestScalarSetGet(t *testing.T) {
	v := NewScalar("x", "hello")
	got, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	require.NoError(t, v.Set("world", SetOptions{}))
	got, err = v.Get()
	require.NoError(t, err)
	require.Equal(t, "world", got)
}

func TestScalarAppendGrowth(t *testing.T) {
	v := NewScalar("x", "a")
	for i := 0; i < 50; i++ {
		require.NoError(t, v.Set("b", SetOptions{Append: true}))
	}
	got, _ := v.Get()
	require.Equal(t, 51, len(got))
}

func TestReadonlyRejectsWithoutForce(t *testing.T) {
	v := NewScalar("x", "a")
	v.Attrs = v.Attrs.Set(Readonly)

	err := v.Set("b", SetOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrReadOnly))

	require.NoError(t, v.Set("b", SetOptions{Force: true}))
	got, _ := v.Get()
	require.Equal(t, "b", got)
}

func TestIntegerAttributeEvaluatesArithmetic(t *testing.T) {
	v := NewScalar("x", "")
	v.Attrs = v.Attrs.Set(Integer)

	eval := func(expr string) (string, error) { return "42", nil }
	require.NoError(t, v.Set("6*7", SetOptions{Arith: eval}))
	got, _ := v.Get()
	require.Equal(t, "42", got)
}

func TestIntegerAttributeFallsBackWithoutEvaluator(t *testing.T) {
	v := NewScalar("x", "")
	v.Attrs = v.Attrs.Set(Integer)

	require.NoError(t, v.Set("6*7", SetOptions{}))
	got, _ := v.Get()
	require.Equal(t, "6*7", got)
}

func TestArrayAppendAsScalarRoutesToIndexZero(t *testing.T) {
	v := NewIndexedArray("arr")
	require.NoError(t, v.Set("first", SetOptions{}))
	require.NoError(t, v.Set("second", SetOptions{Append: true}))
	got, ok := v.GetAt(0)
	require.True(t, ok)
	require.Equal(t, "firstsecond", got)
}

func TestUpperCaseFolding(t *testing.T) {
	v := NewScalar("x", "")
	v.Attrs = v.Attrs.Set(Upper)
	require.NoError(t, v.Set("hello", SetOptions{}))
	got, _ := v.Get()
	require.Equal(t, "HELLO", got)
}

func TestIndexedArraySparseGaps(t *testing.T) {
	v := NewIndexedArray("arr")
	require.NoError(t, v.SetAt(5, "five"))
	require.NoError(t, v.SetAt(2, "two"))
	require.Equal(t, []int{2, 5}, v.Indices())
	_, ok := v.GetAt(3)
	require.False(t, ok)
}

func TestConvertToArrayPreservesScalarAtZero(t *testing.T) {
	v := NewScalar("x", "seed")
	require.NoError(t, v.ConvertToArray(false))
	got, ok := v.GetAt(0)
	require.True(t, ok)
	require.Equal(t, "seed", got)
}

func TestConvertCrossKindFails(t *testing.T) {
	v := NewAssocArray("a")
	err := v.ConvertToArray(false)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrIncompatibleType))
}

func TestAttrsStringRoundTrip(t *testing.T) {
	a := Exported | Readonly | Array
	s := a.String()
	require.Equal(t, "arx", s)
	parsed := ParseAttrs(s)
	require.True(t, parsed.Has(Exported))
	require.True(t, parsed.Has(Readonly))
	require.True(t, parsed.Has(Array))
}

func TestDescribeIndexedArray(t *testing.T) {
	v := NewIndexedArray("arr")
	require.NoError(t, v.SetAt(0, "a"))
	require.NoError(t, v.SetAt(1, "b"))
	desc, err := v.Describe()
	require.NoError(t, err)
	require.Equal(t, `declare -a arr=([0]="a" [1]="b")`, desc)
}
