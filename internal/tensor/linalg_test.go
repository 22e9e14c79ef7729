package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot_VectorVector(t *testing.T) {
	out, err := Vector[float32](1, 2, 3).Dot(Vector[float32](4, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rank())
	assertEqualFloat32(t, 32, out.Item(), "dot")
}

func TestDot_MatrixVector(t *testing.T) {
	w := matrix(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})

	out, err := w.Dot(Vector[float32](1, 1))
	require.NoError(t, err)
	assertEqualShape(t, Shape{3}, out.Shape(), "matrix·vector shape")
	assert.Equal(t, []float32{3, 7, 11}, out.Data())
}

func TestDot_VectorMatrix(t *testing.T) {
	w := matrix(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})

	out, err := Vector[float32](1, 1).Dot(w.T())
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 7, 11}, out.Data())
}

func TestDot_MatrixMatrix(t *testing.T) {
	w := matrix(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})
	x := matrix(t, [][]float32{{1, 0}, {0, 1}})

	out, err := x.Dot(w.T())
	require.NoError(t, err)
	assertEqualShape(t, Shape{2, 3}, out.Shape(), "matrix·matrix shape")
	assert.Equal(t, []float32{1, 3, 5, 2, 4, 6}, out.Data())
}

func TestDot_LargeMatchesIdentity(t *testing.T) {
	const n = 64
	a := Zeros[float64](Shape{n, n})
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(float64(i*n+j), i, j)
		}
	}

	out, err := a.Dot(Eye[float64](n))
	require.NoError(t, err)
	assert.Equal(t, a.Values(), out.Values())
}

func TestDot_Errors(t *testing.T) {
	w := Zeros[float32](Shape{3, 2})

	_, err := w.Dot(Vector[float32](1, 2, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Vector[float32](1, 2).Dot(Vector[float32](1))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = w.Dot(Zeros[float32](Shape{3, 3}))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Scalar[float32](1).Dot(w)
	assert.ErrorIs(t, err, ErrRankMismatch)

	_, err = Zeros[float32](Shape{2, 2, 2}).Dot(w)
	assert.ErrorIs(t, err, ErrRankMismatch)
}

func TestDot_PropagatesNonFinite(t *testing.T) {
	x := Vector[float64](0, 1)
	w, err := FromRows([][]float64{{math.Inf(1), 1}, {1, 1}})
	require.NoError(t, err)

	y, err := x.Dot(w)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(y.At(0)), "0·Inf must not be skipped")
	assert.Equal(t, 1.0, y.At(1))
}

func TestOuter(t *testing.T) {
	out, err := Outer(Vector[float64](1, 2), Vector[float64](3, 4, 5))
	require.NoError(t, err)
	assertEqualShape(t, Shape{2, 3}, out.Shape(), "outer shape")
	assert.Equal(t, []float64{3, 4, 5, 6, 8, 10}, out.Data())

	_, err = Outer(Eye[float64](2), Vector[float64](1))
	assert.ErrorIs(t, err, ErrRankMismatch)
}

func TestInverse(t *testing.T) {
	m, err := FromRows([][]float64{{4, 7}, {2, 6}})
	require.NoError(t, err)

	inv, err := m.Inverse()
	require.NoError(t, err)
	want := []float64{0.6, -0.7, -0.2, 0.4}
	for i, v := range inv.Data() {
		assert.InDelta(t, want[i], v, 1e-12)
	}

	id, err := m.Dot(inv)
	require.NoError(t, err)
	assert.True(t, id.AllClose(Eye[float64](2), 1e-12))
}

func TestInverse_NeedsPivoting(t *testing.T) {
	m, err := FromRows([][]float64{{0, 1}, {1, 0}})
	require.NoError(t, err)

	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1, 0}, inv.Data())
}

func TestInverse_SmallScale(t *testing.T) {
	m, err := FromSlice([]float64{1e-13, 0, 0, 1e-13}, Shape{2, 2})
	require.NoError(t, err)

	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.True(t, inv.AllClose(Eye[float64](2).MulScalar(1e13), 1e-3))
}

func TestInverse_Float32(t *testing.T) {
	m := matrix(t, [][]float32{{2, 0}, {0, 4}})

	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0, 0, 0.25}, inv.Data())
}

func TestInverse_Singular(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {2, 4}})
	require.NoError(t, err)

	_, err = m.Inverse()
	assert.ErrorIs(t, err, ErrSingularMatrix)

	_, err = Zeros[float64](Shape{2, 3}).Inverse()
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Vector[float64](1).Inverse()
	assert.ErrorIs(t, err, ErrRankMismatch)
}
