package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lae/pkg/errors"
)

func TestSharedMatrixRowMajorRoundTrip(t *testing.T) {
	data := [][]float64{{1, 2, 3}, {4, 5, 6}}
	m, err := NewSharedMatrixFrom(data)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, RowMajor, m.Orientation())
	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, data, got)

	got[0][0] = 100
	again, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0][0], "ReadRowMajor must return a copy")
}

func TestSharedMatrixColumnMajorRead(t *testing.T) {
	m := NewSharedMatrix()
	require.NoError(t, m.LoadColumnMajor([][]float64{{1, 2, 3}, {4, 5, 6}}))

	assert.Equal(t, ColumnMajor, m.Orientation())
	rows, cols := m.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, got)
}

func TestSharedMatrixReloadReplaces(t *testing.T) {
	m, err := NewSharedMatrixFrom([][]float64{{1}})
	require.NoError(t, err)
	old, err := m.Get(0)
	require.NoError(t, err)

	require.NoError(t, m.LoadRowMajor([][]float64{{7, 8}, {9, 10}}))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []float64{1}, old.Values(), "vectors from before the reload are detached, not mutated")

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{7, 8}, {9, 10}}, got)
}

func TestSharedMatrixEmpty(t *testing.T) {
	m := NewSharedMatrix()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, RowMajor, m.Orientation())

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Get(0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIndexOutOfRange))
}

func TestSharedMatrixRaggedLoad(t *testing.T) {
	m := NewSharedMatrix()
	err := m.LoadRowMajor([][]float64{{1, 2}, {3}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeDimensionMismatch), "got %v", err)

	err = m.LoadColumnMajor([][]float64{{1}, {2, 3}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeDimensionMismatch), "got %v", err)
}

func TestSharedMatrixTransposeAllRows(t *testing.T) {
	m, err := NewSharedMatrixFrom([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	for i := 0; i < m.Len(); i++ {
		vec, err := m.Get(i)
		require.NoError(t, err)
		vec.Transpose()
	}

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, got)
}

func TestSharedMatrixMixedOrientation(t *testing.T) {
	m, err := NewSharedMatrixFrom([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	vec, err := m.Get(1)
	require.NoError(t, err)
	vec.Transpose()

	_, err = m.ReadRowMajor()
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState), "got %v", err)
}

// Whole-matrix reads run concurrently with row writers on a different matrix
// and with other readers, the access pattern of a Multiply step.
func TestSharedMatrixConcurrentMultiplyPattern(t *testing.T) {
	right, err := NewSharedMatrixFrom([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)

	const rows = 128
	data := make([][]float64, rows)
	for i := range data {
		data[i] = []float64{float64(i), float64(-i)}
	}
	left, err := NewSharedMatrixFrom(data)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < rows; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := left.Get(i)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, vec.VecMatMul(right))
		}(i)
	}
	wg.Wait()

	got, err := left.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestShape(t *testing.T) {
	rows, cols, err := Shape(nil)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Zero(t, cols)

	rows, cols, err = Shape([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	_, _, err = Shape([][]float64{{1, 2, 3}, {4, 5}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeDimensionMismatch))
}

func TestOrientation(t *testing.T) {
	assert.Equal(t, ColumnMajor, RowMajor.Flip())
	assert.Equal(t, RowMajor, ColumnMajor.Flip())
	assert.Equal(t, "row-major", RowMajor.String())
	assert.Equal(t, "column-major", ColumnMajor.String())
	assert.Equal(t, "unknown", Orientation(9).String())
}

func TestSharedMatrixZeroWidthTransposeCollapses(t *testing.T) {
	m := NewSharedMatrix()
	require.NoError(t, m.LoadRowMajor([][]float64{{}, {}}))

	got, err := m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{}, {}}, got)

	for i := 0; i < m.Len(); i++ {
		row, err := m.Get(i)
		require.NoError(t, err)
		row.Transpose()
	}

	got, err = m.ReadRowMajor()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{}, got, "zero rows leave no width to report")
}
