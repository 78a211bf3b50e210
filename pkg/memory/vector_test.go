package memory

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lae/pkg/errors"
)

func TestSharedVectorGet(t *testing.T) {
	v := NewSharedVector([]float64{1, 2, 3}, RowMajor)

	got, err := v.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	for _, idx := range []int{-1, 3, 100} {
		_, err := v.Get(idx)
		assert.Truef(t, errors.IsType(err, errors.ErrorTypeIndexOutOfRange), "index %d: %v", idx, err)
	}
}

func TestSharedVectorCopiesInput(t *testing.T) {
	data := []float64{1, 2}
	v := NewSharedVector(data, RowMajor)
	data[0] = 99

	assert.Equal(t, []float64{1, 2}, v.Values())

	out := v.Values()
	out[1] = 42
	assert.Equal(t, []float64{1, 2}, v.Values())
}

func TestSharedVectorAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *SharedVector
		want    []float64
		errType errors.ErrorType
	}{
		{
			name: "row vectors",
			a:    NewSharedVector([]float64{1, 2, 3}, RowMajor),
			b:    NewSharedVector([]float64{4, 5, 6}, RowMajor),
			want: []float64{5, 7, 9},
		},
		{
			name: "column vectors",
			a:    NewSharedVector([]float64{-1, 0.5}, ColumnMajor),
			b:    NewSharedVector([]float64{1, 0.5}, ColumnMajor),
			want: []float64{0, 1},
		},
		{
			name:    "orientation mismatch",
			a:       NewSharedVector([]float64{1, 2, 3}, RowMajor),
			b:       NewSharedVector([]float64{4, 5, 6}, ColumnMajor),
			errType: errors.ErrorTypeInvalidOperand,
		},
		{
			name:    "length mismatch",
			a:       NewSharedVector([]float64{1, 2, 3}, RowMajor),
			b:       NewSharedVector([]float64{4, 5}, RowMajor),
			errType: errors.ErrorTypeDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.a.Values()
			err := tt.a.Add(tt.b)
			if tt.errType != "" {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, tt.errType), "unexpected error: %v", err)
				assert.Equal(t, before, tt.a.Values(), "failed add must not mutate the receiver")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.a.Values())
		})
	}
}

func TestSharedVectorAddSelf(t *testing.T) {
	v := NewSharedVector([]float64{1, -2, 3}, RowMajor)
	require.NoError(t, v.Add(v))
	assert.Equal(t, []float64{2, -4, 6}, v.Values())
}

func TestSharedVectorNegate(t *testing.T) {
	v := NewSharedVector([]float64{1, -2, 3}, ColumnMajor)

	v.Negate()
	assert.Equal(t, []float64{-1, 2, -3}, v.Values())

	v.Negate()
	assert.Equal(t, []float64{1, -2, 3}, v.Values())
	assert.Equal(t, ColumnMajor, v.Orientation())

	zero := NewSharedVector([]float64{0, 0, 0}, RowMajor)
	zero.Negate()
	for _, x := range zero.Values() {
		assert.Zero(t, x)
	}
}

func TestSharedVectorTranspose(t *testing.T) {
	v := NewSharedVector([]float64{1, 2, 3}, RowMajor)

	v.Transpose()
	assert.Equal(t, ColumnMajor, v.Orientation())
	assert.Equal(t, []float64{1, 2, 3}, v.Values(), "transpose must not reorder data")

	v.Transpose()
	assert.Equal(t, RowMajor, v.Orientation())
}

func TestSharedVectorDot(t *testing.T) {
	r := NewSharedVector([]float64{1, 2, 3}, RowMajor)
	c := NewSharedVector([]float64{4, 5, 6}, ColumnMajor)

	got, err := r.Dot(c)
	require.NoError(t, err)
	assert.Equal(t, 32.0, got)

	got, err = c.Dot(r)
	require.NoError(t, err)
	assert.Equal(t, 32.0, got)

	_, err = r.Dot(NewSharedVector([]float64{4, 5, 6}, RowMajor))
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidOperand))

	_, err = r.Dot(NewSharedVector([]float64{4, 5}, ColumnMajor))
	assert.True(t, errors.IsType(err, errors.ErrorTypeDimensionMismatch))

	_, err = r.Dot(r)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidOperand))
}

func TestSharedVectorDotRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 20; n++ {
		a := make([]float64, n)
		b := make([]float64, n)
		var want float64
		for i := range a {
			a[i] = float64(rng.Intn(21) - 10)
			b[i] = float64(rng.Intn(21) - 10)
			want += a[i] * b[i]
		}

		got, err := NewSharedVector(a, RowMajor).Dot(NewSharedVector(b, ColumnMajor))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSharedVectorVecMatMul(t *testing.T) {
	m, err := NewSharedMatrixFrom([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	v := NewSharedVector([]float64{1, 2, 3}, RowMajor)
	require.NoError(t, v.VecMatMul(m))
	assert.Equal(t, []float64{22, 28}, v.Values())
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, RowMajor, v.Orientation())
}

func TestSharedVectorVecMatMulColumnMajorMatrix(t *testing.T) {
	m := NewSharedMatrix()
	// columns [1,3,5] and [2,4,6] form the same matrix as above
	require.NoError(t, m.LoadColumnMajor([][]float64{{1, 3, 5}, {2, 4, 6}}))

	v := NewSharedVector([]float64{1, 2, 3}, RowMajor)
	require.NoError(t, v.VecMatMul(m))
	assert.Equal(t, []float64{22, 28}, v.Values())
}

func TestSharedVectorVecMatMulErrors(t *testing.T) {
	m, err := NewSharedMatrixFrom([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	col := NewSharedVector([]float64{1, 2, 3}, ColumnMajor)
	err = col.VecMatMul(m)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidOperand), "got %v", err)

	short := NewSharedVector([]float64{1, 2}, RowMajor)
	err = short.VecMatMul(m)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDimensionMismatch), "got %v", err)
	assert.Equal(t, []float64{1, 2}, short.Values())
}

// Row-disjoint adds against a shared right operand, the access pattern of an
// Add step, must neither deadlock nor lose updates.
func TestSharedVectorConcurrentRowDisjointAdd(t *testing.T) {
	const (
		rows   = 64
		cols   = 16
		rounds = 25
	)

	left := make([]*SharedVector, rows)
	right := make([]*SharedVector, rows)
	for i := 0; i < rows; i++ {
		left[i] = NewSharedVector(make([]float64, cols), RowMajor)
		ones := make([]float64, cols)
		for j := range ones {
			ones[j] = float64(i + 1)
		}
		right[i] = NewSharedVector(ones, RowMajor)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for r := 0; r < rounds; r++ {
			for i := 0; i < rows; i++ {
				wg.Add(1)
				go func(i int, seed int64) {
					defer wg.Done()
					rng := rand.New(rand.NewSource(seed))
					time.Sleep(time.Duration(rng.Intn(200)) * time.Microsecond)
					assert.NoError(t, left[i].Add(right[i]))
					// concurrent readers of the shared operand
					_, _ = right[(i+1)%rows].Get(0)
				}(i, int64(r*rows+i))
			}
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("concurrent adds did not finish, possible deadlock")
	}

	for i := 0; i < rows; i++ {
		for j, got := range left[i].Values() {
			require.Equalf(t, float64(rounds*(i+1)), got, "row %d col %d lost an update", i, j)
		}
	}
}
