package memory

import (
	"sync"

	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/pool"
)

// SharedVector is a lock-protected 1-D float64 buffer tagged with an orientation.
// The lock guards both the payload and the orientation tag.
type SharedVector struct {
	mu          sync.RWMutex
	data        []float64
	orientation Orientation
}

// NewSharedVector creates a vector holding a copy of data.
func NewSharedVector(data []float64, orientation Orientation) *SharedVector {
	buf := make([]float64, len(data))
	copy(buf, data)
	return &SharedVector{data: buf, orientation: orientation}
}

// Get returns the element at index i.
func (v *SharedVector) Get(i int) (float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if i < 0 || i >= len(v.data) {
		return 0, errors.Newf(errors.ErrorTypeIndexOutOfRange, "index %d out of range [0,%d)", i, len(v.data))
	}
	return v.data[i], nil
}

// Len returns the number of elements.
func (v *SharedVector) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.data)
}

// Orientation returns the current orientation tag.
func (v *SharedVector) Orientation() Orientation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.orientation
}

// Values returns a copy of the payload.
func (v *SharedVector) Values() []float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// Add adds other into v elementwise. Both vectors must have the same
// orientation and length. other is read-locked before v is write-locked.
func (v *SharedVector) Add(other *SharedVector) error {
	if other == v {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i := range v.data {
			v.data[i] += v.data[i]
		}
		return nil
	}

	other.mu.RLock()
	defer other.mu.RUnlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.orientation != other.orientation {
		return errors.Newf(errors.ErrorTypeInvalidOperand,
			"cannot add %s vector to %s vector", other.orientation, v.orientation)
	}
	if len(v.data) != len(other.data) {
		return errors.Newf(errors.ErrorTypeDimensionMismatch,
			"cannot add vectors of length %d and %d", len(v.data), len(other.data))
	}

	for i := range v.data {
		v.data[i] += other.data[i]
	}
	return nil
}

// Negate flips the sign of every element.
func (v *SharedVector) Negate() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.data {
		v.data[i] = -v.data[i]
	}
}

// Transpose flips the orientation tag. The payload is not reordered.
func (v *SharedVector) Transpose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orientation = v.orientation.Flip()
}

// Dot returns the sum of elementwise products of v and other. The vectors
// must have opposite orientations and equal length. v is read-locked first.
func (v *SharedVector) Dot(other *SharedVector) (float64, error) {
	if other == v {
		return 0, errors.New(errors.ErrorTypeInvalidOperand, "dot product of a vector with itself requires a transpose")
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	if v.orientation == other.orientation {
		return 0, errors.Newf(errors.ErrorTypeInvalidOperand,
			"dot product requires opposite orientations, both are %s", v.orientation)
	}
	if len(v.data) != len(other.data) {
		return 0, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"cannot take dot product of vectors of length %d and %d", len(v.data), len(other.data))
	}

	var sum float64
	for i := range v.data {
		sum += v.data[i] * other.data[i]
	}
	return sum, nil
}

// VecMatMul replaces v with the row vector v × m. v must be row-major and its
// length must equal the row count of m. The result has one element per column of m.
//
// m is snapshotted with ReadRowMajor before v is write-locked, so no lock on m
// is held while v is exclusively locked.
func (v *SharedVector) VecMatMul(m *SharedMatrix) error {
	if v.Orientation() != RowMajor {
		return errors.New(errors.ErrorTypeInvalidOperand, "vector must be row-major for vector-matrix multiplication")
	}

	rows, err := m.ReadRowMajor()
	if err != nil {
		return err
	}
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.orientation != RowMajor {
		return errors.New(errors.ErrorTypeInvalidOperand, "vector must be row-major for vector-matrix multiplication")
	}
	if len(v.data) != len(rows) {
		return errors.Newf(errors.ErrorTypeDimensionMismatch,
			"vector length %d does not match matrix row count %d", len(v.data), len(rows))
	}

	result := pool.GetRow(cols)
	for i, x := range v.data {
		for j, y := range rows[i] {
			result[j] += x * y
		}
	}

	pool.PutRow(v.data)
	v.data = result
	return nil
}
