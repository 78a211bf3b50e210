package memory

import (
	"github.com/ajitpratap0/lae/pkg/errors"
)

// SharedMatrix is an ordered sequence of SharedVectors sharing one orientation.
//
// The vector sequence itself is not locked. LoadRowMajor and LoadColumnMajor
// replace it wholesale and must not overlap with any other use of the matrix.
type SharedMatrix struct {
	vectors []*SharedVector
}

// NewSharedMatrix creates an empty matrix.
func NewSharedMatrix() *SharedMatrix {
	return &SharedMatrix{}
}

// NewSharedMatrixFrom creates a matrix holding a row-major copy of data.
func NewSharedMatrixFrom(data [][]float64) (*SharedMatrix, error) {
	m := &SharedMatrix{}
	if err := m.LoadRowMajor(data); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadRowMajor replaces the contents of m with one row-major vector per row of data.
func (m *SharedMatrix) LoadRowMajor(data [][]float64) error {
	return m.load(data, RowMajor)
}

// LoadColumnMajor replaces the contents of m with one column-major vector per
// entry of data, so data[j] becomes column j of the matrix.
func (m *SharedMatrix) LoadColumnMajor(data [][]float64) error {
	return m.load(data, ColumnMajor)
}

func (m *SharedMatrix) load(data [][]float64, orientation Orientation) error {
	if _, _, err := Shape(data); err != nil {
		return err
	}

	vectors := make([]*SharedVector, len(data))
	for i, values := range data {
		vectors[i] = NewSharedVector(values, orientation)
	}
	m.vectors = vectors
	return nil
}

// Len returns the number of stored vectors.
func (m *SharedMatrix) Len() int {
	return len(m.vectors)
}

// Get returns the vector at index i.
func (m *SharedMatrix) Get(i int) (*SharedVector, error) {
	if i < 0 || i >= len(m.vectors) {
		return nil, errors.Newf(errors.ErrorTypeIndexOutOfRange, "vector index %d out of range [0,%d)", i, len(m.vectors))
	}
	return m.vectors[i], nil
}

// Orientation returns the orientation of the stored vectors. An empty matrix
// reports RowMajor.
func (m *SharedMatrix) Orientation() Orientation {
	if len(m.vectors) == 0 {
		return RowMajor
	}
	return m.vectors[0].Orientation()
}

// Dims returns the row and column counts of m as seen by ReadRowMajor.
func (m *SharedMatrix) Dims() (rows, cols int) {
	if len(m.vectors) == 0 {
		return 0, 0
	}
	n := m.vectors[0].Len()
	if m.Orientation() == ColumnMajor {
		return n, len(m.vectors)
	}
	return len(m.vectors), n
}

// ReadRowMajor returns a row-major copy of m. Read locks on all vectors are
// acquired together before any data is copied and released together after.
// Column-major storage is transposed into row-major form during the copy.
//
// A [][]float64 with no rows carries no width, so any matrix with zero rows
// reads back as an empty slice. In particular n column-major vectors of length
// 0, the transpose of an n x 0 matrix, read back as [] rather than 0 x n.
func (m *SharedMatrix) ReadRowMajor() ([][]float64, error) {
	vectors := m.vectors
	if len(vectors) == 0 {
		return [][]float64{}, nil
	}

	lockAllForRead(vectors)
	defer unlockAllForRead(vectors)

	orientation := vectors[0].orientation
	n := len(vectors[0].data)
	for i, vec := range vectors[1:] {
		if vec.orientation != orientation {
			return nil, errors.Newf(errors.ErrorTypeInvalidState,
				"vector %d is %s but vector 0 is %s", i+1, vec.orientation, orientation)
		}
		if len(vec.data) != n {
			return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
				"vector %d has length %d, expected %d", i+1, len(vec.data), n)
		}
	}

	if orientation == RowMajor {
		out := make([][]float64, len(vectors))
		for i, vec := range vectors {
			row := make([]float64, n)
			copy(row, vec.data)
			out[i] = row
		}
		return out, nil
	}

	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(vectors))
		for j, vec := range vectors {
			row[j] = vec.data[i]
		}
		out[i] = row
	}
	return out, nil
}

func lockAllForRead(vectors []*SharedVector) {
	for _, vec := range vectors {
		vec.mu.RLock()
	}
}

func unlockAllForRead(vectors []*SharedVector) {
	for _, vec := range vectors {
		vec.mu.RUnlock()
	}
}

// Shape returns the dimensions of a rectangular 2-D slice. An empty slice is 0x0.
func Shape(data [][]float64) (rows, cols int, err error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	cols = len(data[0])
	for i, row := range data {
		if len(row) != cols {
			return 0, 0, errors.Newf(errors.ErrorTypeDimensionMismatch,
				"row %d has %d elements, expected %d", i, len(row), cols)
		}
	}
	return len(data), cols, nil
}
