package memory

// Orientation describes how a vector is laid out within its matrix.
type Orientation int

const (
	// RowMajor vectors are horizontal slices; their index is a column position.
	RowMajor Orientation = iota
	// ColumnMajor vectors are vertical slices; their index is a row position.
	ColumnMajor
)

// String implements fmt.Stringer.
func (o Orientation) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return "unknown"
	}
}

// Flip returns the opposite orientation.
func (o Orientation) Flip() Orientation {
	if o == RowMajor {
		return ColumnMajor
	}
	return RowMajor
}
