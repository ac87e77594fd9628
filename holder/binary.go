package holder

import "bytes"

// Binary is a mutable optional cell for binary resources. The zero value is
// empty.
type Binary struct {
	data    []byte
	present bool
}

// NewBinary returns a Binary holding data, or an empty one if data is nil.
func NewBinary(data []byte) Binary {
	var b Binary
	b.Set(data)
	return b
}

// Set stores data; nil empties the cell.
func (b *Binary) Set(data []byte) {
	b.data = data
	b.present = data != nil
}

// Clear empties the cell.
func (b *Binary) Clear() {
	b.data = nil
	b.present = false
}

// Get returns the data and whether it is present.
func (b Binary) Get() ([]byte, bool) {
	return b.data, b.present
}

// Bytes returns the data or nil.
func (b Binary) Bytes() []byte {
	return b.data
}

func (b Binary) IsPresent() bool {
	return b.present
}

func (b Binary) IsEmpty() bool {
	return !b.present
}

// IfPresent calls fn with the data if the cell is not empty.
func (b Binary) IfPresent(fn func(data []byte)) {
	if b.present {
		fn(b.data)
	}
}

// IfPresentOrElse calls fn with the data, or orElse if the cell is empty.
func (b Binary) IfPresentOrElse(fn func(data []byte), orElse func()) {
	if b.present {
		fn(b.data)
		return
	}
	orElse()
}

// Equal reports whether both cells are empty or hold equal bytes.
func (b Binary) Equal(other Binary) bool {
	return b.present == other.present && bytes.Equal(b.data, other.data)
}
