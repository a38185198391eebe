package common

import (
	"encoding/binary"
	"math"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Float32sToBytes serializes float32 values into a little-endian byte buffer suitable for GPU upload.
//
// Parameters:
//   - values: the floats to serialize
//
// Returns:
//   - []byte: a buffer of len(values)*4 bytes
func Float32sToBytes(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Uint16sToBytes serializes uint16 values into a little-endian byte buffer, zero padded up to
// the next multiple of 4 bytes because GPU buffer writes must be 4-byte aligned.
//
// Parameters:
//   - values: the indices to serialize
//
// Returns:
//   - []byte: a buffer of at least len(values)*2 bytes, rounded up to a multiple of 4
func Uint16sToBytes(values []uint16) []byte {
	buf := make([]byte, AlignUp(uint64(len(values))*2, 4))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// AlignUp rounds value up to the next multiple of alignment. Alignment must be a power of two.
func AlignUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}
