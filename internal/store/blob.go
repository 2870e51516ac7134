package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// float64Size is the width of one encoded sample.
const float64Size = 8

// EncodeFloats serializes values as a raw array of little-endian IEEE-754
// float64s. There is no header, delimiter or compression, so the blob is
// exactly 8*len(values) bytes.
func EncodeFloats(values []float64) []byte {
	buf := make([]byte, len(values)*float64Size)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*float64Size:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloats is the inverse of EncodeFloats. A blob whose length is not a
// multiple of 8 returns ErrCorruptBlob.
func DecodeFloats(blob []byte) ([]float64, error) {
	if len(blob)%float64Size != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrCorruptBlob, len(blob), float64Size)
	}
	values := make([]float64, len(blob)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*float64Size:]))
	}
	return values, nil
}
