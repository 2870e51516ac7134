package store

import (
	"errors"
	"math"
	"testing"
)

func TestEncodeFloats_Layout(t *testing.T) {
	blob := EncodeFloats([]float64{1.0, -2.5})
	if len(blob) != 16 {
		t.Fatalf("len(EncodeFloats) = %d, want 16", len(blob))
	}
	// 1.0 is 0x3FF0000000000000; little-endian puts 0xF0 0x3F last.
	want := []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}
	for i, b := range want {
		if blob[i] != b {
			t.Fatalf("blob[%d] = %#x, want %#x", i, blob[i], b)
		}
	}
}

func TestDecodeFloats(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"empty", []float64{}, false},
		{"single", []float64{0}, false},
		{"special values", []float64{math.Inf(1), math.Inf(-1), math.MaxFloat64, -0.0}, false},
		{"many", []float64{0, 0.1, 0.2, 9.95, 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFloats(EncodeFloats(tt.values))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeFloats() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.values) {
				t.Fatalf("DecodeFloats() len = %d, want %d", len(got), len(tt.values))
			}
			for i := range got {
				if math.Float64bits(got[i]) != math.Float64bits(tt.values[i]) {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.values[i])
				}
			}
		})
	}
}

func TestDecodeFloats_NaNBitsPreserved(t *testing.T) {
	nan := math.Float64frombits(0x7FF8000000000001)
	got, err := DecodeFloats(EncodeFloats([]float64{nan}))
	if err != nil {
		t.Fatalf("DecodeFloats() error = %v", err)
	}
	if math.Float64bits(got[0]) != 0x7FF8000000000001 {
		t.Errorf("NaN payload changed: %#x", math.Float64bits(got[0]))
	}
}

func TestDecodeFloats_BadLength(t *testing.T) {
	for _, n := range []int{1, 7, 9, 15} {
		_, err := DecodeFloats(make([]byte, n))
		if !errors.Is(err, ErrCorruptBlob) {
			t.Errorf("DecodeFloats(%d bytes) error = %v, want ErrCorruptBlob", n, err)
		}
	}
}
