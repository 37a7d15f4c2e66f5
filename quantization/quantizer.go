package quantization

import (
	"fmt"
	"math"

	"github.com/arrowhead-dev/hybridsearch/metric"
)

// Kind names a vector storage encoding.
type Kind string

const (
	// Float32 stores each dimension as a native 4-byte IEEE-754 float, no loss.
	Float32 Kind = "float32"
	// Float16 stores each dimension as a 2-byte IEEE-754 binary16 float.
	Float16 Kind = "float16"
	// Int8 stores each dimension as a signed byte via a per-vector affine mapping.
	Int8 Kind = "int8"
)

// Encoded is the result of quantizing a single vector: the packed bytes plus
// whatever side information (scale/offset) is needed to decode it again.
// Float32 and Float16 encodings carry no side information.
type Encoded struct {
	Kind   Kind
	Data   []byte
	Scale  float32
	Offset float32
}

// Encode quantizes v according to kind.
func Encode(kind Kind, v []float32) (Encoded, error) {
	switch kind {
	case Float32, "":
		return Encoded{Kind: Float32, Data: EncodeFloat32(v)}, nil
	case Float16:
		return Encoded{Kind: Float16, Data: EncodeFloat16(v)}, nil
	case Int8:
		data, scale, offset := EncodeInt8(v)
		return Encoded{Kind: Int8, Data: data, Scale: scale, Offset: offset}, nil
	default:
		return Encoded{}, fmt.Errorf("quantization: unknown kind %q", kind)
	}
}

// Decode reconstructs a float32 vector from an Encoded value.
func Decode(e Encoded) ([]float32, error) {
	switch e.Kind {
	case Float32, "":
		return DecodeFloat32(e.Data), nil
	case Float16:
		return DecodeFloat16(e.Data), nil
	case Int8:
		return DecodeInt8(e.Data, e.Scale, e.Offset), nil
	default:
		return nil, fmt.Errorf("quantization: unknown kind %q", e.Kind)
	}
}

// Dot computes the dot product of two encoded vectors. When both are
// Int8, it accumulates over the quantized bytes directly instead of
// decoding first; every other pairing (including a mismatched Int8/
// Float16 pair) falls back to decoding both sides and taking their
// float32 dot product.
func (e Encoded) Dot(other Encoded) (float32, error) {
	if e.Kind == Int8 && other.Kind == Int8 {
		return dotInt8(e, other), nil
	}

	av, err := Decode(e)
	if err != nil {
		return 0, err
	}

	bv, err := Decode(other)
	if err != nil {
		return 0, err
	}

	if len(av) != len(bv) {
		return 0, metric.ErrDimensionMismatch
	}

	return metric.Dot(av, bv), nil
}

// dotInt8 expands dot(decode(a), decode(b)) into a sum over the raw
// quantized bytes plus three scalar correction terms, so the bulk of the
// work is a single int64 integer accumulation rather than per-dimension
// float32 multiplies.
func dotInt8(a, b Encoded) float32 {
	n := len(a.Data)
	if len(b.Data) < n {
		n = len(b.Data)
	}

	var cross int64
	var sumA, sumB int64
	for i := 0; i < n; i++ {
		qa := int64(int32(int8(a.Data[i])) + 128)
		qb := int64(int32(int8(b.Data[i])) + 128)
		cross += qa * qb
		sumA += qa
		sumB += qb
	}

	nf := float32(n)

	return a.Scale*b.Scale*float32(cross) +
		a.Scale*b.Offset*float32(sumA) +
		b.Scale*a.Offset*float32(sumB) +
		nf*a.Offset*b.Offset
}

// BytesPerDimension reports the storage cost per vector dimension for kind.
func BytesPerDimension(kind Kind) int {
	switch kind {
	case Float16:
		return 2
	case Int8:
		return 1
	default:
		return 4
	}
}

// EncodeFloat32 packs v into little-endian 4-byte floats, one per dimension.
func EncodeFloat32(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		bits := math.Float32bits(f)
		out[i*4] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}

	return out
}

// DecodeFloat32 reconstructs a float32 vector from little-endian 4-byte floats.
func DecodeFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}

	return out
}
