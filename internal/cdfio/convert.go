package cdfio

import (
	"fmt"

	"github.com/ctessum/cdf"

	"github.com/scigolib/scalemerge/internal/model"
)

// bufferType returns the element type the library uses for variable name.
func bufferType(f *cdf.File, name string) (model.DataType, error) {
	switch z := f.Reader(name, nil, nil).Zero(0).(type) {
	case []int8, []uint8:
		return model.Byte, nil
	case string:
		return model.Char, nil
	case []int16:
		return model.Short, nil
	case []int32:
		return model.Int, nil
	case []float32:
		return model.Float, nil
	case []float64:
		return model.Double, nil
	default:
		return model.Invalid, fmt.Errorf("variable %q: %w: buffer %T", name, model.ErrUnsupported, z)
	}
}

// fromBuffer converts a buffer filled by the library into the model's
// slice type for dt.
func fromBuffer(dt model.DataType, buf interface{}) (interface{}, error) {
	switch b := buf.(type) {
	case []uint8:
		if dt == model.Char {
			return b, nil
		}
		out := make([]int8, len(b))
		for i, v := range b {
			out[i] = int8(v) //nolint:gosec // two's complement reinterpretation
		}
		return out, nil
	case []int8:
		if dt == model.Char {
			out := make([]uint8, len(b))
			for i, v := range b {
				out[i] = uint8(v) //nolint:gosec // two's complement reinterpretation
			}
			return out, nil
		}
		return b, nil
	case string:
		return []uint8(b), nil
	default:
		return buf, nil
	}
}

// toBuffer converts model data into the slice type the library expects,
// given a zero-length buffer of that type.
func toBuffer(zero, data interface{}) interface{} {
	switch zero.(type) {
	case []uint8:
		if b, ok := data.([]int8); ok {
			out := make([]uint8, len(b))
			for i, v := range b {
				out[i] = uint8(v) //nolint:gosec // two's complement reinterpretation
			}
			return out
		}
	case []int8:
		if b, ok := data.([]uint8); ok {
			out := make([]int8, len(b))
			for i, v := range b {
				out[i] = int8(v) //nolint:gosec // two's complement reinterpretation
			}
			return out
		}
	case string:
		if b, ok := data.([]uint8); ok {
			return string(b)
		}
	}
	return data
}

// sampleValue returns the value passed to Header.AddVariable to select
// the on-disk type.
func sampleValue(dt model.DataType) (interface{}, error) {
	switch dt {
	case model.Byte:
		return []uint8{0}, nil
	case model.Char:
		return "", nil
	case model.Short:
		return []int16{0}, nil
	case model.Int:
		return []int32{0}, nil
	case model.Float:
		return []float32{0}, nil
	case model.Double:
		return []float64{0}, nil
	default:
		return nil, fmt.Errorf("%w: %v is not a classic NetCDF type", model.ErrUnsupported, dt)
	}
}

// classicAttribute maps an attribute value onto the classic attribute
// types. Unsigned and 64-bit integers are widened, byte values become
// shorts.
func classicAttribute(value interface{}) (interface{}, error) {
	norm, err := model.NormalizeAttribute(value)
	if err != nil {
		return nil, err
	}

	switch v := norm.(type) {
	case string, []int16, []int32, []float32, []float64:
		return v, nil
	case []int8:
		out := make([]int16, len(v))
		for i, x := range v {
			out[i] = int16(x)
		}
		return out, nil
	case []uint8:
		out := make([]int16, len(v))
		for i, x := range v {
			out[i] = int16(x)
		}
		return out, nil
	case []uint16:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return out, nil
	default:
		return model.ToFloat64(v)
	}
}
