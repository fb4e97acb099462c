package model

import (
	"fmt"
	"math"
	"reflect"
)

// DataType is the element type of a variable.
type DataType int

// The first six types exist in every NetCDF flavour; the rest are NetCDF-4
// and HDF5 extensions.
const (
	Invalid DataType = iota
	Byte             // int8
	Char             // uint8 text
	Short            // int16
	Int              // int32
	Float            // float32
	Double           // float64
	UByte            // uint8
	UShort           // uint16
	UInt             // uint32
	Int64            // int64
	UInt64           // uint64
)

var typeNames = map[DataType]string{
	Byte:   "byte",
	Char:   "char",
	Short:  "short",
	Int:    "int",
	Float:  "float",
	Double: "double",
	UByte:  "ubyte",
	UShort: "ushort",
	UInt:   "uint",
	Int64:  "int64",
	UInt64: "uint64",
}

// String returns the CDL name of the type.
func (t DataType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Classic reports whether the type exists in NetCDF classic files.
func (t DataType) Classic() bool {
	return t >= Byte && t <= Double
}

// TypeOf returns the DataType for a typed slice. []uint8 maps to UByte;
// callers that know a variable holds text use Char explicitly.
func TypeOf(data interface{}) (DataType, error) {
	switch data.(type) {
	case []int8:
		return Byte, nil
	case []uint8:
		return UByte, nil
	case []int16:
		return Short, nil
	case []uint16:
		return UShort, nil
	case []int32:
		return Int, nil
	case []uint32:
		return UInt, nil
	case []int64:
		return Int64, nil
	case []uint64:
		return UInt64, nil
	case []float32:
		return Float, nil
	case []float64:
		return Double, nil
	default:
		return Invalid, fmt.Errorf("%w: Go type %T", ErrUnsupported, data)
	}
}

// ParseGoType maps a Go element type name ("float32", "int16", ...) to a DataType.
func ParseGoType(name string) (DataType, error) {
	switch name {
	case "int8":
		return Byte, nil
	case "uint8":
		return UByte, nil
	case "int16":
		return Short, nil
	case "uint16":
		return UShort, nil
	case "int32":
		return Int, nil
	case "uint32":
		return UInt, nil
	case "int64":
		return Int64, nil
	case "uint64":
		return UInt64, nil
	case "float32":
		return Float, nil
	case "float64":
		return Double, nil
	default:
		return Invalid, fmt.Errorf("%w: element type %q", ErrUnsupported, name)
	}
}

// MakeSlice allocates a zeroed slice of n elements of type t.
func MakeSlice(t DataType, n int) (interface{}, error) {
	switch t {
	case Byte:
		return make([]int8, n), nil
	case Char, UByte:
		return make([]uint8, n), nil
	case Short:
		return make([]int16, n), nil
	case UShort:
		return make([]uint16, n), nil
	case Int:
		return make([]int32, n), nil
	case UInt:
		return make([]uint32, n), nil
	case Int64:
		return make([]int64, n), nil
	case UInt64:
		return make([]uint64, n), nil
	case Float:
		return make([]float32, n), nil
	case Double:
		return make([]float64, n), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, t)
	}
}

// Len returns the number of elements of a typed slice.
func Len(data interface{}) (int, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return 0, fmt.Errorf("expected a slice, got %T", data)
	}
	return v.Len(), nil
}

// CheckType verifies that data is a slice of type t with exactly n elements.
func CheckType(t DataType, data interface{}, n int) error {
	got, err := TypeOf(data)
	if err != nil {
		return err
	}
	if got != t && !(t == Char && got == UByte) {
		return fmt.Errorf("data type mismatch: variable is %v, data is %T", t, data)
	}
	l, _ := Len(data)
	if l != n {
		return fmt.Errorf("data length mismatch: expected %d elements, got %d", n, l)
	}
	return nil
}

// CopyInto copies src into dst starting at element offset. Both must be
// slices of the same Go type.
func CopyInto(dst interface{}, offset int, src interface{}) error {
	dv, sv := reflect.ValueOf(dst), reflect.ValueOf(src)
	if dv.Kind() != reflect.Slice || sv.Kind() != reflect.Slice {
		return fmt.Errorf("expected slices, got %T and %T", dst, src)
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("cannot copy %T into %T", src, dst)
	}
	if offset < 0 || offset+sv.Len() > dv.Len() {
		return fmt.Errorf("slab [%d, %d) out of range for %d elements",
			offset, offset+sv.Len(), dv.Len())
	}
	reflect.Copy(dv.Slice(offset, offset+sv.Len()), sv)
	return nil
}

// ToFloat64 converts any numeric slice to []float64.
func ToFloat64(data interface{}) ([]float64, error) {
	switch v := data.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a numeric slice, got %T", data)
	}
	out := make([]float64, rv.Len())
	for i := range out {
		e := rv.Index(i)
		switch e.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out[i] = float64(e.Int())
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			out[i] = float64(e.Uint())
		case reflect.Float32, reflect.Float64:
			out[i] = e.Float()
		default:
			return nil, fmt.Errorf("expected a numeric slice, got %T", data)
		}
	}
	return out, nil
}

// NormalizeAttribute converts an attribute value to the canonical form:
// a string, or a typed numeric slice. Numeric scalars become 1-element
// slices and []string values are joined with newlines.
func NormalizeAttribute(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []string:
		s := ""
		for i, e := range v {
			if i > 0 {
				s += "\n"
			}
			s += e
		}
		return s, nil
	case int8:
		return []int8{v}, nil
	case uint8:
		return []uint8{v}, nil
	case int16:
		return []int16{v}, nil
	case uint16:
		return []uint16{v}, nil
	case int32:
		return []int32{v}, nil
	case uint32:
		return []uint32{v}, nil
	case int64:
		return []int64{v}, nil
	case uint64:
		return []uint64{v}, nil
	case float32:
		return []float32{v}, nil
	case float64:
		return []float64{v}, nil
	case int:
		return []int64{int64(v)}, nil
	}
	if _, err := TypeOf(value); err != nil {
		return nil, fmt.Errorf("attribute value of type %T: %w", value, err)
	}
	return value, nil
}

// AttributeFloat64 returns the first element of a numeric attribute.
func AttributeFloat64(a Attribute) (float64, error) {
	if _, ok := a.Value.(string); ok {
		return 0, fmt.Errorf("attribute %q is text, not numeric", a.Name)
	}
	norm, err := NormalizeAttribute(a.Value)
	if err != nil {
		return 0, err
	}
	vals, err := ToFloat64(norm)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("attribute %q is empty", a.Name)
	}
	if math.IsNaN(vals[0]) {
		return 0, fmt.Errorf("attribute %q is NaN", a.Name)
	}
	return vals[0], nil
}
