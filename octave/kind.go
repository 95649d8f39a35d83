package octave

import "github.com/blink1073/octmat/mat"

// Dtype identifies the element type of an NDArray.
type Dtype uint8

const (
	Bool Dtype = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
)

var dtypeNames = [...]string{
	Bool:       "bool",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
}

func (d Dtype) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return "unknown"
}

// IsInteger reports whether the dtype is a signed or unsigned integer.
func (d Dtype) IsInteger() bool {
	return d >= Int8 && d <= Uint64
}

// IsComplex reports whether the dtype has an imaginary component.
func (d Dtype) IsComplex() bool {
	return d == Complex64 || d == Complex128
}

// class returns the MAT array class the dtype maps to. Bool maps to
// int8: logicals are narrowed before transport.
func (d Dtype) class() mat.Class {
	switch d {
	case Bool, Int8:
		return mat.ClassInt8
	case Int16:
		return mat.ClassInt16
	case Int32:
		return mat.ClassInt32
	case Int64:
		return mat.ClassInt64
	case Uint8:
		return mat.ClassUint8
	case Uint16:
		return mat.ClassUint16
	case Uint32:
		return mat.ClassUint32
	case Uint64:
		return mat.ClassUint64
	case Float32, Complex64:
		return mat.ClassSingle
	default:
		return mat.ClassDouble
	}
}
