package dtypes

import "fmt"

// DType is the element type of arrays, literals and buffers.
//
// The numbering follows the one used by XLA's PrimitiveType for the types this package supports.
type DType int32

const (
	// InvalidDType is used for tuples and unset values.
	InvalidDType DType = 0

	// Bool (XLA's PRED) is used as the output and input of logic operations.
	Bool DType = 1

	Int8  DType = 2
	Int16 DType = 3
	Int32 DType = 4
	Int64 DType = 5

	Uint8  DType = 6
	Uint16 DType = 7
	Uint32 DType = 8
	Uint64 DType = 9

	Float16 DType = 10
	Float32 DType = 11
	Float64 DType = 12

	Complex64  DType = 15
	Complex128 DType = 18
)

// XLA names, kept as aliases.
const (
	INVALID = InvalidDType
	PRED    = Bool
	S8      = Int8
	S16     = Int16
	S32     = Int32
	S64     = Int64
	U8      = Uint8
	U16     = Uint16
	U32     = Uint32
	U64     = Uint64
	F16     = Float16
	F32     = Float32
	F64     = Float64
	C64     = Complex64
	C128    = Complex128
)

var dtypeNames = map[DType]string{
	InvalidDType: "InvalidDType",
	Bool:         "Bool",
	Int8:         "Int8",
	Int16:        "Int16",
	Int32:        "Int32",
	Int64:        "Int64",
	Uint8:        "Uint8",
	Uint16:       "Uint16",
	Uint32:       "Uint32",
	Uint64:       "Uint64",
	Float16:      "Float16",
	Float32:      "Float32",
	Float64:      "Float64",
	Complex64:    "Complex64",
	Complex128:   "Complex128",
}

var primitiveNames = map[DType]string{
	InvalidDType: "invalid",
	Bool:         "pred",
	Int8:         "s8",
	Int16:        "s16",
	Int32:        "s32",
	Int64:        "s64",
	Uint8:        "u8",
	Uint16:       "u16",
	Uint32:       "u32",
	Uint64:       "u64",
	Float16:      "f16",
	Float32:      "f32",
	Float64:      "f64",
	Complex64:    "c64",
	Complex128:   "c128",
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if name, found := dtypeNames[dtype]; found {
		return name
	}
	return fmt.Sprintf("DType(%d)", int32(dtype))
}

// PrimitiveName returns the short lower-case name XLA uses when printing shapes, e.g. "f32" or "pred".
func (dtype DType) PrimitiveName() string {
	if name, found := primitiveNames[dtype]; found {
		return name
	}
	return fmt.Sprintf("dtype%d", int32(dtype))
}

// MapOfNames maps names (long Go names, XLA aliases and their lower-case versions) to DType.
var MapOfNames = map[string]DType{
	"InvalidDType": InvalidDType,
	"INVALID":      InvalidDType,
	"Bool":         Bool,
	"PRED":         Bool,
	"Int8":         Int8,
	"S8":           Int8,
	"Int16":        Int16,
	"S16":          Int16,
	"Int32":        Int32,
	"S32":          Int32,
	"Int64":        Int64,
	"S64":          Int64,
	"Uint8":        Uint8,
	"U8":           Uint8,
	"Uint16":       Uint16,
	"U16":          Uint16,
	"Uint32":       Uint32,
	"U32":          Uint32,
	"Uint64":       Uint64,
	"U64":          Uint64,
	"Float16":      Float16,
	"F16":          Float16,
	"Float32":      Float32,
	"F32":          Float32,
	"Float64":      Float64,
	"F64":          Float64,
	"Complex64":    Complex64,
	"C64":          Complex64,
	"Complex128":   Complex128,
	"C128":         Complex128,
}
