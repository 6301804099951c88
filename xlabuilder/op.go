package xlabuilder

import "fmt"

// Op holds information about an Op that is part of a computation being built with an XlaBuilder.
//
// Each operation (e.g: Add, Mul) will return an Op that represents both the operation itself as well as the output
// of that operation, which can be used as input of another.
//
// While the public fields can be introspected, they shouldn't be changed.
type Op struct {
	builder *XlaBuilder

	// Id is the position of the op in the builder.
	Id int

	Type     OpType
	OpInputs []*Op

	// Shape of the output of the op, inferred when the op is added to the builder.
	Shape Shape

	// Compact representation of the static arguments of the op. Which are used depend on the op type.
	Int        int
	Str        string
	IntsArg    []int
	ShapeArg   Shape
	LiteralArg *Literal
}

// newOp creates an Op of the given type and inputs, not yet added to a builder.
func newOp(opType OpType, inputs ...*Op) *Op {
	return &Op{Type: opType, OpInputs: inputs}
}

// Builder returns the XlaBuilder the op belongs to.
func (op *Op) Builder() *XlaBuilder {
	return op.builder
}

// String implements fmt.Stringer.
func (op *Op) String() string {
	if op == nil {
		return "Op<nil>"
	}
	return fmt.Sprintf("%s#%d:%s", op.Type, op.Id, op.Shape.HumanString())
}

// OpType enumerates the supported operations.
type OpType int

const (
	InvalidOp OpType = iota
	ParameterOp
	ConstantOp
	TupleOp
	GetTupleElementOp

	NegOp
	AbsOp
	NotOp

	AddOp
	SubOp
	MulOp
	DivOp
	MaxOp
	MinOp
	AndOp
	OrOp

	EqualOp
	NotEqualOp
	GreaterThanOp
	GreaterOrEqualOp
	LessThanOp
	LessOrEqualOp

	SelectOp
	TransposeOp
	ReshapeOp
	ConvertDTypeOp
)

var opTypeNames = [...]string{
	InvalidOp:         "Invalid",
	ParameterOp:       "Parameter",
	ConstantOp:        "Constant",
	TupleOp:           "Tuple",
	GetTupleElementOp: "GetTupleElement",
	NegOp:             "Neg",
	AbsOp:             "Abs",
	NotOp:             "Not",
	AddOp:             "Add",
	SubOp:             "Sub",
	MulOp:             "Mul",
	DivOp:             "Div",
	MaxOp:             "Max",
	MinOp:             "Min",
	AndOp:             "And",
	OrOp:              "Or",
	EqualOp:           "Equal",
	NotEqualOp:        "NotEqual",
	GreaterThanOp:     "GreaterThan",
	GreaterOrEqualOp:  "GreaterOrEqual",
	LessThanOp:        "LessThan",
	LessOrEqualOp:     "LessOrEqual",
	SelectOp:          "Select",
	TransposeOp:       "Transpose",
	ReshapeOp:         "Reshape",
	ConvertDTypeOp:    "ConvertDType",
}

// String implements fmt.Stringer.
func (t OpType) String() string {
	if t < 0 || int(t) >= len(opTypeNames) {
		return fmt.Sprintf("OpType(%d)", int(t))
	}
	return opTypeNames[t]
}

// hloNames are the instruction names used when rendering computations as text.
var hloNames = map[OpType]string{
	ParameterOp:       "parameter",
	ConstantOp:        "constant",
	TupleOp:           "tuple",
	GetTupleElementOp: "get-tuple-element",
	NegOp:             "negate",
	AbsOp:             "abs",
	NotOp:             "not",
	AddOp:             "add",
	SubOp:             "subtract",
	MulOp:             "multiply",
	DivOp:             "divide",
	MaxOp:             "maximum",
	MinOp:             "minimum",
	AndOp:             "and",
	OrOp:              "or",
	EqualOp:           "compare",
	NotEqualOp:        "compare",
	GreaterThanOp:     "compare",
	GreaterOrEqualOp:  "compare",
	LessThanOp:        "compare",
	LessOrEqualOp:     "compare",
	SelectOp:          "select",
	TransposeOp:       "transpose",
	ReshapeOp:         "reshape",
	ConvertDTypeOp:    "convert",
}

// compareDirections for the comparison ops, as rendered in text.
var compareDirections = map[OpType]string{
	EqualOp:          "EQ",
	NotEqualOp:       "NE",
	GreaterThanOp:    "GT",
	GreaterOrEqualOp: "GE",
	LessThanOp:       "LT",
	LessOrEqualOp:    "LE",
}

// IsComparison returns whether the op type is one of the element-wise comparisons, that output booleans.
func (t OpType) IsComparison() bool {
	_, found := compareDirections[t]
	return found
}

// IsBinaryElementWise returns whether the op type takes two operands of the same dtype, element-wise.
// It includes the comparisons.
func (t OpType) IsBinaryElementWise() bool {
	return (t >= AddOp && t <= OrOp) || t.IsComparison()
}

// IsUnaryElementWise returns whether the op type takes one operand, element-wise.
func (t OpType) IsUnaryElementWise() bool {
	return t == NegOp || t == AbsOp || t == NotOp
}
