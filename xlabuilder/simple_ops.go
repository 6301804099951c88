package xlabuilder

// Neg returns -x, element-wise.
func Neg(x *Op) (*Op, error) { return addOpOf(NegOp, nil, x) }

// Abs returns |x|, element-wise. Not defined for complex numbers.
func Abs(x *Op) (*Op, error) { return addOpOf(AbsOp, nil, x) }

// Not returns the logical (booleans) or bitwise (integers) negation of x.
func Not(x *Op) (*Op, error) { return addOpOf(NotOp, nil, x) }

// Add returns lhs+rhs, element-wise. One of the operands can be a scalar, in which case it is broadcast.
func Add(lhs, rhs *Op) (*Op, error) { return addOpOf(AddOp, nil, lhs, rhs) }

// Sub returns lhs-rhs, element-wise.
func Sub(lhs, rhs *Op) (*Op, error) { return addOpOf(SubOp, nil, lhs, rhs) }

// Mul returns lhs*rhs, element-wise.
func Mul(lhs, rhs *Op) (*Op, error) { return addOpOf(MulOp, nil, lhs, rhs) }

// Div returns lhs/rhs, element-wise. Integer division by zero is an execution error.
func Div(lhs, rhs *Op) (*Op, error) { return addOpOf(DivOp, nil, lhs, rhs) }

// Max returns the element-wise maximum. NaNs are propagated.
func Max(lhs, rhs *Op) (*Op, error) { return addOpOf(MaxOp, nil, lhs, rhs) }

// Min returns the element-wise minimum. NaNs are propagated.
func Min(lhs, rhs *Op) (*Op, error) { return addOpOf(MinOp, nil, lhs, rhs) }

// And returns the logical (booleans) or bitwise (integers) and.
func And(lhs, rhs *Op) (*Op, error) { return addOpOf(AndOp, nil, lhs, rhs) }

// Or returns the logical (booleans) or bitwise (integers) or.
func Or(lhs, rhs *Op) (*Op, error) { return addOpOf(OrOp, nil, lhs, rhs) }

// Equal compares lhs == rhs, element-wise, and returns booleans.
func Equal(lhs, rhs *Op) (*Op, error) { return addOpOf(EqualOp, nil, lhs, rhs) }

// NotEqual compares lhs != rhs, element-wise, and returns booleans.
func NotEqual(lhs, rhs *Op) (*Op, error) { return addOpOf(NotEqualOp, nil, lhs, rhs) }

// GreaterThan compares lhs > rhs, element-wise, and returns booleans.
func GreaterThan(lhs, rhs *Op) (*Op, error) { return addOpOf(GreaterThanOp, nil, lhs, rhs) }

// GreaterOrEqual compares lhs >= rhs, element-wise, and returns booleans.
func GreaterOrEqual(lhs, rhs *Op) (*Op, error) { return addOpOf(GreaterOrEqualOp, nil, lhs, rhs) }

// LessThan compares lhs < rhs, element-wise, and returns booleans.
func LessThan(lhs, rhs *Op) (*Op, error) { return addOpOf(LessThanOp, nil, lhs, rhs) }

// LessOrEqual compares lhs <= rhs, element-wise, and returns booleans.
func LessOrEqual(lhs, rhs *Op) (*Op, error) { return addOpOf(LessOrEqualOp, nil, lhs, rhs) }
