package parser

import (
	"fmt"
	"math"

	"github.com/tealdb/tealdb/internal/types"
)

// Binding maps a column name (possibly table-qualified) to its value.
// Columns that are NULL in the source row are absent from the binding.
type Binding = map[string]types.Value

// Expression is the closed set of evaluable nodes: Literal, Variable,
// Unary and Binary.
type Expression interface {
	// Evaluate resolves the node against a row binding.
	Evaluate(binding Binding) (types.Value, error)
	// StaticType is the type known without evaluating; variables report
	// TypeUnknown because their column type is not visible here.
	StaticType() types.Type

	exprNode()
}

type Literal struct {
	Value types.Value
}

func (e *Literal) exprNode() {}

func (e *Literal) Evaluate(Binding) (types.Value, error) { return e.Value, nil }

func (e *Literal) StaticType() types.Type { return e.Value.Kind() }

type Variable struct {
	Name string
}

func (e *Variable) exprNode() {}

func (e *Variable) Evaluate(binding Binding) (types.Value, error) {
	v, ok := binding[e.Name]
	if !ok {
		return types.Value{}, fmt.Errorf("column not found: %s", e.Name)
	}
	if v.IsNull() {
		return types.Value{}, fmt.Errorf("NULL value for column: %s", e.Name)
	}
	return v, nil
}

func (e *Variable) StaticType() types.Type { return types.TypeUnknown }

type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryLength
)

type Unary struct {
	Op      UnaryOp
	Operand Expression
}

func (e *Unary) exprNode() {}

func (e *Unary) Evaluate(binding Binding) (types.Value, error) {
	val, err := e.Operand.Evaluate(binding)
	if err != nil {
		return types.Value{}, err
	}
	switch e.Op {
	case UnaryNot:
		b, err := val.AsBool()
		if err != nil {
			return types.Value{}, fmt.Errorf("operator '!' requires bool type")
		}
		return types.NewBool(!b), nil
	case UnaryLength:
		n, err := val.Length()
		if err != nil {
			return types.Value{}, fmt.Errorf("operator '|var|' requires string or bytes type")
		}
		return types.NewInt(int32(n)), nil
	default:
		return types.Value{}, fmt.Errorf("unknown unary operator")
	}
}

func (e *Unary) StaticType() types.Type {
	switch e.Op {
	case UnaryNot:
		return types.TypeBool
	case UnaryLength:
		return types.TypeInt32
	default:
		return types.TypeUnknown
	}
}

type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryEqual
	BinaryNotEqual
	BinaryAnd
	BinaryOr
	BinaryXor
)

type Binary struct {
	Op          BinaryOp
	Left, Right Expression
}

func (e *Binary) exprNode() {}

func (e *Binary) Evaluate(binding Binding) (types.Value, error) {
	left, err := e.Left.Evaluate(binding)
	if err != nil {
		return types.Value{}, err
	}
	right, err := e.Right.Evaluate(binding)
	if err != nil {
		return types.Value{}, err
	}

	switch e.Op {
	case BinaryAdd:
		if left.Kind() == types.TypeString && right.Kind() == types.TypeString {
			ls, _ := left.AsString()
			rs, _ := right.AsString()
			return types.NewString(ls + rs), nil
		}
		return intArithmetic("+", left, right, func(a, b int64) (int64, error) {
			return a + b, nil
		})
	case BinarySubtract:
		return intArithmetic("-", left, right, func(a, b int64) (int64, error) {
			return a - b, nil
		})
	case BinaryMultiply:
		return intArithmetic("*", left, right, func(a, b int64) (int64, error) {
			return a * b, nil
		})
	case BinaryDivide:
		return intArithmetic("/", left, right, func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		})
	case BinaryModulo:
		return intArithmetic("%", left, right, func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			return a % b, nil
		})

	case BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual, BinaryEqual, BinaryNotEqual:
		cmp, err := types.Compare(left, right)
		if err != nil {
			return types.Value{}, err
		}
		switch e.Op {
		case BinaryLess:
			return types.NewBool(cmp < 0), nil
		case BinaryLessEqual:
			return types.NewBool(cmp <= 0), nil
		case BinaryGreater:
			return types.NewBool(cmp > 0), nil
		case BinaryGreaterEqual:
			return types.NewBool(cmp >= 0), nil
		case BinaryEqual:
			return types.NewBool(cmp == 0), nil
		default:
			return types.NewBool(cmp != 0), nil
		}

	case BinaryAnd, BinaryOr, BinaryXor:
		lb, lerr := left.AsBool()
		rb, rerr := right.AsBool()
		if lerr != nil || rerr != nil {
			return types.Value{}, fmt.Errorf("operator '%s' requires bool types", logicalOpName(e.Op))
		}
		switch e.Op {
		case BinaryAnd:
			return types.NewBool(lb && rb), nil
		case BinaryOr:
			return types.NewBool(lb || rb), nil
		default:
			return types.NewBool(lb != rb), nil
		}

	default:
		return types.Value{}, fmt.Errorf("unknown binary operator")
	}
}

func (e *Binary) StaticType() types.Type {
	switch e.Op {
	case BinaryAdd, BinarySubtract, BinaryMultiply, BinaryDivide, BinaryModulo:
		return types.TypeInt32
	default:
		return types.TypeBool
	}
}

func logicalOpName(op BinaryOp) string {
	switch op {
	case BinaryAnd:
		return "&&"
	case BinaryOr:
		return "||"
	default:
		return "^^"
	}
}

// intArithmetic applies op over int64 so that int32 overflow is detected
// instead of wrapping.
func intArithmetic(name string, left, right types.Value, op func(a, b int64) (int64, error)) (types.Value, error) {
	li, lerr := left.AsInt()
	ri, rerr := right.AsInt()
	if lerr != nil || rerr != nil {
		return types.Value{}, fmt.Errorf("operator '%s' not supported for given types", name)
	}
	res, err := op(int64(li), int64(ri))
	if err != nil {
		return types.Value{}, err
	}
	if res < math.MinInt32 || res > math.MaxInt32 {
		return types.Value{}, fmt.Errorf("int32 overflow in operator '%s'", name)
	}
	return types.NewInt(int32(res)), nil
}
