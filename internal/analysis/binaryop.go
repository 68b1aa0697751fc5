package analysis

import "github.com/shinyvision/ward/internal/types"

// binaryResult implements BinaryOperatorFlagVisitor:
// given an operator spelling and both operand unions, returns the
// native result type. Operands themselves are collapsed to the native
// category that matters for arithmetic/string/comparison purposes —
// any class-typed operand is treated as neither, since no native
// coercion table entry applies to it.
func binaryResult(op string, left, right types.UnionType) types.Native {
	switch op {
	case "+", "-", "*", "/", "%", "**":
		if isFloaty(left) || isFloaty(right) {
			return types.NativeFloat
		}
		if op == "/" {
			return types.NativeFloat
		}
		return types.NativeInt
	case ".":
		return types.NativeString
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "<>", "<=>":
		return types.NativeBool
	case "&&", "||", "and", "or", "xor":
		return types.NativeBool
	case "&", "|", "^", "<<", ">>":
		return types.NativeInt
	case "??":
		return types.NativeMixed
	default:
		return types.NativeMixed
	}
}

func isFloaty(u types.UnionType) bool {
	for _, t := range u.Types() {
		if t.IsNative() && t.Native() == types.NativeFloat {
			return true
		}
	}
	return false
}

// isArrayOperand reports whether any member of u is array-shaped
// (native array or generic array), used to flag the invalid-operator
// case calls out for string concat / arithmetic against
// an array operand.
func isArrayOperand(u types.UnionType) bool {
	for _, t := range u.Types() {
		if t.IsGenericArray() || (t.IsNative() && t.Native() == types.NativeArray) {
			return true
		}
	}
	return false
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "<>", "<=>":
		return true
	}
	return false
}
