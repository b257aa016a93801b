package jsexpr

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalSource(t *testing.T, source string, variables map[string]Value, functions map[string]Function) Value {
	t.Helper()
	result, err := NewEvaluator(variables, functions).Evaluate(source)
	require.NoError(t, err, "evaluating %q", source)
	return result
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"-10 % 3", -1},
		{"2 * -3", -6},
		{"+'12.5'", 12.5},
		{"+[]", 0},
		{"+[5]", 5},
		{"'6' * '7'", 42},
		{"true + true", 2},
		{"null + 1", 1},
		{"1e3 + .5", 1000.5},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, nil, nil)
			require.Equal(t, KindNumber, result.Kind())
			assert.Equal(t, tt.want, result.NumberValue())
		})
	}
}

// Arithmetic is total: it never errors, it produces NaN or infinities.
func TestArithmeticEdges(t *testing.T) {
	t.Run("division by zero", func(t *testing.T) {
		result := evalSource(t, "5 / 0", nil, nil)
		assert.True(t, math.IsInf(result.NumberValue(), 1))
	})
	t.Run("negative dividend", func(t *testing.T) {
		result := evalSource(t, "-5 / 0", nil, nil)
		assert.True(t, math.IsInf(result.NumberValue(), -1))
	})
	t.Run("division by negative zero", func(t *testing.T) {
		result := evalSource(t, "1 / -0", nil, nil)
		assert.True(t, math.IsInf(result.NumberValue(), -1))
	})
	t.Run("zero over zero", func(t *testing.T) {
		result := evalSource(t, "0 / 0", nil, nil)
		assert.True(t, math.IsNaN(result.NumberValue()))
	})
	t.Run("modulo by zero", func(t *testing.T) {
		result := evalSource(t, "5 % 0", nil, nil)
		assert.True(t, math.IsNaN(result.NumberValue()))
	})
	t.Run("string times number", func(t *testing.T) {
		result := evalSource(t, "'abc' * 2", nil, nil)
		assert.True(t, math.IsNaN(result.NumberValue()))
	})
	t.Run("object coerces to NaN", func(t *testing.T) {
		result := evalSource(t, "+{}", nil, nil)
		assert.True(t, math.IsNaN(result.NumberValue()))
	})
	t.Run("NaN propagates", func(t *testing.T) {
		for _, source := range []string{"NaN + 1", "NaN - 1", "NaN * 2", "NaN / 2", "NaN % 2", "-NaN"} {
			result := evalSource(t, source, nil, nil)
			assert.True(t, math.IsNaN(result.NumberValue()), "source %q", source)
		}
	})
	t.Run("negation preserves signed zero", func(t *testing.T) {
		result := evalSource(t, "-0", nil, nil)
		require.Equal(t, KindNumber, result.Kind())
		assert.True(t, math.Signbit(result.NumberValue()))
		result = evalSource(t, "-(-0)", nil, nil)
		assert.False(t, math.Signbit(result.NumberValue()))
	})
	t.Run("infinity string coercion", func(t *testing.T) {
		result := evalSource(t, "' Infinity ' * 1", nil, nil)
		assert.True(t, math.IsInf(result.NumberValue(), 1))
	})
}

func TestAddition(t *testing.T) {
	tests := []struct {
		source string
		want   Value
	}{
		{"1 + 2", Number(3)},
		{"'a' + 'b'", String("ab")},
		{"1 + '2'", String("12")},
		{"'' + null", String("null")},
		{"'' + true", String("true")},
		{"'' + []", String("")},
		{"'' + [1, 2]", String("1,2")},
		{"'' + {}", String("[object Object]")},
		{"'n=' + 1.5", String("n=1.5")},
		{"true + null", Number(1)},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, nil, nil)
			assert.True(t, result.StrictEquals(tt.want), "got %s, want %s", result.ToString(), tt.want.ToString())
		})
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"'a' < 'b'", true},
		{"'b' >= 'a'", true},
		{"'10' < '9'", true}, // both strings: lexicographic
		{"'10' < 9", false},  // mixed: numeric
		{"true > 0", true},
		{"NaN < 1", false},
		{"NaN > 1", false},
		{"NaN <= NaN", false},
		{"1 <= 'x'", false},
		{"-Infinity < Infinity", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, nil, nil)
			require.Equal(t, KindBool, result.Kind())
			assert.Equal(t, tt.want, result.BoolValue())
		})
	}
}

func TestEqualityOperators(t *testing.T) {
	vars := map[string]Value{
		"a":   Bool(true),
		"arr": Array(Number(1), Number(2)),
	}
	tests := []struct {
		source string
		want   bool
	}{
		{"NaN == NaN", false},
		{"NaN === NaN", false},
		{"NaN != NaN", true},
		{"NaN !== NaN", true},
		{"0 === -0", true},
		{"1 == '1'", true},
		{"1 === '1'", false},
		{"a == 1", true},
		{"a === 1", false},
		{"a === true", true},
		{"null == null", true},
		{"undefined == null", true},
		{"null == 0", false},
		{"null == false", false},
		{"arr == '1,2'", true},
		{"arr === '1,2'", false},
		{"[] == 0", true},
		{"[] === []", true}, // deep structural equality, not reference identity
		{"[1] === [1]", true},
		{"[1] !== [2]", true},
		{"1 == 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, vars, nil)
			require.Equal(t, KindBool, result.Kind())
			assert.Equal(t, tt.want, result.BoolValue())
		})
	}
}

// Logical operators return the deciding operand itself, not a coerced
// boolean.
func TestLogicalOperators(t *testing.T) {
	tests := []struct {
		source string
		want   Value
	}{
		{"0 || 'default'", String("default")},
		{"'value' || 'default'", String("value")},
		{"'' || 0", Number(0)},
		{"1 && 2", Number(2)},
		{"0 && 2", Number(0)},
		{"null && x", Null()},
		{"[] && 'yes'", String("yes")},
		{"false || null", Null()},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, nil, nil)
			assert.True(t, result.StrictEquals(tt.want), "got %s", result.ToString())
		})
	}
}

// In a && b, when a is falsy b must not be evaluated; observable through a
// counting host function.
func TestShortCircuit(t *testing.T) {
	calls := 0
	functions := map[string]Function{
		"count": FuncOf("count", func(args []Value) (Value, error) {
			calls++
			return Number(float64(calls)), nil
		}),
	}
	eval := NewEvaluator(nil, functions)

	_, err := eval.Evaluate("false && count()")
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	_, err = eval.Evaluate("true || count()")
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	_, err = eval.Evaluate("true && count()")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// The unchosen conditional branch is not evaluated either.
	result, err := eval.Evaluate("false ? count() : 'skipped'")
	require.NoError(t, err)
	assert.Equal(t, "skipped", result.StringValue())
	assert.Equal(t, 1, calls)
}

func TestConditional(t *testing.T) {
	result := evalSource(t, "{} ? 'y' : 'n'", nil, nil)
	assert.Equal(t, "y", result.StringValue())

	result = evalSource(t, "score > 90 ? 'A' : score > 80 ? 'B' : 'C'",
		map[string]Value{"score": Number(85)}, nil)
	assert.Equal(t, "B", result.StringValue())
}

func TestMemberAccess(t *testing.T) {
	vars := map[string]Value{
		"arr": Array(Number(1), Number(2), Number(3)),
		"obj": Object(map[string]Value{"name": String("Ada"), "age": Number(36)}),
		"s":   String("héllo"),
	}
	tests := []struct {
		source string
		want   Value
	}{
		{"arr.length", Number(3)},
		{"[].length", Number(0)},
		{"obj.name", String("Ada")},
		{"obj.missing", Null()}, // missing keys collapse to null
		{"{}.anything", Null()},
		{"s.length", Number(5)},
		{"'😀'.length", Number(2)}, // UTF-16 code units
		{"''.length", Number(0)},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, vars, nil)
			assert.True(t, result.StrictEquals(tt.want), "got %s", result.ToString())
		})
	}
}

func TestBuiltinMethods(t *testing.T) {
	vars := map[string]Value{
		"arr":   Array(Number(1), Number(2), Number(3)),
		"obj":   Object(map[string]Value{"k": Null(), "1": String("one")}),
		"empty": Array(),
	}
	tests := []struct {
		source string
		want   bool
	}{
		{"arr.includes(2)", true},
		{"arr.includes(4)", false},
		{"arr.includes('2')", false}, // strict, no coercion
		{"[NaN].includes(NaN)", true},
		{"[0].includes(-0)", true},
		{"empty.includes(null)", false},
		{"obj.hasOwnProperty('k')", true},
		{"obj.hasOwnProperty('missing')", false},
		{"obj.hasOwnProperty(1)", true}, // key coerced via ToString
		{"{}.hasOwnProperty('a')", false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			result := evalSource(t, tt.source, vars, nil)
			require.Equal(t, KindBool, result.Kind())
			assert.Equal(t, tt.want, result.BoolValue())
		})
	}
}

func TestHostFunctions(t *testing.T) {
	functions := map[string]Function{
		"add": FuncOf("add", func(args []Value) (Value, error) {
			if len(args) != 2 {
				return Null(), &ArityError{Expected: 2, Got: len(args)}
			}
			return Number(args[0].ToNumber() + args[1].ToNumber()), nil
		}),
		"concat": FuncOf("concat", func(args []Value) (Value, error) {
			out := ""
			for _, a := range args {
				out += a.ToString()
			}
			return String(out), nil
		}),
	}

	result := evalSource(t, "add(1, 2) * 10", nil, functions)
	assert.Equal(t, float64(30), result.NumberValue())

	// Arguments are evaluated left to right.
	result = evalSource(t, "concat('a', 1 + 1, 'c')", nil, functions)
	assert.Equal(t, "a2c", result.StringValue())

	// A failing host function surfaces as a CustomFunction error wrapping
	// the function's own error.
	_, err := NewEvaluator(nil, functions).Evaluate("add(1)")
	var customErr *CustomFunctionError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, "add", customErr.Name)
	var arityErr *ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, 2, arityErr.Expected)
	assert.Equal(t, 1, arityErr.Got)
}

func TestEvaluationErrors(t *testing.T) {
	vars := map[string]Value{"n": Number(5), "s": String("x")}

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("missing + 1")
		var idErr *UnknownIdentifierError
		require.ErrorAs(t, err, &idErr)
		assert.Equal(t, "missing", idErr.Name)
	})

	t.Run("unknown property", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("n.foo")
		var propErr *UnknownPropertyError
		require.ErrorAs(t, err, &propErr)
		assert.Equal(t, KindNumber, propErr.Receiver)
		assert.Equal(t, "foo", propErr.Name)
	})

	t.Run("array property is not an object key", func(t *testing.T) {
		_, err := NewEvaluator(nil, nil).Evaluate("[].foo")
		var propErr *UnknownPropertyError
		require.ErrorAs(t, err, &propErr)
		assert.Equal(t, KindArray, propErr.Receiver)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("s.trim()")
		var methodErr *UnknownMethodError
		require.ErrorAs(t, err, &methodErr)
		assert.Equal(t, KindString, methodErr.Receiver)
		assert.Equal(t, "trim", methodErr.Name)
	})

	t.Run("includes on an object", func(t *testing.T) {
		_, err := NewEvaluator(nil, nil).Evaluate("{}.includes(1)")
		var methodErr *UnknownMethodError
		require.ErrorAs(t, err, &methodErr)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("nope(1)")
		var fnErr *UnknownFunctionError
		require.ErrorAs(t, err, &fnErr)
		assert.Equal(t, "nope", fnErr.Name)
	})

	t.Run("non-callable callee", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("5(1)")
		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
	})

	t.Run("array element errors stop evaluation", func(t *testing.T) {
		_, err := NewEvaluator(vars, nil).Evaluate("[missing].length")
		var idErr *UnknownIdentifierError
		require.ErrorAs(t, err, &idErr)
	})
}

// Specials resolve before the variable context: a variable named NaN can
// never shadow the numeric NaN.
func TestSpecialIdentifiers(t *testing.T) {
	vars := map[string]Value{"NaN": String("shadow")}

	result := evalSource(t, "NaN", vars, nil)
	require.Equal(t, KindNumber, result.Kind())
	assert.True(t, math.IsNaN(result.NumberValue()))

	result = evalSource(t, "Infinity", nil, nil)
	assert.True(t, math.IsInf(result.NumberValue(), 1))

	result = evalSource(t, "undefined", nil, nil)
	assert.True(t, result.IsNull())
}

func TestStringEscapesResolvedAtParseTime(t *testing.T) {
	result := evalSource(t, `'line1\nline2'`, nil, nil)
	assert.Equal(t, "line1\nline2", result.StringValue())
}

func TestGroupTransparency(t *testing.T) {
	result := evalSource(t, "(((1 + 2))) * (3)", nil, nil)
	assert.Equal(t, float64(9), result.NumberValue())
}

func TestArrayLiteralEvaluation(t *testing.T) {
	result := evalSource(t, "[1, 1 + 1, 'x']", nil, nil)
	require.Equal(t, KindArray, result.Kind())
	require.Len(t, result.Elems(), 3)
	assert.Equal(t, float64(2), result.Elems()[1].NumberValue())
}

// Determinism: evaluating the same tree against the same environment twice
// yields strictly equal results.
func TestDeterminism(t *testing.T) {
	vars := map[string]Value{"x": Number(3), "s": String("a")}
	sources := []string{
		"x * x + 1",
		"s + x",
		"x > 2 ? [x, s] : {}",
		"[1, 2, 3].includes(x)",
	}
	eval := NewEvaluator(vars, nil)
	for _, source := range sources {
		tree, err := Parse(source)
		require.NoError(t, err)
		first, err := eval.EvaluateTree(tree)
		require.NoError(t, err)
		second, err := eval.EvaluateTree(tree)
		require.NoError(t, err)
		assert.True(t, first.StrictEquals(second), "source %q", source)
	}
}

func TestFunctionDiagnosticIdentity(t *testing.T) {
	fn := FuncOf("uppercase", func(args []Value) (Value, error) {
		return Null(), errors.New("boom")
	})
	assert.Equal(t, "uppercase", fmt.Sprint(fn))
	assert.Equal(t, "uppercase", FunctionName(fn))

	bare := FunctionFunc(func(args []Value) (Value, error) { return Null(), nil })
	assert.Equal(t, "jsexpr.FunctionFunc", FunctionName(bare))
}

// The rule-engine scenario from the package documentation.
func TestRuleEngineScenario(t *testing.T) {
	vars := map[string]Value{
		"user_age":    Number(30),
		"user_status": String("active"),
	}
	result := evalSource(t, "user_age >= 18 && user_status === 'active'", vars, nil)
	require.Equal(t, KindBool, result.Kind())
	assert.True(t, result.BoolValue())
}
