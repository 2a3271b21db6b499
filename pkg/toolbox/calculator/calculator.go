// Package calculator evaluates arithmetic expressions for the Calculator tool.
package calculator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/pkg/errors"
)

const (
	Name        = "Calculator"
	Description = "useful for when you need to answer questions about math"
	argHelp     = "An arithmetic expression such as '12 * 7', '(3 + 4) ^ 2' or 'sqrt(2) / 3'"
)

// ExpressionError reports an expression that could not be evaluated.
type ExpressionError struct {
	Expression string
	Reason     string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s", e.Expression, e.Reason)
}

var constants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

var unary = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"ln":    math.Log,
	"log":   math.Log10,
	"log10": math.Log10,
	"log2":  math.Log2,
	"exp":   math.Exp,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
}

var binary = map[string]func(float64, float64) float64{
	"pow": math.Pow,
	"min": math.Min,
	"max": math.Max,
}

// options builds the expr environment: the constants and the math functions
// above replace expr's builtins, so only arithmetic is reachable.
func options() []expr.Option {
	opts := []expr.Option{expr.Env(constants), expr.DisableAllBuiltins()}
	for name, fn := range unary {
		name, fn := name, fn
		opts = append(opts, expr.Function(name, func(params ...any) (any, error) {
			args, err := floatArgs(name, 1, params)
			if err != nil {
				return nil, err
			}
			return fn(args[0]), nil
		}))
	}
	for name, fn := range binary {
		name, fn := name, fn
		opts = append(opts, expr.Function(name, func(params ...any) (any, error) {
			args, err := floatArgs(name, 2, params)
			if err != nil {
				return nil, err
			}
			return fn(args[0], args[1]), nil
		}))
	}
	return opts
}

func floatArgs(name string, n int, params []any) ([]float64, error) {
	if len(params) != n {
		if n == 1 {
			return nil, errors.Errorf("%s takes one argument", name)
		}
		return nil, errors.Errorf("%s takes %d arguments", name, n)
	}
	out := make([]float64, n)
	for i, p := range params {
		v, ok := toFloat(p)
		if !ok {
			return nil, errors.Errorf("%s expects numbers, got %T", name, p)
		}
		out[i] = v
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// Evaluate computes the value of expr.
//
// Supported: numbers, + - * / %, ^ and ** for powers, parentheses, unary
// minus, the constants pi and e, and a handful of math functions.
func Evaluate(src string) (float64, error) {
	s := normalize(src)
	if s == "" {
		return 0, &ExpressionError{Expression: src, Reason: "empty expression"}
	}
	program, err := expr.Compile(s, options()...)
	if err != nil {
		return 0, &ExpressionError{Expression: src, Reason: firstLine(err.Error())}
	}
	out, err := expr.Run(program, constants)
	if err != nil {
		return 0, &ExpressionError{Expression: src, Reason: firstLine(err.Error())}
	}
	v, ok := toFloat(out)
	if !ok {
		return 0, &ExpressionError{Expression: src, Reason: fmt.Sprintf("result is not a number (%T)", out)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ExpressionError{Expression: src, Reason: "result is not a finite number"}
	}
	return v, nil
}

// normalize maps × and ÷ onto * and /, drops a trailing "=" and removes
// thousands separators.
func normalize(src string) string {
	s := strings.TrimSpace(src)
	s = strings.TrimSuffix(s, "=")
	s = strings.NewReplacer("×", "*", "÷", "/").Replace(s)
	return strings.TrimSpace(stripThousands(s))
}

// stripThousands drops a comma that sits between a digit and a group of
// exactly three digits, unless it is inside the parentheses of a function
// call, where commas separate arguments: "1,234,567" becomes "1234567" but
// "max(5,123)" is left alone.
func stripThousands(s string) string {
	rs := []rune(s)
	var b strings.Builder
	var calls []bool
	inIdent, lastIdent := false, false
	for i, r := range rs {
		switch {
		case r == '(':
			calls = append(calls, lastIdent)
		case r == ')':
			if n := len(calls); n > 0 {
				calls = calls[:n-1]
			}
		case r == ',':
			inCall := len(calls) > 0 && calls[len(calls)-1]
			if !inCall && i > 0 && unicode.IsDigit(rs[i-1]) && digitGroup(rs[i+1:]) {
				continue
			}
		}
		inIdent = unicode.IsLetter(r) || r == '_' || (inIdent && unicode.IsDigit(r))
		if !unicode.IsSpace(r) {
			lastIdent = inIdent
		}
		b.WriteRune(r)
	}
	return b.String()
}

func digitGroup(rs []rune) bool {
	if len(rs) < 3 {
		return false
	}
	for _, r := range rs[:3] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(rs) == 3 || !unicode.IsDigit(rs[3])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Format renders a result the way the tool reports it: integers without a
// decimal point, everything else in the shortest exact form.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Run evaluates expression and formats the result.
func Run(_ context.Context, expression string) (string, error) {
	v, err := Evaluate(expression)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// Tool returns the Calculator tool definition.
func Tool() tools.Definition {
	return tools.NewDefinition(Name, Description, argHelp, Run)
}
