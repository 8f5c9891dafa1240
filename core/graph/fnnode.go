package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Func is the native callable of a function node. It receives the declared
// inputs that were resolved; absent inputs are missing from args.
type Func func(ctx context.Context, args Args) (any, error)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()

	// anonymousFuncName matches the runtime name segment of closures: func1, func2 ...
	anonymousFuncName = regexp.MustCompile(`^func\d+$`)
)

// FnNode wraps a Go function. Its input ports are the parameter names
// declared next to it, and its outputs default to a single "output".
type FnNode struct {
	BaseNode

	fn       reflect.Value
	native   Func
	params   []string
	argTypes []reflect.Type

	takesContext bool
	returnsError bool
	valueCount   int
}

var _ Node = (*FnNode)(nil)

// NewFnNode wraps fn. fn is either a Func or any non-variadic function whose
// parameters, after an optional leading context.Context, match params one to
// one. It may return any number of values optionally followed by an error.
//
// Every parameter of a plain function is required: a call without a routed,
// fixed or user value for it fails with ErrMissingInput. Use WithFixedInput
// for defaults. A Func sees absent inputs as missing keys instead.
//
// The default name is the function's Go name; closures fall back to fn_<id>.
func NewFnNode(fn any, params []string, opts ...NodeOption) (*FnNode, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidFunction)
	}

	config := applyNodeOptions(opts)

	outputs := config.outputs
	if len(outputs) == 0 {
		outputs = []string{DefaultOutputPort}
	}

	node, err := newCallable(fn, params)
	if err != nil {
		return nil, err
	}

	node.BaseNode = newBaseNode(KindFunction, func(id int64) string {
		if name := funcName(fn); name != "" {
			return name
		}
		return fmt.Sprintf("fn_%d", id)
	}, params, outputs, config)

	return node, nil
}

// MustFnNode is like NewFnNode but panics on error.
func MustFnNode(fn any, params []string, opts ...NodeOption) *FnNode {
	node, err := NewFnNode(fn, params, opts...)
	if err != nil {
		panic(err)
	}
	return node
}

// newCallable prepares the invocation part of a FnNode without assigning an
// ID or ports.
func newCallable(fn any, params []string) (*FnNode, error) {
	node := &FnNode{params: append([]string(nil), params...)}

	seen := make(map[string]bool, len(params))
	for _, param := range params {
		if param == "" || seen[param] {
			return nil, fmt.Errorf("%w: parameter names must be unique and non-empty, got %v", ErrInvalidFunction, params)
		}
		seen[param] = true
	}

	if native, isNative := fn.(Func); isNative {
		node.native = native
		return node, nil
	}
	if native, isNative := fn.(func(context.Context, Args) (any, error)); isNative {
		node.native = native
		return node, nil
	}
	if err := node.inspect(fn); err != nil {
		return nil, err
	}

	return node, nil
}

func (node *FnNode) inspect(fn any) error {
	value := reflect.ValueOf(fn)
	fnType := value.Type()

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("%w: expected a function, got %T", ErrInvalidFunction, fn)
	}
	if fnType.IsVariadic() {
		return fmt.Errorf("%w: variadic functions are not supported", ErrInvalidFunction)
	}

	first := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		node.takesContext = true
		first = 1
	}

	if fnType.NumIn()-first != len(node.params) {
		return fmt.Errorf("%w: function takes %d parameters, %d names declared", ErrInvalidFunction, fnType.NumIn()-first, len(node.params))
	}

	for index := first; index < fnType.NumIn(); index++ {
		node.argTypes = append(node.argTypes, fnType.In(index))
	}

	node.valueCount = fnType.NumOut()
	if node.valueCount > 0 && fnType.Out(node.valueCount-1) == errorType {
		node.returnsError = true
		node.valueCount--
	}

	node.fn = value
	return nil
}

// Invoke calls the function with the declared inputs only.
func (node *FnNode) Invoke(ctx context.Context, call *Call) (any, error) {
	return node.apply(ctx, call.Args(node.params))
}

func (node *FnNode) apply(ctx context.Context, args Args) (any, error) {
	if node.native != nil {
		result, err := node.native(ctx, args)
		if err != nil {
			return nil, err
		}
		return node.shapeResult([]any{result}, true)
	}

	in := make([]reflect.Value, 0, len(node.argTypes)+1)
	if node.takesContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	for index, param := range node.params {
		raw, found := args[param]
		if !found {
			return nil, fmt.Errorf("%w: input %q is missing", ErrMissingInput, param)
		}
		value, err := convertArgument(param, raw, node.argTypes[index])
		if err != nil {
			return nil, err
		}
		in = append(in, value)
	}

	out := node.fn.Call(in)

	if node.returnsError {
		if errValue := out[len(out)-1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
		out = out[:len(out)-1]
	}

	values := make([]any, len(out))
	for index, value := range out {
		values[index] = value.Interface()
	}

	return node.shapeResult(values, false)
}

// shapeResult enforces the declared output arity. A single declared output
// takes the sole value (nil when the function returns none). Several declared
// outputs take either as many values, or one slice of that length.
func (node *FnNode) shapeResult(values []any, native bool) (any, error) {
	declared := len(node.outputs)

	if declared <= 1 {
		switch len(values) {
		case 0:
			return nil, nil
		case 1:
			return values[0], nil
		default:
			return nil, fmt.Errorf("%w: function returned %d values for 1 declared output", ErrOutputArity, len(values))
		}
	}

	if len(values) == declared && !native {
		return values, nil
	}

	if len(values) == 1 {
		if sequence, isSequence := asSequence(values[0]); isSequence && len(sequence) == declared {
			return sequence, nil
		}
	}

	return nil, fmt.Errorf("%w: %d outputs declared (%s), function returned %s",
		ErrOutputArity, declared, strings.Join(node.outputs, ", "), describeValues(values))
}

func describeValues(values []any) string {
	if len(values) == 1 {
		if sequence, isSequence := asSequence(values[0]); isSequence {
			return fmt.Sprintf("a sequence of %d", len(sequence))
		}
		return fmt.Sprintf("a single %T", values[0])
	}
	return fmt.Sprintf("%d values", len(values))
}

// convertArgument adapts value to the parameter type: assignable values pass
// through, numbers convert between numeric kinds when no precision or range
// is lost, anything else round-trips through JSON. A nil value becomes the
// zero value.
func convertArgument(name string, value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}

	source := reflect.ValueOf(value)
	if source.Type().AssignableTo(target) {
		return source, nil
	}

	if isNumericKind(source.Kind()) && isNumericKind(target.Kind()) {
		return convertNumber(name, source, target)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("argument %q: cannot use %T as %s: %w", name, value, target, err)
	}

	decoded := reflect.New(target)
	if err := json.Unmarshal(encoded, decoded.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("argument %q: cannot use %T as %s: %w", name, value, target, err)
	}

	return decoded.Elem(), nil
}

// convertNumber converts between numeric kinds, rejecting fractional values
// for integer targets and values outside the target's range.
func convertNumber(name string, source reflect.Value, target reflect.Type) (reflect.Value, error) {
	zero := reflect.New(target).Elem()
	fail := func(reason string) (reflect.Value, error) {
		return reflect.Value{}, fmt.Errorf("argument %q: cannot use %v as %s: %s", name, source.Interface(), target, reason)
	}

	switch {
	case source.CanFloat():
		number := source.Float()
		switch {
		case zero.CanInt():
			if math.Trunc(number) != number {
				return fail("not an integer")
			}
			if number < math.MinInt64 || number >= math.MaxInt64 || zero.OverflowInt(int64(number)) {
				return fail("out of range")
			}
		case zero.CanUint():
			if math.Trunc(number) != number {
				return fail("not an integer")
			}
			if number < 0 || number >= math.MaxUint64 || zero.OverflowUint(uint64(number)) {
				return fail("out of range")
			}
		case zero.CanFloat():
			if zero.OverflowFloat(number) {
				return fail("out of range")
			}
		}
	case source.CanInt():
		number := source.Int()
		switch {
		case zero.CanInt():
			if zero.OverflowInt(number) {
				return fail("out of range")
			}
		case zero.CanUint():
			if number < 0 || zero.OverflowUint(uint64(number)) {
				return fail("out of range")
			}
		}
	case source.CanUint():
		number := source.Uint()
		switch {
		case zero.CanInt():
			if number > math.MaxInt64 || zero.OverflowInt(int64(number)) {
				return fail("out of range")
			}
		case zero.CanUint():
			if zero.OverflowUint(number) {
				return fail("out of range")
			}
		}
	}

	return source.Convert(target), nil
}

func isNumericKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// funcName returns the declared Go name of fn, or "" for closures and
// values without one.
func funcName(fn any) string {
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func || value.IsNil() {
		return ""
	}

	runtimeFunc := runtime.FuncForPC(value.Pointer())
	if runtimeFunc == nil {
		return ""
	}

	full := runtimeFunc.Name()
	if slash := strings.LastIndex(full, "/"); slash >= 0 {
		full = full[slash+1:]
	}
	full = strings.ReplaceAll(full, "[...]", "")
	full = strings.TrimSuffix(full, "-fm")

	parts := strings.Split(full, ".")
	if len(parts) < 2 {
		return ""
	}

	// Closure names end in funcN, possibly followed by .N for nesting.
	last := len(parts) - 1
	for last > 0 && isDigits(parts[last]) {
		last--
	}
	if anonymousFuncName.MatchString(parts[last]) {
		return ""
	}

	return parts[len(parts)-1]
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
