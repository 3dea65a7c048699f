package component

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// maxDirectParams mirrors the callable contract: at most five direct
// parameters, with groups available to exceed that.
const maxDirectParams = 5

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Func adapts a plain Go function into a Component. The function's arguments
// must match the declared parameters positionally (each argument receives the
// parameter's extracted handle), and it must return exactly one error.
//
// A Func built by NewFuncOnce additionally takes a one-shot input as its
// first argument, passed by value and consumed on the first invocation;
// NewFuncMany passes its input by pointer and may run across many rounds.
type Func struct {
	fn     reflect.Value
	params []Param
	md     *Metadata

	input    reflect.Value
	hasInput bool
	once     bool
	consumed bool

	initialized bool
}

// NewFunc wraps fn, whose arguments correspond one-to-one with params, as a
// component. Signature mismatches panic at construction: they are authoring
// bugs, not data conditions.
func NewFunc(name string, fn any, params ...Param) *Func {
	return newFunc(name, fn, params, reflect.Value{}, false, false)
}

// NewFuncOnce wraps fn together with a one-shot input passed by value as the
// first argument. The core enforces at most one invocation: once the input
// has been handed over, later Run calls report ran without invoking again.
func NewFuncOnce[In any](name string, input In, fn any, params ...Param) *Func {
	v := reflect.ValueOf(&input).Elem()
	return newFunc(name, fn, params, v, true, true)
}

// NewFuncMany wraps fn together with a borrowed input passed by pointer as
// the first argument. The component may run repeatedly across rounds and
// observes its own mutations of the input.
func NewFuncMany[In any](name string, input *In, fn any, params ...Param) *Func {
	if input == nil {
		panic(fmt.Sprintf("component %s: nil input", name))
	}
	return newFunc(name, fn, params, reflect.ValueOf(input), true, false)
}

func newFunc(name string, fn any, params []Param, input reflect.Value, hasInput, once bool) *Func {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("component %s: callable is not a function", name))
	}
	if len(params) > maxDirectParams {
		panic(fmt.Sprintf("component %s: at most %d direct parameters are supported; bundle extras with UseGroup2..UseGroup5",
			name, maxDirectParams))
	}

	t := v.Type()
	want := len(params)
	offset := 0
	if hasInput {
		want++
		offset = 1
	}
	if t.NumIn() != want {
		panic(fmt.Sprintf("component %s: callable takes %d arguments, %d declared", name, t.NumIn(), want))
	}
	if t.NumOut() != 1 || t.Out(0) != errType {
		panic(fmt.Sprintf("component %s: callable must return exactly one error", name))
	}
	if hasInput && !input.Type().AssignableTo(t.In(0)) {
		panic(fmt.Sprintf("component %s: input %v is not assignable to first argument %v",
			name, input.Type(), t.In(0)))
	}
	for i, p := range params {
		if arg := t.In(i + offset); !p.itemType().AssignableTo(arg) {
			panic(fmt.Sprintf("component %s: parameter %s produces %v, but argument %d wants %v",
				name, p.kind(), p.itemType(), i+offset, arg))
		}
	}

	return &Func{
		fn:       v,
		params:   params,
		md:       NewMetadata(name),
		input:    input,
		hasInput: hasInput,
		once:     once,
	}
}

// Initialize registers every parameter's footprint. It runs exactly once;
// conflicting declarations panic with the offending parameter kinds and this
// component's name.
func (f *Func) Initialize(s *storage.Storage) {
	if f.initialized {
		panic(fmt.Sprintf("component %s: initialized twice", f.md.Name()))
	}
	for _, p := range f.params {
		p.register(s, f.md)
	}
	f.initialized = true
}

// Run re-validates every parameter, and either reports (false, nil) — some
// parameter is not ready, try again later — or extracts all values, invokes
// the callable and reports (true, err) with the callable's own result.
func (f *Func) Run(s *storage.Storage) (bool, error) {
	if !f.initialized {
		panic(fmt.Sprintf("component %s: run before initialize", f.md.Name()))
	}
	if f.once && f.consumed {
		// The one-shot input is gone; a second invocation can never happen.
		return true, nil
	}

	for _, p := range f.params {
		if err := p.tryValidate(s); err != nil {
			var notReady *NotReadyError
			if errors.As(err, &notReady) {
				f.md.setFailedParam(notReady.Kind)
			}
			return false, nil
		}
	}

	args := make([]reflect.Value, 0, len(f.params)+1)
	if f.hasInput {
		args = append(args, f.input)
	}
	for _, p := range f.params {
		args = append(args, p.item(s))
	}

	out := f.fn.Call(args)

	for i := len(f.params) - 1; i >= 0; i-- {
		f.params[i].release(s)
	}
	if f.once {
		f.consumed = true
		f.input = reflect.Zero(f.input.Type())
	}

	if e := out[0].Interface(); e != nil {
		return true, e.(error)
	}
	return true, nil
}

// Metadata returns the component's name, failed parameter, and footprint.
func (f *Func) Metadata() *Metadata {
	return f.md
}
