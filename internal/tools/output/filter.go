package output

import (
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Keys of the error value produced when a filter expression cannot be applied.
const (
	FilterErrorKey  = "_filterError"
	FilterDetailKey = "_filterDetail"
	OriginalDataKey = "_originalData"
)

// FilterError describes a filter expression that failed to compile or evaluate.
type FilterError struct {
	// Expression is the expression as supplied by the caller.
	Expression string

	// Detail is the evaluator's own message.
	Detail string
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return "Invalid expression: " + e.Expression
}

// FilterResult is the outcome of ApplyFilter: either the projected value or a
// FilterError together with the untouched input.
type FilterResult struct {
	value    any
	original any
	err      *FilterError
}

// Failed reports whether the expression could not be applied.
func (r FilterResult) Failed() bool {
	return r.err != nil
}

// Err returns the filter error, or nil.
func (r FilterResult) Err() *FilterError {
	return r.err
}

// Value returns the projected value. It is nil when the filter failed or when
// the expression matched nothing.
func (r FilterResult) Value() any {
	return r.value
}

// Data returns the value to hand to the encoder. A failed filter is flattened
// into an object carrying the error message and the original input, so that
// the caller still receives the data it asked for.
func (r FilterResult) Data() any {
	if r.err == nil {
		return r.value
	}
	return map[string]any{
		FilterErrorKey:  r.err.Error(),
		FilterDetailKey: r.err.Detail,
		OriginalDataKey: r.original,
	}
}

// ApplyFilter evaluates a JMESPath expression against data.
// Blank expressions return data unchanged. ApplyFilter never panics: compile
// and evaluation failures are reported through the returned FilterResult.
func ApplyFilter(data any, expression string) FilterResult {
	if strings.TrimSpace(expression) == "" {
		return FilterResult{value: data, original: data}
	}

	value, err := search(expression, data)
	if err != nil {
		return FilterResult{
			original: data,
			err:      &FilterError{Expression: expression, Detail: err.Error()},
		}
	}
	return FilterResult{value: value, original: data}
}

func search(expression string, data any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("evaluation panicked: %v", r)
		}
	}()

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}
	return compiled.Search(data)
}
