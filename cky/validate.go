package cky

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// ErrChartShape marks a chart that does not have the expected structure.
var ErrChartShape = errors.New("malformed chart")

// ChartShapeError is the diagnostic produced by ValidateBackpointers and
// ValidateProbabilities.
type ChartShapeError struct {
	Table  string // "backpointer" or "probability"
	Span   string // offending span key, empty when the table itself is wrong
	Symbol string // offending nonterminal, empty when the span is wrong
	Reason string
}

func (e *ChartShapeError) Error() string {
	where := e.Table + " table"
	if e.Span != "" {
		where += " span " + e.Span
	}
	if e.Symbol != "" {
		where += " nonterminal " + e.Symbol
	}
	return fmt.Sprintf("%s: %s", where, e.Reason)
}

func (e *ChartShapeError) Unwrap() error {
	return ErrChartShape
}

// ValidateBackpointers checks that table is a map from (i,j) integer spans to
// maps from nonterminal strings to either a token string or a pair of
// (symbol, int, int) backpointers. It accepts the output of
// BackpointerChart.Plain as well as equivalently shaped tables built by other
// code. A nil error means the table is well formed.
func ValidateBackpointers(table any) error {
	return validateTable("backpointer", table, checkBackpointer)
}

// ValidateProbabilities checks that table is a map from (i,j) integer spans to
// maps from nonterminal strings to finite log probabilities that are never
// greater than zero.
func ValidateProbabilities(table any) error {
	return validateTable("probability", table, checkLogProb)
}

func validateTable(name string, table any, check func(reflect.Value) string) error {
	v := indirect(reflect.ValueOf(table))
	if v.Kind() != reflect.Map {
		return &ChartShapeError{Table: name, Reason: fmt.Sprintf("%s table is not a map: %T", name, table)}
	}

	keys := v.MapKeys()
	sort.Slice(keys, func(a, b int) bool {
		return fmt.Sprint(keys[a].Interface()) < fmt.Sprint(keys[b].Interface())
	})

	for _, key := range keys {
		span := fmt.Sprint(key.Interface())
		if !isSpanKey(indirect(key)) {
			return &ChartShapeError{Table: name, Span: span,
				Reason: "keys must be (i,j) integer pairs representing spans"}
		}

		inner := indirect(v.MapIndex(key))
		if inner.Kind() != reflect.Map {
			return &ChartShapeError{Table: name, Span: span,
				Reason: fmt.Sprintf("value for each span must be a map, got %s", typeName(inner))}
		}

		ntKeys := inner.MapKeys()
		sort.Slice(ntKeys, func(a, b int) bool {
			return fmt.Sprint(ntKeys[a].Interface()) < fmt.Sprint(ntKeys[b].Interface())
		})
		for _, nt := range ntKeys {
			symbol := fmt.Sprint(nt.Interface())
			if indirect(nt).Kind() != reflect.String {
				return &ChartShapeError{Table: name, Span: span, Symbol: symbol,
					Reason: "keys of the inner map must be strings representing nonterminals"}
			}
			if reason := check(indirect(inner.MapIndex(nt))); reason != "" {
				return &ChartShapeError{Table: name, Span: span, Symbol: symbol, Reason: reason}
			}
		}
	}

	return nil
}

func checkBackpointer(v reflect.Value) string {
	if !v.IsValid() {
		return "value must be a token or a pair of backpointers, got nil"
	}
	if v.Kind() == reflect.String {
		return ""
	}
	switch v.Interface().(type) {
	case Leaf, Split:
		return ""
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Sprintf("value must be a pair ((A,i,k),(B,k,j)) of backpointers, incorrect type %s", typeName(v))
	}
	if v.Len() != 2 {
		return fmt.Sprintf("value must be a pair ((A,i,k),(B,k,j)) of backpointers, found %d backpointers: %v", v.Len(), v.Interface())
	}
	for i := 0; i < 2; i++ {
		bp := indirect(v.Index(i))
		if (bp.Kind() != reflect.Slice && bp.Kind() != reflect.Array) || bp.Len() != 3 {
			return fmt.Sprintf("backpointer %d must have length 3: %v", i, valueString(bp))
		}
		if indirect(bp.Index(0)).Kind() != reflect.String || !isInt(indirect(bp.Index(1))) || !isInt(indirect(bp.Index(2))) {
			return fmt.Sprintf("backpointer %d must be (symbol, int, int): %v", i, bp.Interface())
		}
	}
	return ""
}

func checkLogProb(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() != reflect.Float64 && v.Kind() != reflect.Float32) {
		return fmt.Sprintf("value must be a float, got %s", typeName(v))
	}
	p := v.Float()
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Sprintf("log probability must be finite, got %v", p)
	}
	if p > 0 {
		return fmt.Sprintf("log probability may not be > 0, got %v", p)
	}
	return ""
}

func isSpanKey(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	if _, ok := v.Interface().(Span); ok {
		return true
	}
	if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
		return false
	}
	return v.Len() == 2 && isInt(indirect(v.Index(0))) && isInt(indirect(v.Index(1)))
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// indirect unwraps interfaces and pointers.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

func valueString(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return fmt.Sprint(v.Interface())
}
