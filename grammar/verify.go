package grammar

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// DefaultTolerance is the relative tolerance allowed when checking that the
// probabilities of a left-hand side sum to one.
const DefaultTolerance = 1e-5

var (
	// ErrShape marks a rule that is neither A -> terminal nor A -> B C.
	ErrShape = errors.New("rule is not in chomsky normal form")

	// ErrProbabilitySum marks a left-hand side whose rule probabilities do
	// not sum to one.
	ErrProbabilitySum = errors.New("rule probabilities do not sum to 1")
)

// ShapeError reports a rule violating the CNF shape.
type ShapeError struct {
	Rule   *Rule
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("line %d: %s: %s: %s", e.Rule.Line, e.Rule, ErrShape, e.Reason)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// ProbabilityError reports a left-hand side whose probabilities sum to Sum.
type ProbabilityError struct {
	LHS  Symbol
	Sum  float64
	Line int // line of the first rule of LHS
}

func (e *ProbabilityError) Error() string {
	return fmt.Sprintf("line %d: %s: %s (sum is %g)", e.Line, e.LHS, ErrProbabilitySum, e.Sum)
}

func (e *ProbabilityError) Unwrap() error {
	return ErrProbabilitySum
}

type verifyOptions struct {
	tolerance float64
}

// VerifyOption configures Verify.
type VerifyOption func(*verifyOptions)

// WithTolerance sets the relative tolerance for probability sums.
func WithTolerance(tol float64) VerifyOption {
	return func(o *verifyOptions) {
		o.tolerance = tol
	}
}

// Verify audits the grammar. It returns nil for a valid CNF PCFG, otherwise a
// *multierror.Error holding one *ShapeError or *ProbabilityError per broken
// invariant, in source order. Use errors.Is with ErrShape or
// ErrProbabilitySum to tell the kinds apart.
func (g *Grammar) Verify(opts ...VerifyOption) error {
	o := verifyOptions{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	var result *multierror.Error
	for _, lhs := range g.LHSymbols() {
		rules := g.byLHS[lhs]

		probs := make([]float64, len(rules))
		for i, r := range rules {
			probs[i] = r.Probability
		}
		if sum := fsum(probs); !isClose(sum, 1, o.tolerance) {
			result = multierror.Append(result, &ProbabilityError{LHS: lhs, Sum: sum, Line: rules[0].Line})
		}

		for _, r := range rules {
			if reason := shapeViolation(r); reason != "" {
				result = multierror.Append(result, &ShapeError{Rule: r, Reason: reason})
			}
		}
	}

	return result.ErrorOrNil()
}

func shapeViolation(r *Rule) string {
	if !r.LHS.IsNonterminal() {
		return fmt.Sprintf("left-hand side %q is not a nonterminal", r.LHS)
	}
	switch len(r.RHS) {
	case 1:
		if r.RHS[0].IsNonterminal() {
			return fmt.Sprintf("unary rule rewrites to nonterminal %q", r.RHS[0])
		}
	case 2:
		for _, s := range r.RHS {
			if !s.IsNonterminal() {
				return fmt.Sprintf("binary rule contains terminal %q", s)
			}
		}
	default:
		return fmt.Sprintf("right-hand side has %d symbols", len(r.RHS))
	}
	return ""
}

// isClose mirrors a relative-tolerance comparison: |a-b| <= tol*max(|a|,|b|).
func isClose(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// fsum adds values with Neumaier compensation so long rule lists do not
// drift away from 1.
func fsum(values []float64) float64 {
	var sum, c float64
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	return sum + c
}
