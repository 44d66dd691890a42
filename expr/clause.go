package expr

import "errors"

// Op identifies a comparison or function operator in a filter clause or
// sort-key condition.
type Op string

const (
	OpEqual          Op = "="
	OpNotEqual       Op = "<>"
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
	OpBetween        Op = "between"
	OpIn             Op = "in"
	OpContains       Op = "contains"
	OpBeginsWith     Op = "begins_with"
	OpExists         Op = "attribute_exists"
	OpNotExists      Op = "attribute_not_exists"
)

var (
	// ErrEmptyInList is returned when an "in" clause carries no values.
	ErrEmptyInList = errors.New("arbor: in clause requires at least one value")

	// ErrBadBetween is returned when a "between" clause does not carry
	// exactly two values (a low and a high bound).
	ErrBadBetween = errors.New("arbor: between clause requires exactly two values")

	// ErrUnknownOperator is returned for an operator the store does not support.
	ErrUnknownOperator = errors.New("arbor: unknown operator")

	// ErrBadSortKeyCondition is returned when a sort-key condition matches
	// none of the recognized shapes.
	ErrBadSortKeyCondition = errors.New("arbor: unrecognized sort key condition")

	// ErrBadComputeOp is returned when a compute operation uses an operator
	// other than "+" or "-".
	ErrBadComputeOp = errors.New("arbor: compute operator must be + or -")
)

// Clause is a single typed filter or condition clause.
//
// Value is ignored for OpExists and OpNotExists. OpBetween expects a
// two-element slice, OpIn a non-empty slice; the remaining operators take
// a single scalar. Ordering operators and between/in only make sense for
// comparable (string or number) attributes; contains and begins_with for
// string or collection attributes. The store rejects mismatches at
// execution time, so callers keeping clauses well typed fail early.
type Clause struct {
	Key   string
	Op    Op
	Value any
}

// SortKeyCondition constrains the sort key of a Query.
//
// The tagged form sets Op plus Value (and UpperValue for OpBetween).
// Two legacy untagged shapes are still accepted: Value alone means
// equality, BeginsWith alone means a prefix match. Normalize folds the
// legacy shapes into the tagged form before compilation.
type SortKeyCondition struct {
	Op         Op
	Value      any
	UpperValue any

	// BeginsWith is the legacy prefix-match shape.
	BeginsWith any
}

// sortKeyOps are the operators a sort-key condition may carry.
var sortKeyOps = map[Op]bool{
	OpEqual: true, OpGreaterOrEqual: true, OpGreater: true,
	OpLessOrEqual: true, OpLess: true,
	OpBeginsWith: true, OpBetween: true,
}

// Normalize translates the legacy untagged shapes into the tagged form
// and validates the operator. The compiler only ever sees tagged
// conditions.
func (c SortKeyCondition) Normalize() (SortKeyCondition, error) {
	if c.Op == "" {
		switch {
		case c.BeginsWith != nil:
			return SortKeyCondition{Op: OpBeginsWith, Value: c.BeginsWith}, nil
		case c.Value != nil:
			return SortKeyCondition{Op: OpEqual, Value: c.Value}, nil
		default:
			return SortKeyCondition{}, ErrBadSortKeyCondition
		}
	}
	if !sortKeyOps[c.Op] {
		return SortKeyCondition{}, ErrBadSortKeyCondition
	}
	return c, nil
}

// Computed describes a "target = left op right" assignment where left and
// right are both attribute names and op is "+" or "-".
type Computed struct {
	Left  string
	Op    string
	Right string
}

// UpdateOperations is a bag of named update operations, compiled by
// [Update] into a single update expression.
//
// Set assigns values. Incr adds a numeric delta to an existing attribute
// (negative deltas decrement); because it reads the current value it is
// idempotent under retries. Add emits a DynamoDB ADD clause instead -
// atomic create-or-increment, but not idempotent when a retried request
// may have already been applied. Append and Prepend use list_append;
// IfNotExists assigns only when the attribute is absent. Remove deletes
// attributes. SetPath assigns through a dotted document path. Compute
// assigns the sum or difference of two other attributes.
type UpdateOperations struct {
	Set         map[string]any
	Incr        map[string]any
	Remove      []string
	Append      map[string]any
	Prepend     map[string]any
	IfNotExists map[string]any
	Add         map[string]any
	SetPath     map[string]any
	Compute     map[string]Computed
}

// Empty reports whether the bag contains no operations at all.
func (u UpdateOperations) Empty() bool {
	return len(u.Set) == 0 && len(u.Incr) == 0 && len(u.Remove) == 0 &&
		len(u.Append) == 0 && len(u.Prepend) == 0 && len(u.IfNotExists) == 0 &&
		len(u.Add) == 0 && len(u.SetPath) == 0 && len(u.Compute) == 0
}
