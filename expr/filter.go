package expr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Filter compiles a clause list into an AND-joined filter (or condition)
// expression. Clauses are processed in input order; clause i binds its
// attribute name to #fi and its value, when it has one, to :fi (or the
// derived :fi_lo/:fi_hi and :fi_0..:fi_n tokens for between and in).
//
// An empty clause list compiles to the empty string, meaning no filter at
// all - distinct from an expression that matches nothing.
func Filter(clauses []Clause, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	if len(clauses) == 0 {
		return "", nil
	}

	fragments := make([]string, 0, len(clauses))
	for i, clause := range clauses {
		frag, err := compileClause(i, clause, names, values)
		if err != nil {
			return "", fmt.Errorf("filter clause %d (%s): %w", i, clause.Key, err)
		}
		fragments = append(fragments, frag)
	}
	return strings.Join(fragments, " AND "), nil
}

func compileClause(i int, clause Clause, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	name := fmt.Sprintf("#f%d", i)
	names[name] = clause.Key

	switch clause.Op {
	case OpExists:
		return fmt.Sprintf("attribute_exists(%s)", name), nil

	case OpNotExists:
		return fmt.Sprintf("attribute_not_exists(%s)", name), nil

	case OpBetween:
		bounds, ok := valueSlice(clause.Value)
		if !ok || len(bounds) != 2 {
			return "", ErrBadBetween
		}
		lo, err := attributevalue.Marshal(bounds[0])
		if err != nil {
			return "", err
		}
		hi, err := attributevalue.Marshal(bounds[1])
		if err != nil {
			return "", err
		}
		loTok := fmt.Sprintf(":f%d_lo", i)
		hiTok := fmt.Sprintf(":f%d_hi", i)
		values[loTok] = lo
		values[hiTok] = hi
		return fmt.Sprintf("%s BETWEEN %s AND %s", name, loTok, hiTok), nil

	case OpIn:
		members, ok := valueSlice(clause.Value)
		if !ok {
			return "", ErrEmptyInList
		}
		if len(members) == 0 {
			return "", ErrEmptyInList
		}
		tokens := make([]string, len(members))
		for j, member := range members {
			av, err := attributevalue.Marshal(member)
			if err != nil {
				return "", err
			}
			tok := fmt.Sprintf(":f%d_%d", i, j)
			values[tok] = av
			tokens[j] = tok
		}
		return fmt.Sprintf("%s IN (%s)", name, strings.Join(tokens, ", ")), nil

	case OpContains, OpBeginsWith:
		av, err := attributevalue.Marshal(clause.Value)
		if err != nil {
			return "", err
		}
		tok := fmt.Sprintf(":f%d", i)
		values[tok] = av
		return fmt.Sprintf("%s(%s, %s)", clause.Op, name, tok), nil

	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		av, err := attributevalue.Marshal(clause.Value)
		if err != nil {
			return "", err
		}
		tok := fmt.Sprintf(":f%d", i)
		values[tok] = av
		return fmt.Sprintf("%s %s %s", name, clause.Op, tok), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, clause.Op)
	}
}

// valueSlice flattens a slice or array of any element type into []any.
func valueSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
