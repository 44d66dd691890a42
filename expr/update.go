package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Update compiles an operation bag into an update expression. SET,
// REMOVE and ADD clauses are emitted in that fixed order; categories that
// contributed nothing are omitted, and an empty bag compiles to the
// empty string.
//
// A single #u/:u counter pair spans every category within one call, so
// tokens stay unique however the bag is populated. Map categories are
// walked in sorted key order to keep compilation deterministic.
func Update(ops UpdateOperations, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	b := &updateBuilder{names: names, values: values}

	for _, key := range sortedKeys(ops.Set) {
		tok, err := b.value(ops.Set[key])
		if err != nil {
			return "", fmt.Errorf("set %s: %w", key, err)
		}
		b.set = append(b.set, fmt.Sprintf("%s = %s", b.name(key), tok))
	}
	for _, key := range sortedKeys(ops.Incr) {
		tok, err := b.value(ops.Incr[key])
		if err != nil {
			return "", fmt.Errorf("incr %s: %w", key, err)
		}
		name := b.name(key)
		b.set = append(b.set, fmt.Sprintf("%s = %s + %s", name, name, tok))
	}
	for _, key := range sortedKeys(ops.Append) {
		tok, err := b.value(ops.Append[key])
		if err != nil {
			return "", fmt.Errorf("append %s: %w", key, err)
		}
		name := b.name(key)
		b.set = append(b.set, fmt.Sprintf("%s = list_append(%s, %s)", name, name, tok))
	}
	for _, key := range sortedKeys(ops.Prepend) {
		tok, err := b.value(ops.Prepend[key])
		if err != nil {
			return "", fmt.Errorf("prepend %s: %w", key, err)
		}
		name := b.name(key)
		b.set = append(b.set, fmt.Sprintf("%s = list_append(%s, %s)", name, tok, name))
	}
	for _, key := range sortedKeys(ops.IfNotExists) {
		tok, err := b.value(ops.IfNotExists[key])
		if err != nil {
			return "", fmt.Errorf("ifNotExists %s: %w", key, err)
		}
		name := b.name(key)
		b.set = append(b.set, fmt.Sprintf("%s = if_not_exists(%s, %s)", name, name, tok))
	}
	for _, path := range sortedKeys(ops.SetPath) {
		tok, err := b.value(ops.SetPath[path])
		if err != nil {
			return "", fmt.Errorf("setPath %s: %w", path, err)
		}
		b.set = append(b.set, fmt.Sprintf("%s = %s", b.path(path), tok))
	}
	for _, target := range sortedComputeKeys(ops.Compute) {
		c := ops.Compute[target]
		if c.Op != "+" && c.Op != "-" {
			return "", fmt.Errorf("compute %s: %w", target, ErrBadComputeOp)
		}
		b.set = append(b.set, fmt.Sprintf("%s = %s %s %s",
			b.name(target), b.name(c.Left), c.Op, b.name(c.Right)))
	}

	for _, key := range ops.Remove {
		b.remove = append(b.remove, b.name(key))
	}

	for _, key := range sortedKeys(ops.Add) {
		tok, err := b.value(ops.Add[key])
		if err != nil {
			return "", fmt.Errorf("add %s: %w", key, err)
		}
		b.add = append(b.add, fmt.Sprintf("%s %s", b.name(key), tok))
	}

	return b.expression(), nil
}

// updateBuilder accumulates SET/REMOVE/ADD fragments with one shared
// counter pair. Instance-scoped so concurrent compilations never share
// state.
type updateBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue

	set    []string
	remove []string
	add    []string

	n int
	v int
}

func (b *updateBuilder) name(attr string) string {
	tok := fmt.Sprintf("#u%d", b.n)
	b.n++
	b.names[tok] = attr
	return tok
}

func (b *updateBuilder) value(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", err
	}
	tok := fmt.Sprintf(":u%d", b.v)
	b.v++
	b.values[tok] = av
	return tok, nil
}

// path emits one name token per dotted segment, rejoined with literal
// dots so DynamoDB resolves it as a document path.
func (b *updateBuilder) path(dotted string) string {
	segments := strings.Split(dotted, ".")
	tokens := make([]string, len(segments))
	for i, seg := range segments {
		tokens[i] = b.name(seg)
	}
	return strings.Join(tokens, ".")
}

func (b *updateBuilder) expression() string {
	var parts []string
	if len(b.set) > 0 {
		parts = append(parts, "SET "+strings.Join(b.set, ", "))
	}
	if len(b.remove) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(b.remove, ", "))
	}
	if len(b.add) > 0 {
		parts = append(parts, "ADD "+strings.Join(b.add, ", "))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedComputeKeys(m map[string]Computed) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
