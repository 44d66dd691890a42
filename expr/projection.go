package expr

import (
	"fmt"
	"strings"
)

// Projection compiles a list of attribute names into a projection
// expression, binding one #proj token per attribute. An empty list
// compiles to the empty string.
func Projection(attrs []string, names map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	tokens := make([]string, len(attrs))
	for i, attr := range attrs {
		tok := fmt.Sprintf("#proj%d", i)
		names[tok] = attr
		tokens[i] = tok
	}
	return strings.Join(tokens, ", ")
}
