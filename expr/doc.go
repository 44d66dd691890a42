// Package expr compiles structured clauses into DynamoDB expression
// fragments plus their attribute name/value placeholder maps.
//
// Three compilers cover the three expression kinds a request can carry:
//
//   - [KeyCondition] - partition/sort key conditions for Query
//   - [Filter] - post-read filters and per-item write conditions
//   - [Update] - SET/REMOVE/ADD update expressions
//
// plus the [Projection] helper for projection expressions.
//
// Each compiler mutates two caller-owned maps (placeholder token to real
// attribute name, placeholder token to wire value) and returns the
// expression fragment; callers attach the fragments and maps to the
// outgoing request. The compilers use distinct token prefixes (#pk/#sk,
// #f0.., #u0.., #proj0..) so all three can feed a single request without
// placeholder collisions. Maps are created fresh per call and discarded
// after execution; nothing in this package holds state between calls.
package expr
