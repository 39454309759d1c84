// Package resolver expands constant references inside pack templates.
//
// A template is an arbitrary JSON-like tree (see package jsonvalue). Any
// string of the form "$constants.NAME" is replaced by the value registered
// under NAME in the constant table. Looked-up values are resolved against the
// same table, so constants may reference other constants and may expand to
// whole objects or arrays, which are spliced in place rather than
// stringified. Resolution is exhaustive: object values, array elements and
// the root itself are all inspected, and key sets are never changed.
//
// Missing constants fail the run with an unresolved_constant error unless
// WithAllowUnresolved is set, in which case they resolve to
// jsonvalue.Undefined. Constant cycles and chains deeper than MaxDepth fail
// with recursion_limit.
package resolver
