// Package query provides the immutable fluent builder that assembles a
// filtered, sorted, paginated SQL query and renders it to parameterized
// text plus a name-to-value binding map.
//
// ARCHITECTURE:
//
//	[fluent calls] → [Builder state] → [ToSQL / Parameters] → [Executor]
//
// A Builder is a value: every mutator returns a new instance and leaves
// the receiver untouched, so builders fork freely and are safe to share
// across goroutines. The single shared piece of a lineage is the
// ParamNamer, an atomic counter that keeps placeholder names globally
// unique even when independent branches extend the same root concurrently.
//
// Rendering is deterministic and pure. Values bound through predicates or
// Parameter never appear in SQL text; they travel only in the binding map,
// which is what makes caller-supplied data inert.
//
// Execution is a collaborator, not a concern of this package's core: the
// Executor interface receives the rendered statement and bindings, and the
// provided StubExecutor simply returns empty results.
package query
