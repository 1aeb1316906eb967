// Package predicate provides the closed set of filter nodes that make up a
// query's WHERE and HAVING clauses, together with the validators that guard
// every caller-supplied identifier.
//
// ARCHITECTURE:
//
// Predicates sit between the fluent query builder and SQL synthesis:
//
//	[query.Builder] → [predicate tree] → [SQL text + bindings]
//
// Each node renders its own SQL fragment (ToSQL) and its own parameter
// bindings (Parameters). Composite nodes (Logical, Subquery, SubqueryIn)
// recurse into their children and union the child bindings.
//
// SEALED INTERFACE:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so consumers can rely on the variant
// set being closed:
//
//	Simple, In, Like, Between, Null, Having, CustomFunction,
//	Logical, Subquery, SubqueryIn
//
// INJECTION SAFETY:
//
// The only strings that ever reach rendered SQL are identifiers that passed
// a fixed whitelist or pattern check at construction time: field names,
// operator spellings, parameter names, aggregation expressions, and function
// names. Caller-supplied values are always bound through named placeholders
// (":name") and surface only in the Parameters map. A hostile value such as
// "'; DROP TABLE users; --" is inert data.
//
// ERROR MODEL:
//
// Construction fails fast: every constructor validates its inputs and
// returns a *BuildError carrying the rejected value and the violated rule.
// A predicate that exists is a predicate that renders safe SQL.
package predicate
