package predicate

import (
	"fmt"
	"strings"
)

// Predicate represents one filter condition in a query's WHERE or HAVING
// clause.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and keeps
// the variant set closed, so rendering code can rely on knowing every
// possible shape.
//
// Predicate types:
//   - Simple: field OP :param
//   - In: field IN (:base_0, ..., :base_n)
//   - Like: field LIKE :param
//   - Between: field BETWEEN :start AND :end
//   - Null: field IS [NOT] NULL
//   - Having: AGG(field) OP :param
//   - CustomFunction: FUNC(field, :prefix_0, ...)
//   - Logical: AND/OR/NOT composition of child predicates
//   - Subquery: [NOT] EXISTS (nested query)
//   - SubqueryIn: field [NOT] IN (nested query)
//
// Every predicate is immutable once constructed, and every constructor
// validates its inputs and fails with a *BuildError rather than producing
// a node that would render unsafe SQL.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package

	// ToSQL renders the predicate as a SQL fragment with named
	// placeholders (":name"). Pure and deterministic: the same node
	// always renders the same text, and caller-supplied values never
	// appear in it.
	ToSQL() string

	// Parameters returns the name-to-value bindings this predicate
	// introduces. The returned map is freshly allocated on every call;
	// nil values are permitted as bound values.
	Parameters() map[string]any
}

// SQLSource is anything that can render itself to SQL text plus named
// parameter bindings. The query builder satisfies it, which is how
// Subquery and SubqueryIn nest a whole query without this package
// depending on the builder.
type SQLSource interface {
	ToSQL() string
	Parameters() map[string]any
}

// LogicalOperator combines child predicates in a Logical node.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
	LogicalNot LogicalOperator = "NOT"
)

// Simple represents a field-operator-value comparison.
//
// Semantics:
//
//	<field> <op> :<param>
//
// Example:
//
//	p, _ := NewSimple("status", "=", "active", "p1")
//	p.ToSQL()       // `status = :p1`
//	p.Parameters()  // map[string]any{"p1": "active"}
type Simple struct {
	field string
	op    string
	value any
	param string
}

// NewSimple creates a Simple predicate. The field, operator, and parameter
// name are validated; the value is bound as-is (nil is allowed).
func NewSimple(field, op string, value any, param string) (*Simple, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	o, err := ValidateOperator(op)
	if err != nil {
		return nil, err
	}
	p, err := ValidateParameterName(param)
	if err != nil {
		return nil, err
	}
	return &Simple{field: f, op: o, value: value, param: p}, nil
}

func (*Simple) predicateNode() {}

func (s *Simple) ToSQL() string {
	return fmt.Sprintf("%s %s :%s", s.field, s.op, s.param)
}

func (s *Simple) Parameters() map[string]any {
	return map[string]any{s.param: s.value}
}

// In represents membership in an explicit value list.
//
// One placeholder is generated per value, suffixed with the value's index:
//
//	status IN (:p1_0, :p1_1)
//
// The value list must be non-empty; an empty IN () is a build error, not
// an empty result set.
type In struct {
	field  string
	values []any
	base   string
}

// NewIn creates an In predicate over a non-empty value list.
func NewIn(field string, values []any, baseParam string) (*In, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	p, err := ValidateParameterName(baseParam)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, NewBuildError(ErrCodeEmptyList, "IN requires at least one value", field, "len(values) >= 1")
	}
	copied := make([]any, len(values))
	copy(copied, values)
	return &In{field: f, values: copied, base: p}, nil
}

func (*In) predicateNode() {}

func (i *In) ToSQL() string {
	placeholders := make([]string, len(i.values))
	for idx := range i.values {
		placeholders[idx] = fmt.Sprintf(":%s_%d", i.base, idx)
	}
	return fmt.Sprintf("%s IN (%s)", i.field, strings.Join(placeholders, ", "))
}

func (i *In) Parameters() map[string]any {
	params := make(map[string]any, len(i.values))
	for idx, v := range i.values {
		params[fmt.Sprintf("%s_%d", i.base, idx)] = v
	}
	return params
}

// Like represents a pattern match. The pattern is bound as a parameter, so
// wildcards are data, never SQL text.
type Like struct {
	field   string
	pattern string
	param   string
}

// NewLike creates a Like predicate.
func NewLike(field, pattern, param string) (*Like, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	p, err := ValidateParameterName(param)
	if err != nil {
		return nil, err
	}
	return &Like{field: f, pattern: pattern, param: p}, nil
}

func (*Like) predicateNode() {}

func (l *Like) ToSQL() string {
	return fmt.Sprintf("%s LIKE :%s", l.field, l.param)
}

func (l *Like) Parameters() map[string]any {
	return map[string]any{l.param: l.pattern}
}

// Between represents a closed range check with two distinct placeholders:
//
//	created_at BETWEEN :p3_start AND :p3_end
//
// The two parameter names must differ after trimming; the bounds are bound
// in the order given, even if start > end numerically.
type Between struct {
	field      string
	start, end any
	startParam string
	endParam   string
}

// NewBetween creates a Between predicate. Fails if the two parameter names
// collide after trimming, which would make one bound shadow the other.
func NewBetween(field string, start, end any, startParam, endParam string) (*Between, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	sp, err := ValidateParameterName(startParam)
	if err != nil {
		return nil, err
	}
	ep, err := ValidateParameterName(endParam)
	if err != nil {
		return nil, err
	}
	if sp == ep {
		return nil, NewBuildError(ErrCodeDuplicateParam, "BETWEEN bounds share one parameter name", sp, "distinct start/end params")
	}
	return &Between{field: f, start: start, end: end, startParam: sp, endParam: ep}, nil
}

func (*Between) predicateNode() {}

func (b *Between) ToSQL() string {
	return fmt.Sprintf("%s BETWEEN :%s AND :%s", b.field, b.startParam, b.endParam)
}

func (b *Between) Parameters() map[string]any {
	return map[string]any{b.startParam: b.start, b.endParam: b.end}
}

// Null represents an IS NULL / IS NOT NULL check. It binds no parameters.
type Null struct {
	field  string
	isNull bool
}

// NewNull creates a Null predicate. isNull selects IS NULL (true) or
// IS NOT NULL (false).
func NewNull(field string, isNull bool) (*Null, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	return &Null{field: f, isNull: isNull}, nil
}

func (*Null) predicateNode() {}

func (n *Null) ToSQL() string {
	if n.isNull {
		return n.field + " IS NULL"
	}
	return n.field + " IS NOT NULL"
}

func (n *Null) Parameters() map[string]any {
	return map[string]any{}
}

// Having represents a HAVING-clause comparison whose target may be a plain
// field or a single aggregation call:
//
//	COUNT(*) > :p4
//	SUM(amount) >= :p7
type Having struct {
	target string
	op     string
	value  any
	param  string
}

// NewHaving creates a Having predicate. The target is validated as either
// a field name or FUNC(field).
func NewHaving(target, op string, value any, param string) (*Having, error) {
	tgt, err := ValidateAggregatedField(target)
	if err != nil {
		return nil, err
	}
	o, err := ValidateOperator(op)
	if err != nil {
		return nil, err
	}
	p, err := ValidateParameterName(param)
	if err != nil {
		return nil, err
	}
	return &Having{target: tgt, op: o, value: value, param: p}, nil
}

func (*Having) predicateNode() {}

func (h *Having) ToSQL() string {
	return fmt.Sprintf("%s %s :%s", h.target, h.op, h.param)
}

func (h *Having) Parameters() map[string]any {
	return map[string]any{h.param: h.value}
}

// CustomFunction represents a call to a database function applied to a
// field, with optional extra arguments bound as parameters:
//
//	LOWER(email)
//	LEVENSHTEIN(name, :p5_0)
//
// Placeholders for the extra arguments are suffixed with their position.
type CustomFunction struct {
	name   string
	field  string
	args   []any
	prefix string
}

// NewCustomFunction creates a CustomFunction predicate. The function name
// must be a bare identifier; args may be empty.
func NewCustomFunction(name, field string, args []any, paramPrefix string) (*CustomFunction, error) {
	n := canonical(name)
	if n == "" || !paramNamePattern.MatchString(n) {
		return nil, NewBuildError(ErrCodeInvalidField, "function name is not a bare identifier", name, paramNamePattern.String())
	}
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	p, err := ValidateParameterName(paramPrefix)
	if err != nil {
		return nil, err
	}
	copied := make([]any, len(args))
	copy(copied, args)
	return &CustomFunction{name: n, field: f, args: copied, prefix: p}, nil
}

func (*CustomFunction) predicateNode() {}

func (c *CustomFunction) ToSQL() string {
	if len(c.args) == 0 {
		return fmt.Sprintf("%s(%s)", c.name, c.field)
	}
	placeholders := make([]string, len(c.args))
	for idx := range c.args {
		placeholders[idx] = fmt.Sprintf(":%s_%d", c.prefix, idx)
	}
	return fmt.Sprintf("%s(%s, %s)", c.name, c.field, strings.Join(placeholders, ", "))
}

func (c *CustomFunction) Parameters() map[string]any {
	params := make(map[string]any, len(c.args))
	for idx, v := range c.args {
		params[fmt.Sprintf("%s_%d", c.prefix, idx)] = v
	}
	return params
}

// Logical composes child predicates with AND, OR, or NOT.
//
// AND/OR join their children with the operator inside parentheses:
//
//	(a = :p1 AND b = :p2)
//
// NOT prefixes the parenthesized children:
//
//	NOT (a = :p1)
//
// NOT is conceptually single-child but list-typed for uniformity with the
// other combinators.
//
// Child parameter maps are unioned. Key collisions across children are not
// detected here; the builder's shared parameter namer is what prevents them.
type Logical struct {
	op       LogicalOperator
	children []Predicate
}

// NewLogical creates a Logical predicate over one or more non-nil children.
func NewLogical(op LogicalOperator, children ...Predicate) (*Logical, error) {
	switch op {
	case LogicalAnd, LogicalOr, LogicalNot:
	default:
		return nil, NewBuildError(ErrCodeInvalidOperator, "logical operator must be AND, OR, or NOT", string(op), "AND|OR|NOT")
	}
	if len(children) == 0 {
		return nil, NewBuildError(ErrCodeEmptyList, "logical composition requires at least one child", string(op), "len(children) >= 1")
	}
	for idx, child := range children {
		if child == nil {
			return nil, NewBuildError(ErrCodeNilPredicate, fmt.Sprintf("child %d is nil", idx), string(op), "non-nil children")
		}
	}
	copied := make([]Predicate, len(children))
	copy(copied, children)
	return &Logical{op: op, children: copied}, nil
}

func (*Logical) predicateNode() {}

func (l *Logical) ToSQL() string {
	parts := make([]string, len(l.children))
	for idx, child := range l.children {
		parts[idx] = child.ToSQL()
	}
	joined := strings.Join(parts, fmt.Sprintf(" %s ", l.op))
	if l.op == LogicalNot {
		return fmt.Sprintf("NOT (%s)", joined)
	}
	return fmt.Sprintf("(%s)", joined)
}

func (l *Logical) Parameters() map[string]any {
	params := make(map[string]any)
	for _, child := range l.children {
		for name, value := range child.Parameters() {
			params[name] = value
		}
	}
	return params
}

// Depth returns the nesting depth of a predicate tree. Leaf variants have
// depth 1; Logical nodes are one deeper than their deepest child. Subquery
// variants count as leaves because their nested query is opaque here.
func Depth(p Predicate) int {
	node, ok := p.(*Logical)
	if !ok {
		return 1
	}
	deepest := 0
	for _, child := range node.children {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Subquery represents an EXISTS / NOT EXISTS check against a nested query:
//
//	EXISTS (SELECT * FROM Order WHERE user_id = :p2)
type Subquery struct {
	op     string
	nested SQLSource
}

// NewSubquery creates a Subquery predicate. op must be EXISTS or NOT EXISTS.
func NewSubquery(op string, nested SQLSource) (*Subquery, error) {
	o, err := ValidateOperator(op)
	if err != nil {
		return nil, err
	}
	if o != "EXISTS" && o != "NOT EXISTS" {
		return nil, NewBuildError(ErrCodeInvalidOperator, "subquery operator must be EXISTS or NOT EXISTS", op, "EXISTS|NOT EXISTS")
	}
	if nested == nil {
		return nil, NewBuildError(ErrCodeNilPredicate, "nested query is nil", o, "non-nil subquery")
	}
	return &Subquery{op: o, nested: nested}, nil
}

func (*Subquery) predicateNode() {}

func (s *Subquery) ToSQL() string {
	return fmt.Sprintf("%s (%s)", s.op, s.nested.ToSQL())
}

func (s *Subquery) Parameters() map[string]any {
	params := make(map[string]any)
	for name, value := range s.nested.Parameters() {
		params[name] = value
	}
	return params
}

// SubqueryIn represents field membership in a nested query's result:
//
//	user_id IN (SELECT id FROM User WHERE active = :p3)
type SubqueryIn struct {
	field  string
	op     string
	nested SQLSource
}

// NewSubqueryIn creates a SubqueryIn predicate. op must be IN or NOT IN.
func NewSubqueryIn(field, op string, nested SQLSource) (*SubqueryIn, error) {
	f, err := ValidateFieldName(field)
	if err != nil {
		return nil, err
	}
	o, err := ValidateOperator(op)
	if err != nil {
		return nil, err
	}
	if o != "IN" && o != "NOT IN" {
		return nil, NewBuildError(ErrCodeInvalidOperator, "subquery membership operator must be IN or NOT IN", op, "IN|NOT IN")
	}
	if nested == nil {
		return nil, NewBuildError(ErrCodeNilPredicate, "nested query is nil", o, "non-nil subquery")
	}
	return &SubqueryIn{field: f, op: o, nested: nested}, nil
}

func (*SubqueryIn) predicateNode() {}

func (s *SubqueryIn) ToSQL() string {
	return fmt.Sprintf("%s %s (%s)", s.field, s.op, s.nested.ToSQL())
}

func (s *SubqueryIn) Parameters() map[string]any {
	params := make(map[string]any)
	for name, value := range s.nested.Parameters() {
		params[name] = value
	}
	return params
}
