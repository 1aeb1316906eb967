package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/querykit/config"
	"github.com/roach88/querykit/predicate"
)

// Builder accumulates query state through a chain of fluent calls and
// renders it to parameterized SQL.
//
// Builder is an immutable value: every mutating call returns a new Builder
// and leaves the receiver untouched, so any instance can be shared across
// goroutines or used as a fork point for divergent queries. The one piece
// of shared state is the parameter namer, carried by reference through the
// whole lineage so placeholder names stay unique across branches.
//
// Mutators validate their inputs and fail at the offending call with a
// *predicate.BuildError; ToSQL and Parameters are pure reads that cannot
// fail.
//
// Example:
//
//	b, _ := query.ForEntity("User")
//	b, _ = b.Where("active", true)
//	b = b.And()
//	b, _ = b.WhereIn("status", []any{"A", "B"})
//	b.ToSQL() // `SELECT * FROM User WHERE (active = :p1 AND status IN (:p2_0, :p2_1))`
type Builder struct {
	cfg   config.Config
	namer *ParamNamer

	entity         string
	predicates     []predicate.Predicate
	predicateCount int
	pending        predicate.LogicalOperator // one-shot; "" when none
	groupDepth     int

	selectFields []string
	joins        []string
	groupBy      []string
	orderBy      []string
	having       []predicate.Predicate

	limit  int // 0 = unset
	offset int

	nativeSQL string
	params    map[string]any

	fetchSize    int
	timeout      time.Duration
	hints        map[string]string
	cacheEnabled bool
}

// ForEntity creates a root builder for the named entity with the default
// configuration. The entity name is validated like a field name.
func ForEntity(entity string) (Builder, error) {
	return ForEntityWith(entity, config.Default())
}

// ForEntityWith creates a root builder with an explicit configuration.
// The configuration's limits and variant switches are enforced on every
// subsequent call in the lineage.
func ForEntityWith(entity string, cfg config.Config) (Builder, error) {
	name, err := predicate.ValidateFieldName(entity)
	if err != nil {
		return Builder{}, err
	}
	return Builder{
		cfg:    cfg,
		namer:  NewParamNamer(),
		entity: name,
	}, nil
}

// Entity returns the entity name the builder selects from.
func (b Builder) Entity() string {
	return b.entity
}

// clone copies the builder, detaching every sub-collection so a mutation
// on the copy can never be observed through the receiver. The parameter
// namer is deliberately shared: it is the lineage-wide uniqueness source.
func (b Builder) clone() Builder {
	c := b
	c.predicates = append([]predicate.Predicate(nil), b.predicates...)
	c.selectFields = append([]string(nil), b.selectFields...)
	c.joins = append([]string(nil), b.joins...)
	c.groupBy = append([]string(nil), b.groupBy...)
	c.orderBy = append([]string(nil), b.orderBy...)
	c.having = append([]predicate.Predicate(nil), b.having...)
	if b.params != nil {
		c.params = make(map[string]any, len(b.params))
		for k, v := range b.params {
			c.params[k] = v
		}
	}
	if b.hints != nil {
		c.hints = make(map[string]string, len(b.hints))
		for k, v := range b.hints {
			c.hints[k] = v
		}
	}
	return c
}

// addPredicate appends p to the top-level predicate list, folding it with
// the previous last predicate when a one-shot combinator is pending:
//
//	Where(a).And().Where(b)  →  (a AND b)
//
// Composition is binary and left-associative; And/Or/Not are consumed by
// the very next predicate-adding call.
func (b Builder) addPredicate(p predicate.Predicate) (Builder, error) {
	c := b.clone()

	c.predicateCount++
	if max := c.cfg.Limits.MaxPredicates; max > 0 && c.predicateCount > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"predicate count exceeds configured ceiling",
			strconv.Itoa(c.predicateCount), fmt.Sprintf("max_predicates=%d", max))
	}

	if len(c.predicates) == 0 || c.pending == "" {
		c.predicates = append(c.predicates, p)
		return c, nil
	}

	if !c.cfg.Variants.Logical {
		return b, predicate.NewBuildError(predicate.ErrCodeVariantDisabled,
			"logical composition is disabled by configuration", string(c.pending), "variants.logical")
	}

	last := c.predicates[len(c.predicates)-1]
	combined, err := predicate.NewLogical(c.pending, last, p)
	if err != nil {
		return b, err
	}
	if max := c.cfg.Limits.MaxPredicateDepth; max > 0 && predicate.Depth(combined) > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"predicate nesting exceeds configured ceiling",
			strconv.Itoa(predicate.Depth(combined)), fmt.Sprintf("max_predicate_depth=%d", max))
	}
	c.predicates = append(c.predicates[:len(c.predicates)-1], combined)
	c.pending = ""
	return c, nil
}

// Where adds an equality comparison with an auto-generated placeholder.
func (b Builder) Where(field string, value any) (Builder, error) {
	return b.WhereOp(field, "=", value)
}

// WhereOp adds a field-operator-value comparison. The operator must be in
// the fixed whitelist.
func (b Builder) WhereOp(field, op string, value any) (Builder, error) {
	if !b.cfg.Variants.Simple {
		return b, variantDisabled("simple")
	}
	p, err := predicate.NewSimple(field, op, value, b.namer.Next())
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereWithParam adds a comparison bound to a caller-chosen placeholder
// name instead of a generated one. When collision detection is configured,
// reusing a name already bound anywhere in the query is an error.
func (b Builder) WhereWithParam(field, op string, value any, param string) (Builder, error) {
	if !b.cfg.Variants.Simple {
		return b, variantDisabled("simple")
	}
	p, err := predicate.NewSimple(field, op, value, param)
	if err != nil {
		return b, err
	}
	if b.cfg.DetectParamCollisions {
		for name := range p.Parameters() {
			if b.paramBound(name) {
				return b, predicate.NewBuildError(predicate.ErrCodeDuplicateParam,
					"parameter name already bound", name, "detect_param_collisions")
			}
		}
	}
	return b.addPredicate(p)
}

// WhereIn adds a membership check over a non-empty value list. One
// placeholder is generated per value.
func (b Builder) WhereIn(field string, values []any) (Builder, error) {
	if !b.cfg.Variants.In {
		return b, variantDisabled("in")
	}
	if max := b.cfg.Limits.MaxInListSize; max > 0 && len(values) > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"IN list exceeds configured ceiling",
			strconv.Itoa(len(values)), fmt.Sprintf("max_in_list_size=%d", max))
	}
	p, err := predicate.NewIn(field, values, b.namer.Next())
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereLike adds a pattern match. The pattern is bound as a parameter.
func (b Builder) WhereLike(field, pattern string) (Builder, error) {
	if !b.cfg.Variants.Like {
		return b, variantDisabled("like")
	}
	p, err := predicate.NewLike(field, pattern, b.namer.Next())
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereBetween adds a closed range check with two generated placeholders.
// Bounds are bound in the order given.
func (b Builder) WhereBetween(field string, start, end any) (Builder, error) {
	if !b.cfg.Variants.Between {
		return b, variantDisabled("between")
	}
	base := b.namer.Next()
	p, err := predicate.NewBetween(field, start, end, base+"_start", base+"_end")
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereNull adds an IS NULL check.
func (b Builder) WhereNull(field string) (Builder, error) {
	return b.whereNull(field, true)
}

// WhereNotNull adds an IS NOT NULL check.
func (b Builder) WhereNotNull(field string) (Builder, error) {
	return b.whereNull(field, false)
}

func (b Builder) whereNull(field string, isNull bool) (Builder, error) {
	if !b.cfg.Variants.Null {
		return b, variantDisabled("null")
	}
	p, err := predicate.NewNull(field, isNull)
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereFunc adds a database function call applied to a field, with any
// extra arguments bound as positional placeholders.
func (b Builder) WhereFunc(name, field string, args ...any) (Builder, error) {
	if !b.cfg.Variants.CustomFunction {
		return b, variantDisabled("custom_function")
	}
	p, err := predicate.NewCustomFunction(name, field, args, b.namer.Next())
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// Subquery derives a nested builder for the given entity that shares this
// lineage's parameter namer, so placeholders inside the subquery can never
// collide with the outer query's.
func (b Builder) Subquery(entity string) (Builder, error) {
	name, err := predicate.ValidateFieldName(entity)
	if err != nil {
		return Builder{}, err
	}
	return Builder{cfg: b.cfg, namer: b.namer, entity: name}, nil
}

// WhereExists adds an EXISTS check against a nested query, typically one
// derived via Subquery.
func (b Builder) WhereExists(sub Builder) (Builder, error) {
	return b.whereSubquery("EXISTS", sub)
}

// WhereNotExists adds a NOT EXISTS check against a nested query.
func (b Builder) WhereNotExists(sub Builder) (Builder, error) {
	return b.whereSubquery("NOT EXISTS", sub)
}

func (b Builder) whereSubquery(op string, sub Builder) (Builder, error) {
	if !b.cfg.Variants.Subquery {
		return b, variantDisabled("subquery")
	}
	p, err := predicate.NewSubquery(op, sub)
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// WhereInSubquery adds a field IN (nested query) check.
func (b Builder) WhereInSubquery(field string, sub Builder) (Builder, error) {
	return b.whereInSubquery(field, "IN", sub)
}

// WhereNotInSubquery adds a field NOT IN (nested query) check.
func (b Builder) WhereNotInSubquery(field string, sub Builder) (Builder, error) {
	return b.whereInSubquery(field, "NOT IN", sub)
}

func (b Builder) whereInSubquery(field, op string, sub Builder) (Builder, error) {
	if !b.cfg.Variants.Subquery {
		return b, variantDisabled("subquery")
	}
	p, err := predicate.NewSubqueryIn(field, op, sub)
	if err != nil {
		return b, err
	}
	return b.addPredicate(p)
}

// And arms a one-shot AND combinator: the next predicate-adding call folds
// the current last predicate and the new one into a parenthesized AND node.
func (b Builder) And() Builder {
	c := b.clone()
	c.pending = predicate.LogicalAnd
	return c
}

// Or arms a one-shot OR combinator.
func (b Builder) Or() Builder {
	c := b.clone()
	c.pending = predicate.LogicalOr
	return c
}

// Not arms a one-shot NOT combinator. The fold wraps (last, new) in a NOT
// node; with an empty predicate list the combinator has nothing to fold
// and the next predicate is appended as-is.
func (b Builder) Not() Builder {
	c := b.clone()
	c.pending = predicate.LogicalNot
	return c
}

// OpenGroup increments the group-depth counter. Grouping in rendered SQL
// comes from And/Or/Not folding; the depth counter is bookkeeping that the
// synthesizer does not read, kept for balance checking.
func (b Builder) OpenGroup() Builder {
	c := b.clone()
	c.groupDepth++
	return c
}

// CloseGroup decrements the group-depth counter. Closing more groups than
// were opened is a build error.
func (b Builder) CloseGroup() (Builder, error) {
	if b.groupDepth == 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeUnbalancedGroup,
			"CloseGroup without matching OpenGroup", "", "depth >= 0")
	}
	c := b.clone()
	c.groupDepth--
	return c, nil
}

// Select replaces the projection with the given fields. With no Select
// call the query projects "*".
func (b Builder) Select(fields ...string) (Builder, error) {
	if len(fields) == 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeEmptyList,
			"Select requires at least one field", "", "len(fields) >= 1")
	}
	validated := make([]string, len(fields))
	for i, f := range fields {
		name, err := predicate.ValidateFieldName(f)
		if err != nil {
			return b, err
		}
		validated[i] = name
	}
	c := b.clone()
	c.selectFields = validated
	return c, nil
}

// Join appends a join on an association path.
func (b Builder) Join(path string) (Builder, error) {
	return b.join("JOIN", path)
}

// LeftJoin appends a left outer join on an association path.
func (b Builder) LeftJoin(path string) (Builder, error) {
	return b.join("LEFT JOIN", path)
}

// RightJoin appends a right outer join on an association path.
func (b Builder) RightJoin(path string) (Builder, error) {
	return b.join("RIGHT JOIN", path)
}

// InnerJoin appends an explicit inner join on an association path.
func (b Builder) InnerJoin(path string) (Builder, error) {
	return b.join("INNER JOIN", path)
}

// Fetch appends an eager-fetching join on an association path.
func (b Builder) Fetch(path string) (Builder, error) {
	return b.join("JOIN FETCH", path)
}

func (b Builder) join(kind, path string) (Builder, error) {
	name, err := predicate.ValidateFieldName(path)
	if err != nil {
		return b, err
	}
	c := b.clone()
	c.joins = append(c.joins, kind+" "+name)
	return c, nil
}

// GroupBy appends grouping fields.
func (b Builder) GroupBy(fields ...string) (Builder, error) {
	if len(fields) == 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeEmptyList,
			"GroupBy requires at least one field", "", "len(fields) >= 1")
	}
	validated := make([]string, len(fields))
	for i, f := range fields {
		name, err := predicate.ValidateFieldName(f)
		if err != nil {
			return b, err
		}
		validated[i] = name
	}
	c := b.clone()
	c.groupBy = append(c.groupBy, validated...)
	return c, nil
}

// Having appends a HAVING predicate. The target may be a plain field or an
// aggregation expression such as "COUNT(*)".
func (b Builder) Having(target, op string, value any) (Builder, error) {
	if !b.cfg.Variants.Having {
		return b, variantDisabled("having")
	}
	p, err := predicate.NewHaving(target, op, value, b.namer.Next())
	if err != nil {
		return b, err
	}
	c := b.clone()
	c.predicateCount++
	if max := c.cfg.Limits.MaxPredicates; max > 0 && c.predicateCount > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"predicate count exceeds configured ceiling",
			strconv.Itoa(c.predicateCount), fmt.Sprintf("max_predicates=%d", max))
	}
	c.having = append(c.having, p)
	return c, nil
}

// OrderBy appends an ascending ordering on a field.
func (b Builder) OrderBy(field string) (Builder, error) {
	return b.orderByDir(field, "ASC")
}

// OrderByDescending appends a descending ordering on a field.
func (b Builder) OrderByDescending(field string) (Builder, error) {
	return b.orderByDir(field, "DESC")
}

func (b Builder) orderByDir(field, dir string) (Builder, error) {
	name, err := predicate.ValidateFieldName(field)
	if err != nil {
		return b, err
	}
	c := b.clone()
	c.orderBy = append(c.orderBy, name+" "+dir)
	return c, nil
}

// Limit sets the maximum row count. n must be positive.
func (b Builder) Limit(n int) (Builder, error) {
	if n < 1 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"limit must be positive", strconv.Itoa(n), "limit >= 1")
	}
	if max := b.cfg.Limits.MaxPageSize; max > 0 && n > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"limit exceeds configured page-size ceiling",
			strconv.Itoa(n), fmt.Sprintf("max_page_size=%d", max))
	}
	c := b.clone()
	c.limit = n
	return c, nil
}

// Offset sets the number of rows to skip. n must not be negative.
func (b Builder) Offset(n int) (Builder, error) {
	if n < 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"offset must not be negative", strconv.Itoa(n), "offset >= 0")
	}
	c := b.clone()
	c.offset = n
	return c, nil
}

// Page sets limit and offset from a 1-based page number and page size:
// offset = (page-1)*size, limit = size. The multiplication is guarded
// against overflow. The first page renders without an OFFSET clause.
func (b Builder) Page(page, size int) (Builder, error) {
	if page < 1 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"page must be at least 1", strconv.Itoa(page), "page >= 1")
	}
	if size < 1 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"page size must be at least 1", strconv.Itoa(size), "size >= 1")
	}
	if max := b.cfg.Limits.MaxPageSize; max > 0 && size > max {
		return b, predicate.NewBuildError(predicate.ErrCodeLimitExceeded,
			"page size exceeds configured ceiling",
			strconv.Itoa(size), fmt.Sprintf("max_page_size=%d", max))
	}
	if page-1 > 0 && size > math.MaxInt/(page-1) {
		return b, predicate.NewBuildError(predicate.ErrCodeOverflow,
			"page*size overflows", fmt.Sprintf("page=%d size=%d", page, size), "offset fits in int")
	}
	c := b.clone()
	c.offset = (page - 1) * size
	c.limit = size
	return c, nil
}

// PageOf sets pagination using the configured default page size.
func (b Builder) PageOf(page int) (Builder, error) {
	return b.Page(page, b.cfg.DefaultPageSize)
}

// Cached marks the query result as cacheable for the downstream executor.
func (b Builder) Cached() Builder {
	c := b.clone()
	c.cacheEnabled = true
	return c
}

// CachedRegion marks the query cacheable and records the cache region as a
// hint for the downstream cache to interpret. The builder itself only
// carries the toggle and the hint.
func (b Builder) CachedRegion(region string) (Builder, error) {
	if strings.TrimSpace(region) == "" {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"cache region is blank", region, "non-blank")
	}
	c := b.Cached()
	c.hints = withHint(c.hints, "cache.region", strings.TrimSpace(region))
	return c, nil
}

// CachedTTL marks the query cacheable and records the time-to-live, in
// seconds, as a hint for the downstream cache.
func (b Builder) CachedTTL(seconds int) (Builder, error) {
	if seconds < 1 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"cache TTL must be positive", strconv.Itoa(seconds), "ttl >= 1")
	}
	c := b.Cached()
	c.hints = withHint(c.hints, "cache.ttl", strconv.Itoa(seconds))
	return c, nil
}

// CacheEnabled reports whether the query result was marked cacheable.
func (b Builder) CacheEnabled() bool {
	return b.cacheEnabled
}

// Hint records an opaque name-value hint for the downstream executor.
func (b Builder) Hint(name, value string) (Builder, error) {
	if strings.TrimSpace(name) == "" {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"hint name is blank", name, "non-blank")
	}
	c := b.clone()
	c.hints = withHint(c.hints, strings.TrimSpace(name), value)
	return c, nil
}

// Hints returns a copy of the accumulated hints.
func (b Builder) Hints() map[string]string {
	out := make(map[string]string, len(b.hints))
	for k, v := range b.hints {
		out[k] = v
	}
	return out
}

// FetchSize sets the row fetch size passed through to the executor.
func (b Builder) FetchSize(n int) (Builder, error) {
	if n < 1 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"fetch size must be positive", strconv.Itoa(n), "fetch_size >= 1")
	}
	c := b.clone()
	c.fetchSize = n
	return c, nil
}

// Timeout sets the statement timeout passed through to the executor.
func (b Builder) Timeout(d time.Duration) (Builder, error) {
	if d <= 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"timeout must be positive", d.String(), "timeout > 0")
	}
	c := b.clone()
	c.timeout = d
	return c, nil
}

// EffectiveTimeout returns the statement timeout, falling back to the
// configured default when none was set.
func (b Builder) EffectiveTimeout() time.Duration {
	if b.timeout > 0 {
		return b.timeout
	}
	return b.cfg.DefaultTimeout.Std()
}

// NativeQuery overrides SQL synthesis with a hand-written statement.
// ToSQL returns it verbatim; bind its named placeholders via Parameter.
func (b Builder) NativeQuery(sql string) (Builder, error) {
	if strings.TrimSpace(sql) == "" {
		return b, predicate.NewBuildError(predicate.ErrCodeInvalidArgument,
			"native query is blank", sql, "non-blank")
	}
	c := b.clone()
	c.nativeSQL = sql
	return c, nil
}

// Parameter binds a named value, typically for a NativeQuery placeholder.
// When collision detection is configured, rebinding a name already used by
// a predicate or an earlier Parameter call is an error.
func (b Builder) Parameter(name string, value any) (Builder, error) {
	p, err := predicate.ValidateParameterName(name)
	if err != nil {
		return b, err
	}
	if b.cfg.DetectParamCollisions && b.paramBound(p) {
		return b, predicate.NewBuildError(predicate.ErrCodeDuplicateParam,
			"parameter name already bound", p, "detect_param_collisions")
	}
	c := b.clone()
	if c.params == nil {
		c.params = make(map[string]any)
	}
	c.params[p] = value
	return c, nil
}

// BindParameters binds several named values at once.
func (b Builder) BindParameters(params map[string]any) (Builder, error) {
	if len(params) == 0 {
		return b, predicate.NewBuildError(predicate.ErrCodeEmptyList,
			"BindParameters requires at least one binding", "", "len(params) >= 1")
	}
	c := b
	var err error
	for name, value := range params {
		c, err = c.Parameter(name, value)
		if err != nil {
			return b, err
		}
	}
	return c, nil
}

// paramBound reports whether name is already bound anywhere in the query.
func (b Builder) paramBound(name string) bool {
	if _, ok := b.params[name]; ok {
		return true
	}
	for _, p := range b.predicates {
		if _, ok := p.Parameters()[name]; ok {
			return true
		}
	}
	for _, p := range b.having {
		if _, ok := p.Parameters()[name]; ok {
			return true
		}
	}
	return false
}

func withHint(hints map[string]string, name, value string) map[string]string {
	if hints == nil {
		hints = make(map[string]string)
	}
	hints[name] = value
	return hints
}

func variantDisabled(name string) error {
	return predicate.NewBuildError(predicate.ErrCodeVariantDisabled,
		"predicate variant is disabled by configuration", name, "variants."+name)
}
