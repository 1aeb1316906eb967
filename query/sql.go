package query

import (
	"strconv"
	"strings"

	"github.com/roach88/querykit/predicate"
)

// ToSQL renders the builder's state to a single SQL statement with named
// ":name" placeholders.
//
// If a native-SQL override is set, it is returned verbatim and every other
// piece of state is bypassed. Otherwise clauses are assembled in fixed
// order, emitting only those with content:
//
//	SELECT <fields|*> FROM <entity> [<joins>] [WHERE ...] [GROUP BY ...]
//	[HAVING ...] [ORDER BY ...] [LIMIT n] [OFFSET n]
//
// Top-level WHERE and HAVING predicates are joined with AND. LIMIT appears
// only when a positive limit is set; OFFSET only when the offset is
// positive, so the first page of a paged query carries no OFFSET clause.
//
// ToSQL is a pure read: it never mutates builder state, never touches the
// parameter counter, and always renders the same text for the same state.
func (b Builder) ToSQL() string {
	if strings.TrimSpace(b.nativeSQL) != "" {
		return b.nativeSQL
	}

	var sb strings.Builder

	sb.WriteString("SELECT ")
	if len(b.selectFields) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.selectFields, ", "))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(b.entity)

	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	if len(b.predicates) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(joinPredicates(b.predicates))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.having) > 0 {
		sb.WriteString(" HAVING ")
		sb.WriteString(joinPredicates(b.having))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}

	return sb.String()
}

// Parameters returns the union of explicitly bound named parameters and
// every WHERE- and HAVING-predicate's own bindings. The map is freshly
// allocated on every call; values may be nil.
func (b Builder) Parameters() map[string]any {
	params := make(map[string]any, len(b.params))
	for name, value := range b.params {
		params[name] = value
	}
	for _, p := range b.predicates {
		for name, value := range p.Parameters() {
			params[name] = value
		}
	}
	for _, p := range b.having {
		for name, value := range p.Parameters() {
			params[name] = value
		}
	}
	return params
}

func joinPredicates(preds []predicate.Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.ToSQL()
	}
	return strings.Join(parts, " AND ")
}
