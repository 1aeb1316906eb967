// Package querydef loads declarative query definitions written in CUE and
// translates them into fluent builder calls.
//
// A definition names an entity and lists clauses in plain data form:
//
//	query: {
//		entity: "User"
//		select: ["id", "name"]
//		filters: [
//			{field: "active", value: true},
//			{combine: "and", field: "status", values: ["A", "B"]},
//		]
//		orderBy: [{field: "name"}]
//		page: {number: 2, size: 10}
//	}
//
// Translation reuses the builder's own validation, so a definition that
// loads is a definition that renders safe SQL.
package querydef

import (
	"fmt"

	"github.com/roach88/querykit/config"
	"github.com/roach88/querykit/query"
)

// QueryDef is the decoded form of one CUE query definition.
type QueryDef struct {
	Entity  string      `json:"entity"`
	Select  []string    `json:"select,omitempty"`
	Joins   []JoinDef   `json:"joins,omitempty"`
	Filters []FilterDef `json:"filters,omitempty"`
	GroupBy []string    `json:"groupBy,omitempty"`
	Having  []HavingDef `json:"having,omitempty"`
	OrderBy []OrderDef  `json:"orderBy,omitempty"`
	Page    *PageDef    `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Offset  int         `json:"offset,omitempty"`

	Native string         `json:"native,omitempty"`
	Params map[string]any `json:"params,omitempty"`

	Hints  map[string]string `json:"hints,omitempty"`
	Cached bool              `json:"cached,omitempty"`
}

// FilterDef is one WHERE clause entry. Exactly one filter shape applies:
// values (IN), like, between, null, or the default field-op-value
// comparison. Combine arms the one-shot combinator before the filter is
// added, folding it with the previous one.
type FilterDef struct {
	Combine string `json:"combine,omitempty"` // "", "and", "or", "not"

	Field   string    `json:"field,omitempty"`
	Op      string    `json:"op,omitempty"` // defaults to "="
	Value   any       `json:"value,omitempty"`
	Values  []any     `json:"values,omitempty"`
	Like    string    `json:"like,omitempty"`
	Between *RangeDef `json:"between,omitempty"`
	Null    *bool     `json:"null,omitempty"`
}

// RangeDef is a BETWEEN bound pair.
type RangeDef struct {
	Start any `json:"start"`
	End   any `json:"end"`
}

// JoinDef is one join clause entry.
type JoinDef struct {
	Kind string `json:"kind,omitempty"` // "join" (default), "left", "right", "inner", "fetch"
	Path string `json:"path"`
}

// HavingDef is one HAVING clause entry.
type HavingDef struct {
	Target string `json:"target"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

// OrderDef is one ORDER BY entry.
type OrderDef struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// PageDef selects a 1-based page. A zero Size falls back to the configured
// default page size.
type PageDef struct {
	Number int `json:"number"`
	Size   int `json:"size,omitempty"`
}

// Build translates the definition into a query builder under the given
// configuration. Errors carry the failing clause.
func (d *QueryDef) Build(cfg config.Config) (query.Builder, error) {
	b, err := query.ForEntityWith(d.Entity, cfg)
	if err != nil {
		return query.Builder{}, fmt.Errorf("entity: %w", err)
	}

	if len(d.Select) > 0 {
		if b, err = b.Select(d.Select...); err != nil {
			return query.Builder{}, fmt.Errorf("select: %w", err)
		}
	}

	for i, j := range d.Joins {
		if b, err = applyJoin(b, j); err != nil {
			return query.Builder{}, fmt.Errorf("joins[%d]: %w", i, err)
		}
	}

	for i, f := range d.Filters {
		if b, err = applyFilter(b, f); err != nil {
			return query.Builder{}, fmt.Errorf("filters[%d]: %w", i, err)
		}
	}

	if len(d.GroupBy) > 0 {
		if b, err = b.GroupBy(d.GroupBy...); err != nil {
			return query.Builder{}, fmt.Errorf("groupBy: %w", err)
		}
	}

	for i, h := range d.Having {
		if b, err = b.Having(h.Target, h.Op, h.Value); err != nil {
			return query.Builder{}, fmt.Errorf("having[%d]: %w", i, err)
		}
	}

	for i, o := range d.OrderBy {
		if o.Desc {
			b, err = b.OrderByDescending(o.Field)
		} else {
			b, err = b.OrderBy(o.Field)
		}
		if err != nil {
			return query.Builder{}, fmt.Errorf("orderBy[%d]: %w", i, err)
		}
	}

	if d.Page != nil {
		if d.Page.Size > 0 {
			b, err = b.Page(d.Page.Number, d.Page.Size)
		} else {
			b, err = b.PageOf(d.Page.Number)
		}
		if err != nil {
			return query.Builder{}, fmt.Errorf("page: %w", err)
		}
	}
	if d.Limit > 0 {
		if b, err = b.Limit(d.Limit); err != nil {
			return query.Builder{}, fmt.Errorf("limit: %w", err)
		}
	}
	if d.Offset > 0 {
		if b, err = b.Offset(d.Offset); err != nil {
			return query.Builder{}, fmt.Errorf("offset: %w", err)
		}
	}

	if d.Native != "" {
		if b, err = b.NativeQuery(d.Native); err != nil {
			return query.Builder{}, fmt.Errorf("native: %w", err)
		}
	}
	if len(d.Params) > 0 {
		if b, err = b.BindParameters(d.Params); err != nil {
			return query.Builder{}, fmt.Errorf("params: %w", err)
		}
	}

	for name, value := range d.Hints {
		if b, err = b.Hint(name, value); err != nil {
			return query.Builder{}, fmt.Errorf("hints[%s]: %w", name, err)
		}
	}
	if d.Cached {
		b = b.Cached()
	}

	return b, nil
}

func applyJoin(b query.Builder, j JoinDef) (query.Builder, error) {
	switch j.Kind {
	case "", "join":
		return b.Join(j.Path)
	case "left":
		return b.LeftJoin(j.Path)
	case "right":
		return b.RightJoin(j.Path)
	case "inner":
		return b.InnerJoin(j.Path)
	case "fetch":
		return b.Fetch(j.Path)
	default:
		return b, fmt.Errorf("unknown join kind %q", j.Kind)
	}
}

func applyFilter(b query.Builder, f FilterDef) (query.Builder, error) {
	switch f.Combine {
	case "":
	case "and":
		b = b.And()
	case "or":
		b = b.Or()
	case "not":
		b = b.Not()
	default:
		return b, fmt.Errorf("unknown combinator %q", f.Combine)
	}

	switch {
	case len(f.Values) > 0:
		return b.WhereIn(f.Field, f.Values)
	case f.Like != "":
		return b.WhereLike(f.Field, f.Like)
	case f.Between != nil:
		return b.WhereBetween(f.Field, f.Between.Start, f.Between.End)
	case f.Null != nil:
		if *f.Null {
			return b.WhereNull(f.Field)
		}
		return b.WhereNotNull(f.Field)
	default:
		op := f.Op
		if op == "" {
			op = "="
		}
		return b.WhereOp(f.Field, op, f.Value)
	}
}
