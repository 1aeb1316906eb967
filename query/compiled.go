package query

import "context"

// Compiled is an immutable snapshot of one executed query: the rows the
// executor returned, the SQL that produced them, and the bindings used.
// Accessors are pure reads and safe for repeated, concurrent inspection.
type Compiled struct {
	rows   []map[string]any
	sql    string
	params map[string]any
}

// Build renders the query, runs it through the executor under the
// effective timeout, and snapshots the result.
func (b Builder) Build(ctx context.Context, exec Executor) (*Compiled, error) {
	sql := b.ToSQL()
	params := b.Parameters()

	ctx, cancel := context.WithTimeout(ctx, b.EffectiveTimeout())
	defer cancel()

	rows, err := exec.Query(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	return &Compiled{rows: rows, sql: sql, params: params}, nil
}

// CountWith renders the query and asks the executor for a scalar count.
func (b Builder) CountWith(ctx context.Context, exec Executor) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.EffectiveTimeout())
	defer cancel()
	return exec.Count(ctx, b.ToSQL(), b.Parameters())
}

// ExistsWith renders the query and asks the executor for an existence flag.
func (b Builder) ExistsWith(ctx context.Context, exec Executor) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.EffectiveTimeout())
	defer cancel()
	return exec.Exists(ctx, b.ToSQL(), b.Parameters())
}

// Count returns the number of snapshotted rows.
func (c *Compiled) Count() int {
	return len(c.rows)
}

// First returns the first row, or false when the result is empty.
func (c *Compiled) First() (map[string]any, bool) {
	if len(c.rows) == 0 {
		return nil, false
	}
	return c.rows[0], true
}

// All returns a copy of the snapshotted rows.
func (c *Compiled) All() []map[string]any {
	out := make([]map[string]any, len(c.rows))
	copy(out, c.rows)
	return out
}

// SQL returns the statement that produced the snapshot.
func (c *Compiled) SQL() string {
	return c.sql
}

// BoundParameters returns a copy of the bindings used for the statement.
func (c *Compiled) BoundParameters() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}
