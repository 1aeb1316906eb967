package query

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSQL_ClauseOrder(t *testing.T) {
	b := mustBuilder(t)(ForEntity("Order"))
	b = mustBuilder(t)(b.Select("customer_id", "total"))
	b = mustBuilder(t)(b.Join("customer"))
	b = mustBuilder(t)(b.Where("status", "PAID"))
	b = mustBuilder(t)(b.GroupBy("customer_id"))
	b = mustBuilder(t)(b.Having("SUM(total)", ">", 100))
	b = mustBuilder(t)(b.OrderBy("customer_id"))
	b = mustBuilder(t)(b.Limit(10))
	b = mustBuilder(t)(b.Offset(20))

	assert.Equal(t,
		"SELECT customer_id, total FROM Order JOIN customer "+
			"WHERE status = :p1 GROUP BY customer_id HAVING SUM(total) > :p2 "+
			"ORDER BY customer_id ASC LIMIT 10 OFFSET 20",
		b.ToSQL())
}

func TestToSQL_OmitsEmptyClauses(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	sql := b.ToSQL()

	assert.Equal(t, "SELECT * FROM User", sql)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}

func TestToSQL_PureRead(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	b = mustBuilder(t)(b.Where("a", 1))

	first := b.ToSQL()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, b.ToSQL())
	}
	// Rendering must not advance the shared counter.
	b = mustBuilder(t)(b.Where("b", 2))
	assert.Contains(t, b.Parameters(), "p2")
}

func TestParameters_UnionsWhereHavingAndNamed(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	b = mustBuilder(t)(b.Where("active", true))
	b = mustBuilder(t)(b.GroupBy("dept"))
	b = mustBuilder(t)(b.Having("COUNT(*)", ">", 5))
	b = mustBuilder(t)(b.Parameter("tenant", "acme"))

	assert.Equal(t, map[string]any{
		"p1":     true,
		"p2":     5,
		"tenant": "acme",
	}, b.Parameters())
}

// Worked examples pinned to exact output.
func TestToSQL_Examples(t *testing.T) {
	t.Run("simple equality", func(t *testing.T) {
		b := mustBuilder(t)(ForEntity("User"))
		b = mustBuilder(t)(b.Where("active", true))
		assert.Equal(t, "SELECT * FROM User WHERE active = :p1", b.ToSQL())
		assert.Equal(t, map[string]any{"p1": true}, b.Parameters())
	})

	t.Run("in list", func(t *testing.T) {
		b := mustBuilder(t)(ForEntity("User"))
		b = mustBuilder(t)(b.WhereIn("status", []any{"A", "B"}))
		assert.Contains(t, b.ToSQL(), "status IN (:p1_0, :p1_1)")
		assert.Equal(t, map[string]any{"p1_0": "A", "p1_1": "B"}, b.Parameters())
	})

	t.Run("and fold", func(t *testing.T) {
		b := mustBuilder(t)(ForEntity("User"))
		b = mustBuilder(t)(b.Where("a", 1))
		b = b.And()
		b = mustBuilder(t)(b.Where("b", 2))
		assert.Contains(t, b.ToSQL(), "(a = :p1 AND b = :p2)")
	})

	t.Run("second page", func(t *testing.T) {
		b := mustBuilder(t)(ForEntity("User"))
		b = mustBuilder(t)(b.Page(2, 10))
		assert.Equal(t, "SELECT * FROM User LIMIT 10 OFFSET 10", b.ToSQL())
	})

	t.Run("group and having", func(t *testing.T) {
		b := mustBuilder(t)(ForEntity("User"))
		b = mustBuilder(t)(b.GroupBy("dept"))
		b = mustBuilder(t)(b.Having("COUNT(*)", ">", 5))
		assert.Equal(t, "SELECT * FROM User GROUP BY dept HAVING COUNT(*) > :p1", b.ToSQL())
	})
}

func TestToSQL_Golden_ComplexQuery(t *testing.T) {
	b := mustBuilder(t)(ForEntity("Order"))
	b = mustBuilder(t)(b.Select("id", "customer_id", "total"))
	b = mustBuilder(t)(b.LeftJoin("customer"))
	b = mustBuilder(t)(b.Where("status", "PAID"))
	b = b.And()
	b = mustBuilder(t)(b.WhereBetween("created_at", "2026-01-01", "2026-12-31"))
	b = b.Or()
	b = mustBuilder(t)(b.WhereIn("channel", []any{"web", "store"}))
	b = mustBuilder(t)(b.GroupBy("customer_id"))
	b = mustBuilder(t)(b.Having("SUM(total)", ">=", 100))
	b = mustBuilder(t)(b.OrderByDescending("total"))
	b = mustBuilder(t)(b.Page(2, 25))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "complex_query", []byte(b.ToSQL()))
}

func TestToSQL_Golden_SubqueryComposition(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	b = mustBuilder(t)(b.Where("active", true))

	orders := mustBuilder(t)(b.Subquery("Order"))
	orders = mustBuilder(t)(orders.Select("user_id"))
	orders = mustBuilder(t)(orders.WhereOp("total", ">", 1000))

	b = b.And()
	b = mustBuilder(t)(b.WhereInSubquery("id", orders))
	b = b.Not()
	b = mustBuilder(t)(b.WhereLike("email", "%@spam.example"))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "subquery_composition", []byte(b.ToSQL()))
}

func TestMaliciousValues_OnlyInParameterMap(t *testing.T) {
	payload := "'; DROP TABLE users; --"

	b := mustBuilder(t)(ForEntity("User"))
	b = mustBuilder(t)(b.Where("name", payload))
	b = b.And()
	b = mustBuilder(t)(b.WhereLike("email", payload))

	sql := b.ToSQL()
	assert.NotContains(t, sql, payload)
	assert.NotContains(t, sql, "DROP TABLE")

	params := b.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, payload, params["p1"])
	assert.Equal(t, payload, params["p2"])
}
