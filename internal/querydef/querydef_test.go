package querydef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/config"
)

const docExample = `
query: {
	entity: "User"
	select: ["id", "name"]
	filters: [
		{field: "active", value: true},
		{combine: "and", field: "status", values: ["A", "B"]},
	]
	orderBy: [{field: "name"}]
	page: {number: 2, size: 10}
}
`

func TestParse_DocExample(t *testing.T) {
	def, err := Parse([]byte(docExample))
	require.NoError(t, err)

	assert.Equal(t, "User", def.Entity)
	assert.Equal(t, []string{"id", "name"}, def.Select)
	require.Len(t, def.Filters, 2)
	assert.Equal(t, "active", def.Filters[0].Field)
	assert.Equal(t, true, def.Filters[0].Value)
	assert.Equal(t, "and", def.Filters[1].Combine)
	assert.Equal(t, []any{"A", "B"}, def.Filters[1].Values)
	require.NotNil(t, def.Page)
	assert.Equal(t, 2, def.Page.Number)
}

func TestParse_UnwrappedDocument(t *testing.T) {
	def, err := Parse([]byte("entity: \"Order\"\nlimit: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, "Order", def.Entity)
	assert.Equal(t, 5, def.Limit)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`query: {select: ["id"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity")

	_, err = Parse([]byte(`query: {entity: "User"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling CUE")

	_, err = Parse([]byte(`query: {entity: "User", filters: "nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding query definition")
}

func TestBuild_DocExample(t *testing.T) {
	def, err := Parse([]byte(docExample))
	require.NoError(t, err)

	b, err := def.Build(config.Default())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, name FROM User WHERE (active = :p1 AND status IN (:p2_0, :p2_1)) ORDER BY name ASC LIMIT 10 OFFSET 10",
		b.ToSQL())
	assert.Equal(t, map[string]any{
		"p1":   true,
		"p2_0": "A",
		"p2_1": "B",
	}, b.Parameters())
}

func TestBuild_FilterShapes(t *testing.T) {
	isNull := true
	def := &QueryDef{
		Entity: "User",
		Filters: []FilterDef{
			{Field: "email", Like: "%@example.com"},
			{Combine: "and", Field: "age", Between: &RangeDef{Start: 18, End: 65}},
			{Combine: "or", Field: "deleted_at", Null: &isNull},
		},
	}

	b, err := def.Build(config.Default())
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM User WHERE ((email LIKE :p1 AND age BETWEEN :p2_start AND :p2_end) OR deleted_at IS NULL)",
		b.ToSQL())
}

func TestBuild_JoinsHavingNative(t *testing.T) {
	def := &QueryDef{
		Entity:  "Order",
		Joins:   []JoinDef{{Path: "customer"}, {Kind: "left", Path: "items"}},
		GroupBy: []string{"customer_id"},
		Having:  []HavingDef{{Target: "SUM(total)", Op: ">", Value: 100}},
	}
	b, err := def.Build(config.Default())
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM Order JOIN customer LEFT JOIN items GROUP BY customer_id HAVING SUM(total) > :p1",
		b.ToSQL())

	native := &QueryDef{
		Entity: "Order",
		Native: "SELECT 1 FROM orders WHERE id = :id",
		Params: map[string]any{"id": 7},
	}
	b, err = native.Build(config.Default())
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM orders WHERE id = :id", b.ToSQL())
	assert.Equal(t, map[string]any{"id": 7}, b.Parameters())
}

func TestBuild_Errors(t *testing.T) {
	_, err := (&QueryDef{
		Entity:  "User",
		Filters: []FilterDef{{Combine: "xor", Field: "a", Value: 1}},
	}).Build(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filters[0]")
	assert.Contains(t, err.Error(), "xor")

	_, err = (&QueryDef{
		Entity: "User",
		Joins:  []JoinDef{{Kind: "cross", Path: "x"}},
	}).Build(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "joins[0]")

	_, err = (&QueryDef{
		Entity:  "User",
		Filters: []FilterDef{{Field: "name; DROP TABLE users", Value: 1}},
	}).Build(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filters[0]")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.cue")
	require.NoError(t, os.WriteFile(path, []byte(docExample), 0o644))

	def, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "User", def.Entity)

	_, err = LoadFile(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.cue")

	bad := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(`query: {`), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.cue")
}
