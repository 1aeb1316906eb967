package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubExecutor_AlwaysEmpty(t *testing.T) {
	exec := NewStubExecutor(nil)
	ctx := context.Background()

	rows, err := exec.Query(ctx, "SELECT * FROM User", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	count, err := exec.Count(ctx, "SELECT COUNT(*) FROM User", nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := exec.Exists(ctx, "SELECT 1 FROM User", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuild_SnapshotsQueryState(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	b = mustBuilder(t)(b.Where("active", true))

	compiled, err := b.Build(context.Background(), NewStubExecutor(nil))
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM User WHERE active = :p1", compiled.SQL())
	assert.Equal(t, map[string]any{"p1": true}, compiled.BoundParameters())
	assert.Zero(t, compiled.Count())

	_, ok := compiled.First()
	assert.False(t, ok)
	assert.Empty(t, compiled.All())
}

func TestCountWithExistsWith(t *testing.T) {
	b := mustBuilder(t)(ForEntity("User"))
	exec := NewStubExecutor(nil)

	count, err := b.CountWith(context.Background(), exec)
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := b.ExistsWith(context.Background(), exec)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCompiled_AccessorsAreCopies(t *testing.T) {
	c := &Compiled{
		rows:   []map[string]any{{"id": 1}, {"id": 2}},
		sql:    "SELECT id FROM User",
		params: map[string]any{"p1": true},
	}

	assert.Equal(t, 2, c.Count())

	first, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, 1, first["id"])

	all := c.All()
	all[0] = nil
	again, _ := c.First()
	assert.NotNil(t, again)

	params := c.BoundParameters()
	params["p1"] = "mutated"
	assert.Equal(t, true, c.BoundParameters()["p1"])
}
