package glue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/exec"
	"emberql/glue"
	"emberql/storage/memory"
)

func TestGlueExecuteCreateInsertSelect(t *testing.T) {
	ctx := context.Background()
	g, err := glue.New(ctx, memory.New(), glue.Config{}, nil)
	require.NoError(t, err)
	defer func() { _ = g.Close(ctx) }()

	payloads, err := g.Execute(ctx, `
		CREATE TABLE users (id INT PRIMARY KEY, name TEXT);
		INSERT INTO users (id, name) VALUES (1, 'ada');
		SELECT id, name FROM users;
	`)
	require.NoError(t, err)
	require.Len(t, payloads, 3)

	assert.Equal(t, exec.PayloadCreateTable, payloads[0].Kind)

	assert.Equal(t, exec.PayloadInsert, payloads[1].Kind)
	assert.Equal(t, 1, payloads[1].Count)

	sel := payloads[2]
	assert.Equal(t, exec.PayloadSelect, sel.Kind)
	require.Len(t, sel.Rows, 1)
	assert.Equal(t, []string{"id", "name"}, sel.Labels)
}

func TestGlueExecuteAbortsBatchOnError(t *testing.T) {
	ctx := context.Background()
	g, err := glue.New(ctx, memory.New(), glue.Config{}, nil)
	require.NoError(t, err)
	defer func() { _ = g.Close(ctx) }()

	payloads, err := g.Execute(ctx, `
		CREATE TABLE t (id INT PRIMARY KEY);
		SELECT * FROM does_not_exist;
		INSERT INTO t (id) VALUES (1);
	`)
	require.Error(t, err)
	// the failing statement's error is still reachable; only the payload
	// for the statement before it is returned.
	require.Len(t, payloads, 1)
	assert.Equal(t, exec.PayloadCreateTable, payloads[0].Kind)
}

func TestGluePlanIsPure(t *testing.T) {
	ctx := context.Background()
	g, err := glue.New(ctx, memory.New(), glue.Config{}, nil)
	require.NoError(t, err)
	defer func() { _ = g.Close(ctx) }()

	_, err = g.Execute(ctx, `CREATE TABLE t (id INT PRIMARY KEY);`)
	require.NoError(t, err)

	a, err := g.Plan(ctx, `SELECT id FROM t WHERE id = 1;`)
	require.NoError(t, err)
	b, err := g.Plan(ctx, `SELECT id FROM t WHERE id = 1;`)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGlueDefaultConfigUsedOnZeroValue(t *testing.T) {
	cfg := glue.Config{}
	assert.Equal(t, glue.Config{}, cfg)
	ctx := context.Background()
	g, err := glue.New(ctx, memory.New(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = g.Close(ctx) }()
}
