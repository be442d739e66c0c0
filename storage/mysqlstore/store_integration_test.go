package mysqlstore_test

import (
	"context"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"emberql/exec"
	"emberql/glue"
	"emberql/storage/mysqlstore"
)

// setupMySQL starts a throwaway MySQL container, returning a DSN every test case
// can open its own *mysqlstore.Store against.
func setupMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("emberql_test"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")
	return dsn
}

// TestTransactionIsolationAcrossSessions is scenario 6: two independent
// sessions over the same backend, where an uncommitted CREATE TABLE + INSERT
// in one session is invisible to the other until COMMIT.
func TestTransactionIsolationAcrossSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dsn := setupMySQL(t)

	store1, err := mysqlstore.Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer store1.Close(ctx)
	g1, err := glue.New(ctx, store1, glue.Config{}, nil)
	require.NoError(t, err)

	store2, err := mysqlstore.Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer store2.Close(ctx)
	g2, err := glue.New(ctx, store2, glue.Config{}, nil)
	require.NoError(t, err)

	_, err = g1.Execute(ctx, `START TRANSACTION;`)
	require.NoError(t, err)
	_, err = g1.Execute(ctx, `CREATE TABLE T (id INT PRIMARY KEY);`)
	require.NoError(t, err)
	_, err = g1.Execute(ctx, `INSERT INTO T (id) VALUES (1);`)
	require.NoError(t, err)

	_, err = g2.Execute(ctx, `SELECT * FROM T;`)
	assert.Error(t, err, "S2 must not see S1's uncommitted CREATE TABLE")

	_, err = g1.Execute(ctx, `COMMIT;`)
	require.NoError(t, err)

	payloads, err := g2.Execute(ctx, `START TRANSACTION; SELECT * FROM T;`)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	sel := payloads[1]
	require.Equal(t, exec.PayloadSelect, sel.Kind)
	assert.Len(t, sel.Rows, 1)
	_, err = g2.Execute(ctx, `COMMIT;`)
	require.NoError(t, err)
}

// TestMySQLStoreEndToEnd exercises CREATE TABLE, INSERT, SELECT and an
// index create/drop through a real database, matching scenario 4 against
// the conformance backend rather than the in-memory reference one.
func TestMySQLStoreEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dsn := setupMySQL(t)

	store, err := mysqlstore.Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer store.Close(ctx)
	g, err := glue.New(ctx, store, glue.Config{}, nil)
	require.NoError(t, err)

	payloads, err := g.Execute(ctx, `
		CREATE TABLE Referenced (id INT PRIMARY KEY);
		INSERT INTO Referenced (id) VALUES (1), (2), (3);
		CREATE TABLE Test (id INT PRIMARY KEY, num INT, name TEXT);
		INSERT INTO Test (id, num, name) VALUES (1, 10, 'a'), (2, 20, 'b');
		CREATE INDEX idx_id ON Test(id);
		SELECT id, num FROM Test WHERE id = 1;
	`)
	require.NoError(t, err)
	require.Len(t, payloads, 6)

	sel := payloads[5]
	require.Equal(t, exec.PayloadSelect, sel.Kind)
	require.Len(t, sel.Rows, 1)

	_, err = g.Execute(ctx, `DROP INDEX idx_id ON Test;`)
	require.NoError(t, err)

	payloads, err = g.Execute(ctx, `SELECT id, num FROM Test WHERE id = 1;`)
	require.NoError(t, err)
	require.Len(t, payloads[0].Rows, 1)
}
