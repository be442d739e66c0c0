package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/schema"
	"emberql/storage"
	"emberql/storage/memory"
	"emberql/value"
)

func newTable(name string) *schema.Table {
	return &schema.Table{
		Name: name,
		Columns: []schema.Column{
			{Name: "id", Type: value.KindI64, Primary: true},
			{Name: "name", Type: value.KindText},
		},
	}
}

func TestMemoryStoreSchemaLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.InsertSchema(ctx, newTable("users")))

	err := s.InsertSchema(ctx, newTable("users"))
	assert.Error(t, err)

	got, ok, err := s.FetchSchema(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "users", got.Name)

	require.NoError(t, s.DeleteSchema(ctx, "users"))
	_, ok, err = s.FetchSchema(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, s.DeleteSchema(ctx, "users"))
}

func TestMemoryStoreAppendScanDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.InsertSchema(ctx, newTable("users")))

	keys, err := s.AppendData(ctx, "users", []storage.Row{
		{Values: []value.Value{value.I64(1), value.Text("ada")}},
		{Values: []value.Value{value.I64(2), value.Text("grace")}},
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	stream, err := s.ScanData(ctx, "users")
	require.NoError(t, err)
	defer stream.Close()

	var rows []storage.KeyedRow
	for {
		kr, ok, err := stream.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, kr)
	}
	require.Len(t, rows, 2)

	require.NoError(t, s.DeleteData(ctx, "users", []value.Key{keys[0]}))
	stream2, err := s.ScanData(ctx, "users")
	require.NoError(t, err)
	defer stream2.Close()

	var remaining int
	for {
		_, ok, err := stream2.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		remaining++
	}
	assert.Equal(t, 1, remaining)
}

func TestMemoryStoreIndexScan(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.InsertSchema(ctx, newTable("users")))

	_, err := s.AppendData(ctx, "users", []storage.Row{
		{Values: []value.Value{value.I64(1), value.Text("ada")}},
		{Values: []value.Value{value.I64(2), value.Text("grace")}},
		{Values: []value.Value{value.I64(3), value.Text("grace")}},
	})
	require.NoError(t, err)

	require.NoError(t, s.CreateIndex(ctx, "users", "by_name", func(r storage.Row) (value.Value, error) {
		return r.Values[1], nil
	}))

	stream, err := s.ScanIndexedData(ctx, "users", "by_name", storage.IndexEq, value.Text("grace"))
	require.NoError(t, err)
	defer stream.Close()

	var count int
	for {
		_, ok, err := stream.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestMemoryStoreAdvisoryTransaction(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	autoCommit, err := s.Begin(ctx, false)
	require.NoError(t, err)
	assert.False(t, autoCommit)

	_, err = s.Begin(ctx, false)
	assert.Error(t, err)

	require.NoError(t, s.Commit(ctx))
}

func TestMemoryStoreSupports(t *testing.T) {
	s := memory.New()
	assert.True(t, s.Supports(storage.FeatureIndex))
	assert.True(t, s.Supports(storage.FeatureTransaction))
	assert.True(t, s.Supports(storage.FeatureAlterTable))
}
