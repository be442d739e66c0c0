package validate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/ast"
	"emberql/schema"
	"emberql/storage"
	"emberql/storage/memory"
	"emberql/validate"
	"emberql/value"
)

func usersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: value.KindI64, Primary: true},
			{Name: "email", Type: value.KindText, Unique: true},
			{Name: "name", Type: value.KindText},
		},
	}
}

func TestCheckRowShapeRejectsWidthMismatch(t *testing.T) {
	tbl := usersTable()
	err := validate.CheckRowShape(tbl, validate.Row{Values: []value.Value{value.I64(1)}})
	assert.Error(t, err)
}

func TestCheckRowShapeRejectsSchemalessOnStructuredTable(t *testing.T) {
	tbl := usersTable()
	doc := value.NewMap()
	err := validate.CheckRowShape(tbl, validate.Row{Doc: doc})
	assert.Error(t, err)
}

func TestCheckNullabilityRejectsNullOnNonNullableColumn(t *testing.T) {
	tbl := usersTable()
	tbl.Columns[2].Nullable = true
	row := validate.Row{Values: []value.Value{value.I64(1), value.Text("a@b.com"), value.Null()}}
	assert.NoError(t, validate.CheckNullability(tbl, row))

	row2 := validate.Row{Values: []value.Value{value.I64(1), value.Null(), value.Text("ada")}}
	assert.Error(t, validate.CheckNullability(tbl, row2))
}

func TestBuildKeyFromPrimaryColumn(t *testing.T) {
	tbl := usersTable()
	row := validate.Row{Values: []value.Value{value.I64(7), value.Text("a@b.com"), value.Text("ada")}}
	k, err := validate.BuildKey(tbl, row)
	require.NoError(t, err)
	assert.False(t, k.IsNone())
}

func TestBuildKeyRowidOnlyTable(t *testing.T) {
	tbl := &schema.Table{Name: "events", Columns: []schema.Column{{Name: "payload", Type: value.KindText}}}
	row := validate.Row{Values: []value.Value{value.Text("x")}}
	k, err := validate.BuildKey(tbl, row)
	require.NoError(t, err)
	assert.True(t, k.IsNone())
}

func TestCheckUniqueAgainstStoreDetectsPrimaryKeyCollision(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	tbl := usersTable()
	require.NoError(t, s.InsertSchema(ctx, tbl))

	_, err := s.AppendData(ctx, "users", []storage.Row{
		{Values: []value.Value{value.I64(1), value.Text("a@b.com"), value.Text("ada")}},
	})
	require.NoError(t, err)

	dup := validate.Row{Values: []value.Value{value.I64(1), value.Text("other@b.com"), value.Text("grace")}}
	err = validate.CheckUniqueAgainstStore(ctx, s, tbl, dup, value.None())
	assert.Error(t, err)
}

func TestCheckUniqueAgainstStoreAllowsSelfOnExcludedKey(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	tbl := usersTable()
	require.NoError(t, s.InsertSchema(ctx, tbl))

	keys, err := s.AppendData(ctx, "users", []storage.Row{
		{Values: []value.Value{value.I64(1), value.Text("a@b.com"), value.Text("ada")}},
	})
	require.NoError(t, err)

	row := validate.Row{Values: []value.Value{value.I64(1), value.Text("a@b.com"), value.Text("ada lovelace")}}
	err = validate.CheckUniqueAgainstStore(ctx, s, tbl, row, keys[0])
	assert.NoError(t, err)
}

func TestReferencingForeignKeysFindsReferences(t *testing.T) {
	users := usersTable()
	orders := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: value.KindI64, Primary: true},
			{Name: "user_id", Type: value.KindI64},
		},
		ForeignKeys: []ast.ForeignKeyConstraint{
			{Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
		},
	}

	refs := validate.ReferencingForeignKeys([]*schema.Table{users, orders}, "users")
	require.Len(t, refs, 1)
	assert.Equal(t, "orders", refs[0].Table.Name)
}
