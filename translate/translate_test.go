package translate_test

import (
	"testing"

	tiparser "github.com/pingcap/tidb/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/ast"
	"emberql/translate"
)

func TestTranslateCreateTable(t *testing.T) {
	p := tiparser.New()
	stmts, _, err := p.Parse(`CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(255) NOT NULL)`, "", "")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	tr := translate.New()
	out, err := tr.Translate(stmts[0])
	require.NoError(t, err)

	ct, ok := out.(*ast.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "users", ct.Table)
	require.Len(t, ct.Columns, 2)
	assert.Equal(t, "id", ct.Columns[0].Name)
	assert.Equal(t, "name", ct.Columns[1].Name)
}

func TestTranslateSelect(t *testing.T) {
	p := tiparser.New()
	stmts, _, err := p.Parse(`SELECT id, name FROM users WHERE id = 1 ORDER BY name`, "", "")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	tr := translate.New()
	out, err := tr.Translate(stmts[0])
	require.NoError(t, err)

	q, ok := out.(*ast.Query)
	require.True(t, ok)
	require.NotNil(t, q.Body)
}

func TestTranslateInsert(t *testing.T) {
	p := tiparser.New()
	stmts, _, err := p.Parse(`INSERT INTO users (id, name) VALUES (1, 'ada')`, "", "")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	tr := translate.New()
	out, err := tr.Translate(stmts[0])
	require.NoError(t, err)

	ins, ok := out.(*ast.Insert)
	require.True(t, ok)
	assert.Equal(t, "users", ins.Table)
}

func TestTranslateDropTable(t *testing.T) {
	p := tiparser.New()
	stmts, _, err := p.Parse(`DROP TABLE IF EXISTS users`, "", "")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	tr := translate.New()
	out, err := tr.Translate(stmts[0])
	require.NoError(t, err)

	dt, ok := out.(*ast.DropTable)
	require.True(t, ok)
	assert.Equal(t, "users", dt.Table)
	assert.True(t, dt.IfExists)
}
