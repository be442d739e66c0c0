package mysqlstore

import (
	"encoding/json"

	"emberql/ast"
	"emberql/schema"
	"emberql/value"
)

type columnWire struct {
	Name     string          `json:"name"`
	Type     uint8           `json:"type"`
	Nullable bool            `json:"nullable"`
	Default  json.RawMessage `json:"default,omitempty"`
	Unique   bool            `json:"unique"`
	Primary  bool            `json:"primary"`
}

type indexWire struct {
	Name       string          `json:"name"`
	Expression json.RawMessage `json:"expression"`
}

type tableWire struct {
	Name        string                      `json:"name"`
	Columns     []columnWire                `json:"columns,omitempty"`
	Indexes     []indexWire                 `json:"indexes,omitempty"`
	ForeignKeys []ast.ForeignKeyConstraint  `json:"foreign_keys,omitempty"`
	Comment     string                      `json:"comment,omitempty"`
}

// encodeSchema renders a schema.Table to the JSON blob persisted in the
// emberql_schemas catalog table's definition column.
func encodeSchema(t *schema.Table) ([]byte, error) {
	w := tableWire{Name: t.Name, Comment: t.Comment, ForeignKeys: t.ForeignKeys}
	if t.Columns != nil {
		w.Columns = make([]columnWire, 0, len(t.Columns))
		for _, c := range t.Columns {
			defBytes, err := marshalExprPtr(c.Default)
			if err != nil {
				return nil, err
			}
			w.Columns = append(w.Columns, columnWire{
				Name: c.Name, Type: uint8(c.Type), Nullable: c.Nullable,
				Default: defBytes, Unique: c.Unique, Primary: c.Primary,
			})
		}
	}
	for _, idx := range t.Indexes {
		exprBytes, err := marshalExprPtr(&idx.Expression)
		if err != nil {
			return nil, err
		}
		w.Indexes = append(w.Indexes, indexWire{Name: idx.Name, Expression: exprBytes})
	}
	return json.Marshal(w)
}

func decodeSchema(b []byte) (*schema.Table, error) {
	var w tableWire
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	t := &schema.Table{Name: w.Name, Comment: w.Comment, ForeignKeys: w.ForeignKeys}
	if w.Columns != nil {
		t.Columns = make([]schema.Column, 0, len(w.Columns))
		for _, c := range w.Columns {
			def, err := unmarshalExprPtr(c.Default)
			if err != nil {
				return nil, err
			}
			t.Columns = append(t.Columns, schema.Column{
				Name: c.Name, Type: value.Kind(c.Type), Nullable: c.Nullable,
				Default: def, Unique: c.Unique, Primary: c.Primary,
			})
		}
	}
	for _, idx := range w.Indexes {
		expr, err := unmarshalExprPtr(idx.Expression)
		if err != nil {
			return nil, err
		}
		if expr == nil {
			continue
		}
		t.Indexes = append(t.Indexes, schema.Index{Name: idx.Name, Expression: *expr})
	}
	return t, nil
}
