package exec

import (
	"context"

	"emberql/ast"
	"emberql/schema"
	"emberql/storage"
	"emberql/validate"
	"emberql/value"
)

// buildInsertRow resolves one source row (already evaluated into column
// order) into a storage.Row, applying column defaults for any column the
// statement omitted.
func (e *Engine) buildInsertRow(ctx context.Context, t *schema.Table, columns []string, vals []value.Value) (storage.Row, error) {
	if t.Schemaless() {
		if len(vals) != 1 {
			return storage.Row{}, &Error{Op: "ConflictOnStorageColumnIndex", Msg: "schemaless insert takes exactly one document value"}
		}
		if vals[0].Kind() != value.KindMap {
			return storage.Row{}, &Error{Op: "IncompatibleDataType", Msg: "schemaless insert requires a JSON object value"}
		}
		return storage.Row{Doc: vals[0].MapOf()}, nil
	}

	given := make(map[string]value.Value, len(columns))
	for i, c := range columns {
		given[c] = vals[i]
	}

	out := make([]value.Value, len(t.Columns))
	for i, c := range t.Columns {
		if v, ok := given[c.Name]; ok {
			out[i] = v
			continue
		}
		if c.Default != nil {
			v, err := e.Eval.Eval(ctx, c.Default, nil)
			if err != nil {
				return storage.Row{}, err
			}
			out[i] = v
			continue
		}
		out[i] = value.Null()
	}
	return storage.Row{Values: out}, nil
}

func (e *Engine) execInsert(ctx context.Context, stmt *ast.Insert) (Payload, error) {
	t, ok := e.schemas.Schema(stmt.Table)
	if !ok {
		return Payload{}, schema.ErrTableNotFound(stmt.Table)
	}

	_, srcRows, err := e.runQuery(ctx, stmt.Source, nil)
	if err != nil {
		return Payload{}, err
	}

	columns := stmt.Columns
	if len(columns) == 0 && !t.Schemaless() {
		columns = columnNames(t)
	}

	rows := make([]storage.Row, len(srcRows))
	for i, sv := range srcRows {
		row, err := e.buildInsertRow(ctx, t, columns, sv)
		if err != nil {
			return Payload{}, err
		}
		rows[i] = row
	}

	count := 0
	err = e.withAutoCommit(ctx, func() error {
		for _, row := range rows {
			if err := validate.CheckRowShape(t, validate.Row{Values: row.Values, Doc: row.Doc}); err != nil {
				return err
			}
			if err := validate.CheckNullability(t, validate.Row{Values: row.Values, Doc: row.Doc}); err != nil {
				return err
			}
			if err := validate.CheckUniqueAgainstStore(ctx, e.Store, t, validate.Row{Values: row.Values, Doc: row.Doc}, value.None()); err != nil {
				return err
			}
			if err := validate.CheckForeignKeys(ctx, e.Store, e.schemas, t, validate.Row{Values: row.Values, Doc: row.Doc}); err != nil {
				return err
			}

			key, err := validate.BuildKey(t, validate.Row{Values: row.Values, Doc: row.Doc})
			if err != nil {
				return err
			}
			if key.IsNone() {
				if _, err := e.Store.AppendData(ctx, t.Name, []storage.Row{row}); err != nil {
					return err
				}
			} else {
				if err := e.Store.InsertData(ctx, t.Name, []storage.KeyedRow{{Key: key, Row: row}}); err != nil {
					return err
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: PayloadInsert, Count: count}, nil
}

// execUpdate implements the UPDATE path: rows matching Selection are
// re-evaluated one assignment at a time against their own pre-update row
// context, revalidated, and written back by key.
func (e *Engine) execUpdate(ctx context.Context, stmt *ast.Update) (Payload, error) {
	t, ok := e.schemas.Schema(stmt.Table)
	if !ok {
		return Payload{}, schema.ErrTableNotFound(stmt.Table)
	}
	for _, a := range stmt.Assignments {
		if col, ok := t.ColumnByName(a.Column); ok && col.Primary {
			return Payload{}, &validate.ErrUpdateOnPrimaryKeyNotSupported{Table: t.Name, Column: a.Column}
		}
	}

	count := 0
	err := e.withAutoCommit(ctx, func() error {
		stream, err := e.Store.ScanData(ctx, t.Name)
		if err != nil {
			return err
		}
		defer stream.Close()

		var updates []storage.KeyedRow
		for {
			kr, ok, err := stream.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			rc := rowContextFor(t, t.Name, kr.Row)
			matched, err := evalPredicateBool(ctx, e.Eval, stmt.Selection, rc)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}

			updated := cloneRow(kr.Row)
			for _, a := range stmt.Assignments {
				v, err := e.Eval.Eval(ctx, &a.Value, rc)
				if err != nil {
					return err
				}
				if err := setColumnValue(t, &updated, a.Column, v); err != nil {
					return err
				}
			}

			vr := validate.Row{Values: updated.Values, Doc: updated.Doc}
			if err := validate.CheckNullability(t, vr); err != nil {
				return err
			}
			if err := validate.CheckUniqueAgainstStore(ctx, e.Store, t, vr, kr.Key); err != nil {
				return err
			}
			if err := validate.CheckForeignKeys(ctx, e.Store, e.schemas, t, vr); err != nil {
				return err
			}
			updates = append(updates, storage.KeyedRow{Key: kr.Key, Row: updated})
		}

		if len(updates) == 0 {
			return nil
		}
		if err := e.Store.InsertData(ctx, t.Name, updates); err != nil {
			return err
		}
		count = len(updates)
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: PayloadUpdate, Count: count}, nil
}

func cloneRow(r storage.Row) storage.Row {
	if r.Schemaless() {
		cp := value.NewMap()
		for pair := r.Doc.Oldest(); pair != nil; pair = pair.Next() {
			cp.Set(pair.Key, pair.Value)
		}
		return storage.Row{Doc: cp}
	}
	vals := make([]value.Value, len(r.Values))
	copy(vals, r.Values)
	return storage.Row{Values: vals}
}

func setColumnValue(t *schema.Table, r *storage.Row, column string, v value.Value) error {
	if t.Schemaless() {
		r.Doc.Set(column, v)
		return nil
	}
	for i, c := range t.Columns {
		if c.Name == column {
			r.Values[i] = v
			return nil
		}
	}
	return schema.ErrColumnNotFound(t.Name, column)
}

// execDelete implements the DELETE path, including the foreign-key
// action walk across every table referencing this one: NoAction/Restrict
// reject a delete that would orphan a reference, Cascade recursively
// deletes the referencing rows, and SetNull/SetDefault update them in
// place instead.
func (e *Engine) execDelete(ctx context.Context, stmt *ast.Delete) (Payload, error) {
	t, ok := e.schemas.Schema(stmt.Table)
	if !ok {
		return Payload{}, schema.ErrTableNotFound(stmt.Table)
	}

	count := 0
	err := e.withAutoCommit(ctx, func() error {
		matches, err := e.matchingKeyedRows(ctx, t, stmt.Selection)
		if err != nil {
			return err
		}
		for _, kr := range matches {
			if err := e.deleteRowWithReferences(ctx, t, kr); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: PayloadDelete, Count: count}, nil
}

func (e *Engine) matchingKeyedRows(ctx context.Context, t *schema.Table, selection ast.Expr) ([]storage.KeyedRow, error) {
	stream, err := e.Store.ScanData(ctx, t.Name)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var out []storage.KeyedRow
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rc := rowContextFor(t, t.Name, kr.Row)
		matched, err := evalPredicateBool(ctx, e.Eval, selection, rc)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, kr)
		}
	}
	return out, nil
}

func (e *Engine) deleteRowWithReferences(ctx context.Context, t *schema.Table, kr storage.KeyedRow) error {
	refs := validate.ReferencingForeignKeys(e.schemas.all(), t.Name)
	for _, ref := range refs {
		referencing, err := e.matchingReferencingRows(ctx, ref, t, kr)
		if err != nil {
			return err
		}
		if len(referencing) == 0 {
			continue
		}
		action := ref.FK.OnDelete
		switch action {
		case ast.FKCascade:
			for _, rr := range referencing {
				if err := e.deleteRowWithReferences(ctx, ref.Table, rr); err != nil {
					return err
				}
			}
		case ast.FKSetNull, ast.FKSetDefault:
			var updates []storage.KeyedRow
			for _, rr := range referencing {
				updated := cloneRow(rr.Row)
				for _, col := range ref.FK.Columns {
					var v value.Value
					if action == ast.FKSetDefault {
						fc, _ := ref.Table.ColumnByName(col)
						if fc != nil && fc.Default != nil {
							dv, err := e.Eval.Eval(ctx, fc.Default, nil)
							if err != nil {
								return err
							}
							v = dv
						} else {
							v = value.Null()
						}
					} else {
						v = value.Null()
					}
					if err := setColumnValue(ref.Table, &updated, col, v); err != nil {
						return err
					}
				}
				updates = append(updates, storage.KeyedRow{Key: rr.Key, Row: updated})
			}
			if err := e.Store.InsertData(ctx, ref.Table.Name, updates); err != nil {
				return err
			}
		default: // FKNoAction, FKRestrict
			return &validate.ErrCannotFindReferencedValue{Table: ref.Table.Name, Column: ref.FK.Columns[0], Value: "referenced row has dependents"}
		}
	}
	return e.Store.DeleteData(ctx, t.Name, []value.Key{kr.Key})
}

// matchingReferencingRows scans ref.Table for rows whose foreign-key
// columns resolve to target's primary key.
func (e *Engine) matchingReferencingRows(ctx context.Context, ref validate.ReferencingForeignKey, target *schema.Table, targetRow storage.KeyedRow) ([]storage.KeyedRow, error) {
	targetVals := make([]value.Value, 0, len(ref.FK.ReferencedColumns))
	for _, col := range ref.FK.ReferencedColumns {
		v, ok := columnValueOf(target, targetRow.Row, col)
		if !ok {
			return nil, schema.ErrColumnNotFound(target.Name, col)
		}
		targetVals = append(targetVals, v)
	}

	stream, err := e.Store.ScanData(ctx, ref.Table.Name)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var out []storage.KeyedRow
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		match := true
		for i, col := range ref.FK.Columns {
			v, ok := columnValueOf(ref.Table, kr.Row, col)
			if !ok || v.IsNull() || value.Compare(v, targetVals[i]) != value.Equal {
				match = false
				break
			}
		}
		if match {
			out = append(out, kr)
		}
	}
	return out, nil
}

func columnValueOf(t *schema.Table, r storage.Row, column string) (value.Value, bool) {
	if t.Schemaless() {
		if r.Doc == nil {
			return value.Value{}, false
		}
		return r.Doc.Get(column)
	}
	for i, c := range t.Columns {
		if c.Name == column {
			if i >= len(r.Values) {
				return value.Value{}, false
			}
			return r.Values[i], true
		}
	}
	return value.Value{}, false
}
