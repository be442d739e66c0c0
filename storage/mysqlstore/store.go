// Package mysqlstore is a reference storage backend that persists the
// engine's catalog, rows and index entries to a real MySQL database via
// database/sql and github.com/go-sql-driver/mysql. Unlike storage/memory,
// transactions here are real (*sql.Tx), so it is also the
// contract-conformance backend the snapshot-isolation scenario can run
// against.
//
// Table data is stored generically, not mapped onto native MySQL column
// types: one physical row per (table, key) pair, with the logical row and
// index values encoded as VARBINARY/BLOB payloads by codec.go. This keeps
// the backend honest about the contract it implements rather than
// smuggling MySQL's own type system in underneath it.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"emberql/schema"
	"emberql/storage"
	"emberql/value"
)

const ddl = `
CREATE TABLE IF NOT EXISTS emberql_meta (
	k VARCHAR(64) PRIMARY KEY,
	v VARCHAR(255) NOT NULL
);
CREATE TABLE IF NOT EXISTS emberql_schemas (
	name VARCHAR(255) PRIMARY KEY,
	definition LONGBLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS emberql_rows (
	table_name VARCHAR(255) NOT NULL,
	key_bytes VARBINARY(767) NOT NULL,
	row_bytes LONGBLOB NOT NULL,
	PRIMARY KEY (table_name, key_bytes)
);
CREATE TABLE IF NOT EXISTS emberql_indexes (
	table_name VARCHAR(255) NOT NULL,
	index_name VARCHAR(255) NOT NULL,
	value_bytes VARBINARY(767) NOT NULL,
	key_bytes VARBINARY(767) NOT NULL,
	PRIMARY KEY (table_name, index_name, value_bytes, key_bytes)
);
`

// Store is the mysqlstore reference backend. querier abstracts over *sql.DB
// and *sql.Tx so every operation runs against whichever is currently active
// without two parallel method sets.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	tx *sql.Tx // non-nil while an explicit transaction is open
}

// Open connects to dsn (a go-sql-driver/mysql data source name) and ensures
// the catalog tables exist.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("mysqlstore: ping: %w", err)
	}
	for _, stmt := range splitDDL(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("mysqlstore: creating catalog tables: %w", err)
		}
	}
	return &Store{db: db, log: logger}, nil
}

func splitDDL(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			if stmt := trimSpace(s[start:i]); stmt != "" {
				out = append(out, stmt)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\t' || b == '\r' }

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// FormatVersion and Migrate implement storage.Migrator.
func (s *Store) FormatVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT v FROM emberql_meta WHERE k = 'format_version'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Migrate brings a fresh or older store up to storage.CurrentFormatVersion.
// There is only one format generation so far; running it twice is a no-op
// the second time because the INSERT uses an upsert.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO emberql_meta (k, v) VALUES ('format_version', ?)
		 ON DUPLICATE KEY UPDATE v = VALUES(v)`,
		fmt.Sprintf("%d", storage.CurrentFormatVersion))
	return err
}

func (s *Store) FetchAllSchemas(ctx context.Context) ([]*schema.Table, error) {
	rows, err := s.q().QueryContext(ctx, `SELECT name, definition FROM emberql_schemas ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schema.Table
	for rows.Next() {
		var name string
		var def []byte
		if err := rows.Scan(&name, &def); err != nil {
			return nil, err
		}
		t, err := decodeSchema(def)
		if err != nil {
			return nil, fmt.Errorf("mysqlstore: decoding schema %q: %w", name, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) FetchSchema(ctx context.Context, table string) (*schema.Table, bool, error) {
	var def []byte
	err := s.q().QueryRowContext(ctx, `SELECT definition FROM emberql_schemas WHERE name = ?`, table).Scan(&def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	t, err := decodeSchema(def)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Store) InsertSchema(ctx context.Context, t *schema.Table) error {
	s.log.Debug("insert schema", zap.String("table", t.Name))
	def, err := encodeSchema(t)
	if err != nil {
		return err
	}
	_, err = s.q().ExecContext(ctx, `INSERT INTO emberql_schemas (name, definition) VALUES (?, ?)`, t.Name, def)
	return err
}

func (s *Store) DeleteSchema(ctx context.Context, table string) error {
	s.log.Debug("delete schema", zap.String("table", table))
	res, err := s.q().ExecContext(ctx, `DELETE FROM emberql_schemas WHERE name = ?`, table)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound(table)
	}
	_, err = s.q().ExecContext(ctx, `DELETE FROM emberql_rows WHERE table_name = ?`, table)
	if err != nil {
		return err
	}
	_, err = s.q().ExecContext(ctx, `DELETE FROM emberql_indexes WHERE table_name = ?`, table)
	return err
}

func (s *Store) FetchData(ctx context.Context, table string, key value.Key) (storage.Row, bool, error) {
	var raw []byte
	err := s.q().QueryRowContext(ctx,
		`SELECT row_bytes FROM emberql_rows WHERE table_name = ? AND key_bytes = ?`,
		table, key.Encode()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Row{}, false, nil
	}
	if err != nil {
		return storage.Row{}, false, err
	}
	r, err := decodeRow(raw)
	if err != nil {
		return storage.Row{}, false, err
	}
	return r, true, nil
}

type mysqlStream struct {
	rows *sql.Rows
}

func (m *mysqlStream) Next(ctx context.Context) (storage.KeyedRow, bool, error) {
	if !m.rows.Next() {
		return storage.KeyedRow{}, false, m.rows.Err()
	}
	var keyBytes, rowBytes []byte
	if err := m.rows.Scan(&keyBytes, &rowBytes); err != nil {
		return storage.KeyedRow{}, false, err
	}
	k, err := value.Decode(keyBytes)
	if err != nil {
		return storage.KeyedRow{}, false, err
	}
	r, err := decodeRow(rowBytes)
	if err != nil {
		return storage.KeyedRow{}, false, err
	}
	return storage.KeyedRow{Key: k, Row: r}, true, nil
}

func (m *mysqlStream) Close() error { return m.rows.Close() }

// ScanData streams in key_bytes order, which matches the engine's Key
// byte-order-preserving encoding, so natural-scan order here is
// exactly the Key's value order, same as storage/memory's btree order.
func (s *Store) ScanData(ctx context.Context, table string) (storage.RowStream, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT key_bytes, row_bytes FROM emberql_rows WHERE table_name = ? ORDER BY key_bytes`, table)
	if err != nil {
		return nil, err
	}
	return &mysqlStream{rows: rows}, nil
}

// AppendData assigns each row the next value in a per-table rowid counter
// kept in emberql_meta, for tables with no declared primary key.
func (s *Store) AppendData(ctx context.Context, table string, rows []storage.Row) ([]value.Key, error) {
	keys := make([]value.Key, 0, len(rows))
	for _, r := range rows {
		var counter int64
		err := s.q().QueryRowContext(ctx,
			`SELECT v FROM emberql_meta WHERE k = ?`, rowidCounterKey(table)).Scan(&counter)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		next := counter + 1
		if _, err := s.q().ExecContext(ctx,
			`INSERT INTO emberql_meta (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`,
			rowidCounterKey(table), fmt.Sprintf("%d", next)); err != nil {
			return nil, err
		}
		k, err := value.NewKey(value.I64(next))
		if err != nil {
			return nil, err
		}
		encoded, err := encodeRow(r)
		if err != nil {
			return nil, err
		}
		if _, err := s.q().ExecContext(ctx,
			`INSERT INTO emberql_rows (table_name, key_bytes, row_bytes) VALUES (?, ?, ?)`,
			table, k.Encode(), encoded); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func rowidCounterKey(table string) string { return "rowid:" + table }

func (s *Store) InsertData(ctx context.Context, table string, rows []storage.KeyedRow) error {
	for _, kr := range rows {
		encoded, err := encodeRow(kr.Row)
		if err != nil {
			return err
		}
		if _, err := s.q().ExecContext(ctx,
			`INSERT INTO emberql_rows (table_name, key_bytes, row_bytes) VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE row_bytes = VALUES(row_bytes)`,
			table, kr.Key.Encode(), encoded); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteData(ctx context.Context, table string, keys []value.Key) error {
	for _, k := range keys {
		if _, err := s.q().ExecContext(ctx,
			`DELETE FROM emberql_rows WHERE table_name = ? AND key_bytes = ?`, table, k.Encode()); err != nil {
			return err
		}
	}
	return nil
}

// ScanIndexedData implements Index: ascending order for
// Lt/LtEq/Eq/Gt/GtEq, tie-broken by data key, matching storage/memory.
func (s *Store) ScanIndexedData(ctx context.Context, table, index string, op storage.IndexOp, v value.Value) (storage.RowStream, error) {
	k, err := value.NewKey(v)
	if err != nil {
		return nil, err
	}
	var cmp string
	switch op {
	case storage.IndexEq:
		cmp = "="
	case storage.IndexLt:
		cmp = "<"
	case storage.IndexLtEq:
		cmp = "<="
	case storage.IndexGt:
		cmp = ">"
	case storage.IndexGtEq:
		cmp = ">="
	default:
		return nil, fmt.Errorf("mysqlstore: unknown index operator %v", op)
	}

	rows, err := s.q().QueryContext(ctx, fmt.Sprintf(
		`SELECT r.key_bytes, r.row_bytes
		 FROM emberql_indexes i
		 JOIN emberql_rows r ON r.table_name = i.table_name AND r.key_bytes = i.key_bytes
		 WHERE i.table_name = ? AND i.index_name = ? AND i.value_bytes %s ?
		 ORDER BY i.value_bytes ASC, i.key_bytes ASC`, cmp),
		table, index, k.Encode())
	if err != nil {
		return nil, err
	}
	return &mysqlStream{rows: rows}, nil
}

func (s *Store) CreateIndex(ctx context.Context, table, indexName string, expr func(storage.Row) (value.Value, error)) error {
	s.log.Debug("create index", zap.String("table", table), zap.String("index", indexName))
	stream, err := s.ScanData(ctx, table)
	if err != nil {
		return err
	}
	defer stream.Close()

	type entry struct {
		valueBytes, keyBytes []byte
	}
	var entries []entry
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		v, err := expr(kr.Row)
		if err != nil {
			return err
		}
		k, err := value.NewKey(v)
		if err != nil {
			return err
		}
		entries = append(entries, entry{valueBytes: k.Encode(), keyBytes: kr.Key.Encode()})
	}
	for _, e := range entries {
		if _, err := s.q().ExecContext(ctx,
			`INSERT INTO emberql_indexes (table_name, index_name, value_bytes, key_bytes) VALUES (?, ?, ?, ?)`,
			table, indexName, e.valueBytes, e.keyBytes); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DropIndex(ctx context.Context, table, indexName string) error {
	res, err := s.q().ExecContext(ctx,
		`DELETE FROM emberql_indexes WHERE table_name = ? AND index_name = ?`, table, indexName)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound(indexName)
	}
	return nil
}

func (s *Store) RenameSchema(ctx context.Context, oldName, newName string) error {
	t, ok, err := s.FetchSchema(ctx, oldName)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound(oldName)
	}
	t.Name = newName
	def, err := encodeSchema(t)
	if err != nil {
		return err
	}
	if _, err := s.q().ExecContext(ctx, `UPDATE emberql_schemas SET name = ?, definition = ? WHERE name = ?`, newName, def, oldName); err != nil {
		return err
	}
	if _, err := s.q().ExecContext(ctx, `UPDATE emberql_rows SET table_name = ? WHERE table_name = ?`, newName, oldName); err != nil {
		return err
	}
	_, err = s.q().ExecContext(ctx, `UPDATE emberql_indexes SET table_name = ? WHERE table_name = ?`, newName, oldName)
	return err
}

func (s *Store) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	t, ok, err := s.FetchSchema(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound(table)
	}
	col, ok := t.ColumnByName(oldName)
	if !ok {
		return schema.ErrColumnNotFound(table, oldName)
	}
	col.Name = newName
	return s.rewriteSchema(ctx, t)
}

func (s *Store) AddColumn(ctx context.Context, table string, col schema.Column, defaultValue value.Value) error {
	t, ok, err := s.FetchSchema(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound(table)
	}
	t.Columns = append(t.Columns, col)
	if err := s.rewriteSchema(ctx, t); err != nil {
		return err
	}

	stream, err := s.ScanData(ctx, table)
	if err != nil {
		return err
	}
	defer stream.Close()
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		kr.Row.Values = append(kr.Row.Values, defaultValue)
		if err := s.InsertData(ctx, table, []storage.KeyedRow{kr}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DropColumn(ctx context.Context, table, column string) error {
	t, ok, err := s.FetchSchema(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound(table)
	}
	idx := -1
	for i, c := range t.Columns {
		if c.Name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return schema.ErrColumnNotFound(table, column)
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	if err := s.rewriteSchema(ctx, t); err != nil {
		return err
	}

	stream, err := s.ScanData(ctx, table)
	if err != nil {
		return err
	}
	defer stream.Close()
	for {
		kr, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		kr.Row.Values = append(kr.Row.Values[:idx], kr.Row.Values[idx+1:]...)
		if err := s.InsertData(ctx, table, []storage.KeyedRow{kr}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rewriteSchema(ctx context.Context, t *schema.Table) error {
	def, err := encodeSchema(t)
	if err != nil {
		return err
	}
	_, err = s.q().ExecContext(ctx, `UPDATE emberql_schemas SET definition = ? WHERE name = ?`, def, t.Name)
	return err
}

// Begin/Commit/Rollback implement storage.Transaction against a real
// *sql.Tx, unlike storage/memory's advisory degradation.
func (s *Store) Begin(ctx context.Context, autoCommit bool) (bool, error) {
	if s.tx != nil {
		if autoCommit {
			return true, nil
		}
		return false, storage.ErrNestedTransaction()
	}
	if autoCommit {
		return true, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	s.tx = tx
	s.log.Info("begin transaction")
	return false, nil
}

func (s *Store) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("mysqlstore: no transaction to commit")
	}
	err := s.tx.Commit()
	s.tx = nil
	s.log.Info("commit transaction", zap.Error(err))
	return err
}

func (s *Store) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("mysqlstore: no transaction to rollback")
	}
	err := s.tx.Rollback()
	s.tx = nil
	s.log.Info("rollback transaction", zap.Error(err))
	return err
}

func (s *Store) Supports(f storage.Feature) bool {
	switch f {
	case storage.FeatureIndex, storage.FeatureTransaction, storage.FeatureAlterTable, storage.FeatureSchemaless:
		return true
	default:
		return false
	}
}

var _ storage.Backend = (*Store)(nil)
var _ storage.Index = (*Store)(nil)
var _ storage.IndexMut = (*Store)(nil)
var _ storage.AlterTable = (*Store)(nil)
var _ storage.Migrator = (*Store)(nil)
