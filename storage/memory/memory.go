// Package memory is the in-process reference storage backend: every
// table's rows live in a google/btree-ordered tree keyed by value.Key, so
// full scans come out in the store's natural key order for free without hand-rolling tree balancing. It exists for
// embedding without an external database and as the engine's own test
// fixture; it degrades the transaction contract to advisory
// explicit allowance for memory-only backends.
package memory

import (
	"context"
	"sync"

	"github.com/google/btree"

	"emberql/schema"
	"emberql/storage"
	"emberql/value"
)

const btreeDegree = 32

type entry struct {
	key value.Key
	row storage.Row
}

func less(a, b entry) bool {
	return a.key.Compare(b.key) == value.Less
}

type indexEntry struct {
	indexVal value.Key
	dataKey  value.Key
}

func indexLess(a, b indexEntry) bool {
	if o := a.indexVal.Compare(b.indexVal); o != value.Equal {
		return o == value.Less
	}
	return a.dataKey.Compare(b.dataKey) == value.Less
}

type table struct {
	schema  *schema.Table
	rows    *btree.BTreeG[entry]
	indexes map[string]*btree.BTreeG[indexEntry]
	nextRow int64
}

// Store is the in-memory Backend implementation.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	inTx   bool
}

func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

var _ storage.Backend = (*Store)(nil)
var _ storage.Index = (*Store)(nil)
var _ storage.IndexMut = (*Store)(nil)
var _ storage.AlterTable = (*Store)(nil)

func (s *Store) FetchAllSchemas(ctx context.Context) ([]*schema.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t.schema)
	}
	sortTablesByName(out)
	return out, nil
}

func (s *Store) FetchSchema(ctx context.Context, name string) (*schema.Table, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, false, nil
	}
	return t.schema, true, nil
}

func (s *Store) FetchData(ctx context.Context, name string, key value.Key) (storage.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.Row{}, false, storage.ErrNotFound(name)
	}
	item, ok := t.rows.Get(entry{key: key})
	if !ok {
		return storage.Row{}, false, nil
	}
	return item.row, true, nil
}

func (s *Store) ScanData(ctx context.Context, name string) (storage.RowStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, storage.ErrNotFound(name)
	}
	var out []storage.KeyedRow
	t.rows.Ascend(func(e entry) bool {
		out = append(out, storage.KeyedRow{Key: e.key, Row: e.row})
		return true
	})
	return &sliceStream{rows: out}, nil
}

func (s *Store) InsertSchema(ctx context.Context, t *schema.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.Name]; ok {
		return schema.ErrTableAlreadyExists(t.Name)
	}
	s.tables[t.Name] = &table{
		schema:  t,
		rows:    btree.NewG(btreeDegree, less),
		indexes: make(map[string]*btree.BTreeG[indexEntry]),
	}
	return nil
}

func (s *Store) DeleteSchema(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return storage.ErrNotFound(name)
	}
	delete(s.tables, name)
	return nil
}

func (s *Store) AppendData(ctx context.Context, name string, rows []storage.Row) ([]value.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, storage.ErrNotFound(name)
	}
	keys := make([]value.Key, 0, len(rows))
	for _, r := range rows {
		t.nextRow++
		k, err := value.NewKey(value.I64(t.nextRow))
		if err != nil {
			return nil, err
		}
		t.rows.ReplaceOrInsert(entry{key: k, row: r})
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Store) InsertData(ctx context.Context, name string, rows []storage.KeyedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	for _, r := range rows {
		t.rows.ReplaceOrInsert(entry{key: r.Key, row: r.Row})
	}
	return nil
}

func (s *Store) DeleteData(ctx context.Context, name string, keys []value.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	for _, k := range keys {
		t.rows.Delete(entry{key: k})
	}
	return nil
}

func (s *Store) ScanIndexedData(ctx context.Context, name, index string, op storage.IndexOp, v value.Value) (storage.RowStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, storage.ErrNotFound(name)
	}
	idx, ok := t.indexes[index]
	if !ok {
		return nil, storage.ErrNotFound(index)
	}
	probe, err := value.NewKey(v)
	if err != nil {
		return nil, err
	}
	var out []storage.KeyedRow
	collect := func(ie indexEntry) bool {
		item, ok := t.rows.Get(entry{key: ie.dataKey})
		if ok {
			out = append(out, storage.KeyedRow{Key: ie.dataKey, Row: item.row})
		}
		return true
	}
	switch op {
	case storage.IndexEq:
		idx.AscendGreaterOrEqual(indexEntry{indexVal: probe}, func(ie indexEntry) bool {
			if ie.indexVal.Compare(probe) != value.Equal {
				return false
			}
			return collect(ie)
		})
	case storage.IndexLt:
		idx.Ascend(func(ie indexEntry) bool {
			if ie.indexVal.Compare(probe) != value.Less {
				return false
			}
			return collect(ie)
		})
	case storage.IndexLtEq:
		idx.Ascend(func(ie indexEntry) bool {
			if ie.indexVal.Compare(probe) == value.Greater {
				return false
			}
			return collect(ie)
		})
	case storage.IndexGt:
		idx.AscendGreaterOrEqual(indexEntry{indexVal: probe}, func(ie indexEntry) bool {
			if ie.indexVal.Compare(probe) == value.Equal {
				return true
			}
			return collect(ie)
		})
	case storage.IndexGtEq:
		idx.AscendGreaterOrEqual(indexEntry{indexVal: probe}, collect)
	}
	return &sliceStream{rows: out}, nil
}

func (s *Store) CreateIndex(ctx context.Context, name, indexName string, expr func(storage.Row) (value.Value, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	tr := btree.NewG(btreeDegree, indexLess)
	var rangeErr error
	t.rows.Ascend(func(e entry) bool {
		v, err := expr(e.row)
		if err != nil {
			rangeErr = err
			return false
		}
		ik, err := value.NewKey(v)
		if err != nil {
			rangeErr = err
			return false
		}
		tr.ReplaceOrInsert(indexEntry{indexVal: ik, dataKey: e.key})
		return true
	})
	if rangeErr != nil {
		return rangeErr
	}
	t.indexes[indexName] = tr
	return nil
}

func (s *Store) DropIndex(ctx context.Context, name, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	delete(t.indexes, indexName)
	return nil
}

func (s *Store) RenameSchema(ctx context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[oldName]
	if !ok {
		return storage.ErrNotFound(oldName)
	}
	t.schema.Name = newName
	s.tables[newName] = t
	delete(s.tables, oldName)
	return nil
}

func (s *Store) RenameColumn(ctx context.Context, name, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	c, ok := t.schema.ColumnByName(oldName)
	if !ok {
		return schema.ErrColumnNotFound(name, oldName)
	}
	c.Name = newName
	return nil
}

func (s *Store) AddColumn(ctx context.Context, name string, col schema.Column, defaultValue value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	t.schema.Columns = append(t.schema.Columns, col)
	var updated []entry
	t.rows.Ascend(func(e entry) bool {
		e.row.Values = append(append([]value.Value(nil), e.row.Values...), defaultValue)
		updated = append(updated, e)
		return true
	})
	for _, e := range updated {
		t.rows.ReplaceOrInsert(e)
	}
	return nil
}

func (s *Store) DropColumn(ctx context.Context, name, column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return storage.ErrNotFound(name)
	}
	idx := -1
	for i, c := range t.schema.Columns {
		if c.Name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return schema.ErrColumnNotFound(name, column)
	}
	t.schema.Columns = append(t.schema.Columns[:idx], t.schema.Columns[idx+1:]...)
	var updated []entry
	t.rows.Ascend(func(e entry) bool {
		vs := append([]value.Value(nil), e.row.Values[:idx]...)
		vs = append(vs, e.row.Values[idx+1:]...)
		e.row.Values = vs
		updated = append(updated, e)
		return true
	})
	for _, e := range updated {
		t.rows.ReplaceOrInsert(e)
	}
	return nil
}

// Begin/Commit/Rollback degrade to advisory no-ops: a single in-process
// tree has no concurrent writer to isolate against, so the memory backend
// documents that it cannot provide real snapshot isolation. It
// still rejects illegal nesting, which is a pure API contract check, not
// an isolation guarantee.
func (s *Store) Begin(ctx context.Context, autoCommit bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTx && !autoCommit {
		return false, storage.ErrNestedTransaction()
	}
	if autoCommit {
		return true, nil
	}
	s.inTx = true
	return false, nil
}

func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	return nil
}

func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	return nil
}

func (s *Store) Supports(f storage.Feature) bool {
	switch f {
	case storage.FeatureIndex, storage.FeatureTransaction, storage.FeatureAlterTable, storage.FeatureSchemaless:
		return true
	default:
		return false
	}
}

type sliceStream struct {
	rows []storage.KeyedRow
	pos  int
}

func (s *sliceStream) Next(ctx context.Context) (storage.KeyedRow, bool, error) {
	if s.pos >= len(s.rows) {
		return storage.KeyedRow{}, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

func (s *sliceStream) Close() error { return nil }

func sortTablesByName(ts []*schema.Table) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j-1].Name > ts[j].Name; j-- {
			ts[j-1], ts[j] = ts[j], ts[j-1]
		}
	}
}
