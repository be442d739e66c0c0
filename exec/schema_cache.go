package exec

import (
	"context"
	"sort"
	"sync"

	"emberql/schema"
	"emberql/storage"
)

// schemaCache is the in-process registry the planner, validator and
// executor all consult through the narrow Schema(table) lookup. It is refreshed once at Engine construction and
// kept in sync on every schema-mutating statement the executor runs,
// rather than re-querying the backend on every lookup.
type schemaCache struct {
	mu     sync.RWMutex
	tables map[string]*schema.Table
}

func newSchemaCache(ctx context.Context, store storage.Store) (*schemaCache, error) {
	all, err := store.FetchAllSchemas(ctx)
	if err != nil {
		return nil, err
	}
	c := &schemaCache{tables: make(map[string]*schema.Table, len(all))}
	for _, t := range all {
		c.tables[t.Name] = t
	}
	return c, nil
}

func (c *schemaCache) Schema(table string) (*schema.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[table]
	return t, ok
}

func (c *schemaCache) all() []*schema.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*schema.Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *schemaCache) put(t *schema.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.Name] = t
}

func (c *schemaCache) remove(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, table)
}

func (c *schemaCache) rename(oldName, newName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[oldName]
	if !ok {
		return
	}
	delete(c.tables, oldName)
	renamed := *t
	renamed.Name = newName
	c.tables[newName] = &renamed
}
