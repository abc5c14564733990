package metadata

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/luisdotcom/db-hub/internal/dbconn"
)

// collector records per-category failures from concurrent fetches.
type collector struct {
	mu   sync.Mutex
	errs map[string]string
}

func (c *collector) fail(category string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errs == nil {
		c.errs = make(map[string]string)
	}
	c.errs[category] = err.Error()
}

// Refresh loads the five object categories concurrently. A failing category
// is reported in Catalog.Errors and left empty; the call itself only fails
// when the target cannot be resolved.
func (s *Service) Refresh(ctx context.Context, t dbconn.Target, database string) (*Catalog, error) {
	if _, err := s.resolver.Resolve(ctx, t, database); err != nil {
		return nil, err
	}

	cat := &Catalog{
		Tables: []string{}, Views: []string{},
		Procedures: []Routine{}, Functions: []Routine{}, Triggers: []Trigger{},
	}
	var col collector
	var g errgroup.Group

	g.Go(func() error {
		v, err := s.ListTables(ctx, t, database)
		if err != nil {
			col.fail("tables", err)
			return nil
		}
		cat.Tables = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListViews(ctx, t, database)
		if err != nil {
			col.fail("views", err)
			return nil
		}
		cat.Views = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListProcedures(ctx, t, database)
		if err != nil {
			col.fail("procedures", err)
			return nil
		}
		cat.Procedures = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListFunctions(ctx, t, database)
		if err != nil {
			col.fail("functions", err)
			return nil
		}
		cat.Functions = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListTriggers(ctx, t, database)
		if err != nil {
			col.fail("triggers", err)
			return nil
		}
		cat.Triggers = v
		return nil
	})
	_ = g.Wait()

	cat.Errors = col.errs
	return cat, nil
}

// TableDetail loads columns, foreign keys, indexes and primary keys of table
// concurrently, with the same partial-success contract as Refresh.
func (s *Service) TableDetail(ctx context.Context, t dbconn.Target, database, table string) (*TableDetail, error) {
	if _, err := s.resolver.Resolve(ctx, t, database); err != nil {
		return nil, err
	}

	detail := &TableDetail{
		Table:   table,
		Columns: []Column{}, ForeignKeys: []ForeignKey{}, Indexes: []Index{}, PrimaryKeys: []string{},
	}
	var col collector
	var g errgroup.Group

	g.Go(func() error {
		v, err := s.GetTableSchema(ctx, t, database, table)
		if err != nil {
			col.fail("columns", err)
			return nil
		}
		detail.Columns = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListForeignKeys(ctx, t, database, table)
		if err != nil {
			col.fail("foreign_keys", err)
			return nil
		}
		detail.ForeignKeys = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListIndexes(ctx, t, database, table)
		if err != nil {
			col.fail("indexes", err)
			return nil
		}
		detail.Indexes = v
		return nil
	})
	g.Go(func() error {
		v, err := s.ListPrimaryKeys(ctx, t, database, table)
		if err != nil {
			col.fail("primary_keys", err)
			return nil
		}
		detail.PrimaryKeys = v
		return nil
	})
	_ = g.Wait()

	pk := make(map[string]bool, len(detail.PrimaryKeys))
	for _, c := range detail.PrimaryKeys {
		pk[c] = true
	}
	for i := range detail.Columns {
		detail.Columns[i].PrimaryKey = pk[detail.Columns[i].Name]
	}
	detail.Errors = col.errs
	return detail, nil
}
