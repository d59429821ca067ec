package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mind-engage/eduverse/internal/tables"
)

const restPrefix = "/rest/v1/"

var _ tables.Store = (*Client)(nil)

func (c *Client) Select(ctx context.Context, table string, q tables.Query) ([]tables.Row, error) {
	query, err := filterValues(q.Filters)
	if err != nil {
		return nil, err
	}
	sel := "*"
	if len(q.Columns) > 0 {
		for _, col := range q.Columns {
			if !tables.ValidIdentifier(col) {
				return nil, fmt.Errorf("%w: %q", tables.ErrInvalidColumn, col)
			}
		}
		sel = strings.Join(q.Columns, ",")
	}
	query.Set("select", sel)
	if q.Order != nil {
		if !tables.ValidIdentifier(q.Order.Column) {
			return nil, fmt.Errorf("%w: %q", tables.ErrInvalidColumn, q.Order.Column)
		}
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		query.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	var rows []tables.Row
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, table string, rows ...tables.Row) ([]tables.Row, error) {
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := tables.CheckColumns(r); err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var out []tables.Row
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		body:   rows,
		prefer: "return=representation",
	}, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, table string, patch tables.Row, filters ...tables.Filter) ([]tables.Row, error) {
	if len(patch) == 0 {
		return nil, tables.ErrEmptyPatch
	}
	if err := tables.CheckColumns(patch); err != nil {
		return nil, err
	}
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	query, err := filterValues(filters)
	if err != nil {
		return nil, err
	}
	var out []tables.Row
	err = c.do(ctx, request{
		method: http.MethodPatch,
		path:   path,
		query:  query,
		body:   patch,
		prefer: "return=representation",
	}, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, table string, filters ...tables.Filter) error {
	if len(filters) == 0 {
		return tables.ErrNoFilter
	}
	path, err := tablePath(table)
	if err != nil {
		return err
	}
	query, err := filterValues(filters)
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: path, query: query}, nil)
}

func (c *Client) Upsert(ctx context.Context, table string, row tables.Row, onConflict ...string) (tables.Row, error) {
	if err := tables.CheckColumns(row); err != nil {
		return nil, err
	}
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if len(onConflict) > 0 {
		for _, col := range onConflict {
			if !tables.ValidIdentifier(col) {
				return nil, fmt.Errorf("%w: %q", tables.ErrInvalidColumn, col)
			}
		}
		query.Set("on_conflict", strings.Join(onConflict, ","))
	}
	var out []tables.Row
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		query:  query,
		body:   []tables.Row{row},
		prefer: "return=representation,resolution=merge-duplicates",
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, tables.ErrNoRows
	}
	return out[0], nil
}

func tablePath(table string) (string, error) {
	if !tables.ValidIdentifier(table) {
		return "", fmt.Errorf("%w: %q", tables.ErrInvalidColumn, table)
	}
	return restPrefix + table, nil
}

// filterValues renders equality filters as PostgREST operators.
func filterValues(filters []tables.Filter) (url.Values, error) {
	v := url.Values{}
	for _, f := range filters {
		if !tables.ValidIdentifier(f.Column) {
			return nil, fmt.Errorf("%w: %q", tables.ErrInvalidColumn, f.Column)
		}
		if f.Value == nil {
			v.Add(f.Column, "is.null")
			continue
		}
		v.Add(f.Column, "eq."+tables.Row{"v": f.Value}.String("v"))
	}
	return v, nil
}
