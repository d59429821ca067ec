// Package tables is the relational-table port: the select/insert/update/
// delete/upsert surface the resource adapters use. The hosted implementation
// lives in internal/supabase; SQLStore serves offline mode and tests.
package tables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrNoRows        = errors.New("no rows found")
	ErrInvalidColumn = errors.New("invalid column name")
	ErrEmptyPatch    = errors.New("nothing to update")
	ErrNoFilter      = errors.New("delete requires a filter")
)

// Row is one record with JSON-native values (string, json.Number, bool, nil,
// []any, map[string]any).
type Row map[string]any

// String renders a scalar column as text; nil and missing give "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Filter struct {
	Column string
	Value  any
}

// Eq is an equality filter, the only kind the adapters need.
func Eq(col string, v any) Filter { return Filter{Column: col, Value: v} }

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Columns []string // empty selects every column
	Filters []Filter
	Order   *Order
	Limit   int
}

type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filters ...Filter) error
	Upsert(ctx context.Context, table string, row Row, onConflict ...string) (Row, error)
}

// SelectOne returns the first matching row or ErrNoRows.
func SelectOne(ctx context.Context, s Store, table string, q Query) (Row, error) {
	q.Limit = 1
	rows, err := s.Select(ctx, table, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or column.
func ValidIdentifier(name string) bool { return identRe.MatchString(name) }

// CheckColumns rejects any key of row that is not a plain identifier.
func CheckColumns(row Row) error {
	for k := range row {
		if !ValidIdentifier(k) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, k)
		}
	}
	return nil
}
