package tables

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SQLStore implements Store over database/sql. It works against the sqlite
// and postgres schemas created by internal/db.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, table)
	}
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			if !ValidIdentifier(c) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, c)
			}
			quoted = append(quoted, quote(c))
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT " + cols + " FROM " + quote(table))
	where, args, err := whereClause(q.Filters, 1)
	if err != nil {
		return nil, err
	}
	b.WriteString(where)
	if q.Order != nil {
		if !ValidIdentifier(q.Order.Column) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, q.Order.Column)
		}
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		b.WriteString(" ORDER BY " + quote(q.Order.Column) + " " + dir)
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *SQLStore) Insert(ctx context.Context, table string, rows ...Row) ([]Row, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, table)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if err := CheckColumns(row); err != nil {
			return nil, err
		}
		query, args := insertSQL(table, row)
		res, err := tx.QueryContext(ctx, query+" RETURNING *", args...)
		if err != nil {
			return nil, err
		}
		got, err := scanRows(res)
		res.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, table)
	}
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	if err := CheckColumns(patch); err != nil {
		return nil, err
	}
	cols := sortedKeys(patch)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(c), i+1))
		args = append(args, bindValue(patch[c]))
	}
	where, wargs, err := whereClause(filters, len(args)+1)
	if err != nil {
		return nil, err
	}
	args = append(args, wargs...)

	query := "UPDATE " + quote(table) + " SET " + strings.Join(sets, ", ") + where + " RETURNING *"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *SQLStore) Delete(ctx context.Context, table string, filters ...Filter) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, table)
	}
	if len(filters) == 0 {
		return ErrNoFilter
	}
	where, args, err := whereClause(filters, 1)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM "+quote(table)+where, args...)
	return err
}

func (s *SQLStore) Upsert(ctx context.Context, table string, row Row, onConflict ...string) (Row, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, table)
	}
	if len(onConflict) == 0 {
		return nil, errors.New("upsert requires a conflict target")
	}
	if err := CheckColumns(row); err != nil {
		return nil, err
	}
	conflict := make([]string, 0, len(onConflict))
	inConflict := map[string]bool{}
	for _, c := range onConflict {
		if !ValidIdentifier(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, c)
		}
		conflict = append(conflict, quote(c))
		inConflict[c] = true
	}

	query, args := insertSQL(table, row)
	var sets []string
	for _, c := range sortedKeys(row) {
		if !inConflict[c] {
			sets = append(sets, quote(c)+" = excluded."+quote(c))
		}
	}
	if len(sets) == 0 {
		// every column is part of the key; touch the key so RETURNING yields the row
		for _, c := range onConflict {
			sets = append(sets, quote(c)+" = excluded."+quote(c))
		}
	}
	query += " ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ") + " RETURNING *"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(got) == 0 {
		return nil, ErrNoRows
	}
	return got[0], nil
}

// ---------- helpers ----------

func quote(ident string) string { return `"` + ident + `"` }

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func insertSQL(table string, row Row) (string, []any) {
	if len(row) == 0 {
		return "INSERT INTO " + quote(table) + " DEFAULT VALUES", nil
	}
	cols := sortedKeys(row)
	quoted := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		quoted = append(quoted, quote(c))
		marks = append(marks, "$"+strconv.Itoa(i+1))
		args = append(args, bindValue(row[c]))
	}
	return "INSERT INTO " + quote(table) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")", args
}

func whereClause(filters []Filter, start int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	n := start
	for _, f := range filters {
		if !ValidIdentifier(f.Column) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidColumn, f.Column)
		}
		if f.Value == nil {
			parts = append(parts, quote(f.Column)+" IS NULL")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = $%d", quote(f.Column), n))
		args = append(args, bindValue(f.Value))
		n++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// bindValue turns JSON-native values into driver arguments. Lists and
// objects are stored as JSON text.
func bindValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int, int64, float64, time.Time:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any, map[string]any, []string:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return x
	}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			r[c] = normalize(vals[i], types[i].DatabaseTypeName())
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case int64:
		if isBoolType(dbType) {
			return x != 0
		}
		return json.Number(strconv.FormatInt(x, 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(x), 10))
	case float64:
		return json.Number(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return json.Number(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return x
	}
}

func isBoolType(t string) bool {
	t = strings.ToUpper(t)
	return t == "BOOLEAN" || t == "BOOL"
}
