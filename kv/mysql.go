package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL duplicate-entry errno, raised when Put races another create.
const dupEntry = 1062

// Open connects to MySQL and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

type mysqlBucket struct {
	db    *sql.DB
	table string
}

// NewMySQL returns a Bucket backed by a single JSON-column table, created if
// missing. Field-path updates compile to one UPDATE statement, so concurrent
// updates to the same key serialize on the row.
func NewMySQL(ctx context.Context, db *sql.DB, table string) (Bucket, error) {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (k VARCHAR(255) PRIMARY KEY, doc JSON NOT NULL)", table)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("kv: creating table %s: %w", table, err)
	}
	return &mysqlBucket{db: db, table: table}, nil
}

func (b *mysqlBucket) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	q := fmt.Sprintf("SELECT doc FROM `%s` WHERE k = ?", b.table)
	err := b.db.QueryRowContext(ctx, q, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (b *mysqlBucket) Put(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO `%s` (k, doc) VALUES (?, ?)", b.table)
	_, err = b.db.ExecContext(ctx, q, key, raw)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == dupEntry {
		return ErrExists
	}
	return err
}

func (b *mysqlBucket) Update(ctx context.Context, key string, fields map[string]any) error {
	expr, args, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("UPDATE `%s` SET doc = %s WHERE k = ?", b.table, expr)
	res, err := b.db.ExecContext(ctx, q, append(args, key)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero rows for a no-op update too, so check the key.
		var one int
		err := b.db.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM `%s` WHERE k = ?", b.table), key).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (b *mysqlBucket) Delete(ctx context.Context, key string) error {
	q := fmt.Sprintf("DELETE FROM `%s` WHERE k = ?", b.table)
	_, err := b.db.ExecContext(ctx, q, key)
	return err
}

// buildUpdateExpr composes JSON_REMOVE / JSON_SET / JSON_ARRAY_APPEND over the
// doc column. Paths and values are bound as placeholders. Removes apply before
// sets, and paths are processed in sorted order for a stable statement.
func buildUpdateExpr(fields map[string]any) (string, []any, error) {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	expr := "doc"
	var args []any
	for _, p := range paths {
		if _, ok := fields[p].(trimValue); ok {
			expr = fmt.Sprintf("JSON_REMOVE(%s, ?)", expr)
			args = append(args, jsonPath(p))
		}
	}
	for _, p := range paths {
		switch v := fields[p].(type) {
		case trimValue:
		case appendValue:
			raw, err := json.Marshal(v.v)
			if err != nil {
				return "", nil, err
			}
			expr = fmt.Sprintf("JSON_ARRAY_APPEND(%s, ?, CAST(? AS JSON))", expr)
			args = append(args, jsonPath(p), raw)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return "", nil, err
			}
			expr = fmt.Sprintf("JSON_SET(%s, ?, CAST(? AS JSON))", expr)
			args = append(args, jsonPath(p), raw)
		}
	}
	return expr, args, nil
}

// jsonPath renders a dot-separated field path as a MySQL JSON path with every
// segment quoted, so keys holding special characters address correctly.
func jsonPath(p string) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range strings.Split(p, ".") {
		sb.WriteString(`."`)
		sb.WriteString(strings.ReplaceAll(seg, `"`, `\"`))
		sb.WriteString(`"`)
	}
	return sb.String()
}
