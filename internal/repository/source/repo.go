// Package source reads entity rows from the relational database.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/igsrindex/internal/db/sqldb"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Repo is the row source for every entity kind.
type Repo struct {
	db      *sql.DB
	dialect sqldb.Dialect
}

// New creates a row source repository.
func New(conn *sql.DB, dialect sqldb.Dialect) *Repo {
	return &Repo{db: conn, dialect: dialect}
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// Roots returns every root row of kind, in source order.
func (r *Repo) Roots(ctx context.Context, kind domain.Kind) ([]row.Row, error) {
	q, ok := queries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	rows, err := r.query(ctx, q.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s roots: %w", domain.ErrSourceUnavailable, kind, err)
	}
	return rows, nil
}

// Related runs one relationship query for keys with an IN (...) predicate.
func (r *Repo) Related(ctx context.Context, kind domain.Kind, relation string, keys []string) ([]row.Row, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	tmpl, ok := queries[kind].relations[relation]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no relation %q", domain.ErrUnknownKind, kind, relation)
	}

	query := strings.Replace(tmpl, keysToken, sqldb.Placeholders(len(keys)), 1)
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = keyArg(k)
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %w", domain.ErrSourceUnavailable, kind, relation, err)
	}
	return rows, nil
}

// StaleFiles returns the ids of files flagged as indexed that are neither
// foreign nor in the current tree.
func (r *Repo) StaleFiles(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, staleFilesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: stale files: %w", domain.ErrSourceUnavailable, err)
	}
	out := make([]string, 0, len(rows))
	for _, rr := range rows {
		if u, ok := rr.Key(0); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// SyncIndexedFlags marks files as indexed exactly when they are foreign or
// in the current tree. It returns the number of rows touched.
func (r *Repo) SyncIndexedFlags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, sqldb.Rebind(r.dialect, syncIndexedFlagQuery))
	if err != nil {
		return 0, fmt.Errorf("%w: sync indexed flags: %w", domain.ErrSourceUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // not every driver reports affected rows
	}
	return n, nil
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]row.Row, error) {
	rows, err := r.db.QueryContext(ctx, sqldb.Rebind(r.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []row.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rr := make(row.Row, len(cols))
		for i, v := range vals {
			rr[i] = row.Normalize(v)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// keyArg passes integer keys as integers so that every driver compares them
// against integer id columns without a cast.
func keyArg(k string) any {
	if n, err := strconv.ParseInt(k, 10, 64); err == nil {
		return n
	}
	return k
}
