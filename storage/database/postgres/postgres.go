// Package pgrepos implements the core repositories on Postgres with sqlx.
package pgrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
)

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, "("+clause+")")
	w.args = append(w.args, args...)
}

// build expands slice args into IN lists and rebinds the query for the executor.
func (w *where) build(exec core.DBExecutor, head, tail string, tailArgs ...interface{}) (string, []interface{}, error) {
	var b strings.Builder
	b.WriteString(head)
	if len(w.clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(w.clauses, " AND "))
	}
	b.WriteString(tail)

	args := append(append([]interface{}{}, w.args...), tailArgs...)
	q, args, err := sqlx.In(b.String(), args...)
	if err != nil {
		return "", nil, err
	}
	return exec.Rebind(q), args, nil
}

// queryPage fills dest with a page of `selectFrom` rows and returns the total count of matching rows.
func queryPage(ctx context.Context, exec core.DBExecutor, dest interface{}, selectFrom, countFrom string, w *where, orderBy string, page core.Page) (int, error) {
	q, args, err := w.build(exec, "SELECT COUNT(*) "+countFrom, "")
	if err != nil {
		return 0, errors.Wrap(err, "building count query")
	}
	var total int
	if err = exec.GetContext(ctx, &total, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting rows")
	}

	q, args, err = w.build(exec, selectFrom, " ORDER BY "+orderBy+" LIMIT ? OFFSET ?", page.Limit, page.Offset)
	if err != nil {
		return 0, errors.Wrap(err, "building select query")
	}
	if err = exec.SelectContext(ctx, dest, q, args...); err != nil {
		return 0, errors.Wrap(err, "selecting rows")
	}
	return total, nil
}

// trapNoRowsErr maps psql "no rows" err to the given not found error.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgerrcode.ForeignKeyViolation
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			res = append(res, id)
		}
	}
	return res
}
