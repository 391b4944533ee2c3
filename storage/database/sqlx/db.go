package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx so the same repository
// code runs inside and outside a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == pqUniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

func isNoRows(err error) bool { return err == sql.ErrNoRows }

// inQuery expands a `IN (?)` query for the given ids and rebinds it for pq.
func inQuery(ext sqlx.ExtContext, query string, ids []int) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return "", nil, err
	}
	return ext.Rebind(q), args, nil
}
