package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrStatusChanged is returned by compare-and-set status updates when the
// row no longer holds the expected status.
var ErrStatusChanged = errors.New("status changed concurrently")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

// ErrMissingReference is returned when a write points at a row that does
// not exist, such as an unknown user.
var ErrMissingReference = errors.New("referenced row does not exist")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func pickExec(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
