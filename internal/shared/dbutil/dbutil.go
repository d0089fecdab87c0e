package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Conn returns a gorm session bound to ctx and, when tx is set, to that
// transaction, so repositories can join a service-owned *sql.Tx.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	sess := db.WithContext(ctx)
	if tx != nil {
		sess.Statement.ConnPool = tx
	}
	return sess
}

// IsUniqueViolation reports whether err is a Postgres unique violation on
// constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) && constraint == "" {
		return true
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}
