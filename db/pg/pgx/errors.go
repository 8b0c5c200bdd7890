package pgx

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// SQLSTATE коды, на которые реагируют хранилища.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	UniqueViolation = "23505"
	CheckViolation  = "23514"
)

// ErrorCode возвращает SQLSTATE из цепочки ошибок или "".
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicate сообщает, что вставка упала на уникальном ключе.
func IsDuplicate(err error) bool {
	return ErrorCode(err) == UniqueViolation
}
