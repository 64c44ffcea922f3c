package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// isUniqueViolation 判断是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translateError 将驱动层唯一约束冲突转换为 ErrDuplicateKey
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return pkgerrors.ErrDuplicateKey
	}
	return err
}
