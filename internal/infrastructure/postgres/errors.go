package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
)

// PostgreSQL エラーコード
const (
	codeUniqueViolation      = "23505"
	codeInvalidTextRepr      = "22P02"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

// ErrTxRequired はトランザクション必須の操作に tx が渡されなかったことを表す
var ErrTxRequired = errors.New("トランザクションが必要です")

// translateError はドライバーのエラーをロック待ち・タイムアウトの種別に変換する
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", transaction.ErrTimeout, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
			return fmt.Errorf("%w: %v", transaction.ErrBusy, err)
		case codeQueryCanceled:
			return fmt.Errorf("%w: %v", transaction.ErrTimeout, err)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// isInvalidID はUUID形式でないIDによるエラーかを返す
func isInvalidID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeInvalidTextRepr
}
