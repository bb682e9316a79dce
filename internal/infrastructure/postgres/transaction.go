package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
)

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return translateError(t.Tx.Commit())
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー。
// 各トランザクションにロック待ちとステートメント実行の上限を設定する
type TxManager struct {
	db               *sqlx.DB
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

// NewTxManager は新しい TxManager を作成する。0 を渡した上限は設定しない
func NewTxManager(db *sqlx.DB, lockTimeout, statementTimeout time.Duration) *TxManager {
	return &TxManager{
		db:               db,
		lockTimeout:      lockTimeout,
		statementTimeout: statementTimeout,
	}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, translateError(err)
	}

	// SET LOCAL はプレースホルダを受け付けないためミリ秒の整数で埋め込む
	settings := []struct {
		name    string
		timeout time.Duration
	}{
		{"lock_timeout", m.lockTimeout},
		{"statement_timeout", m.statementTimeout},
	}
	for _, s := range settings {
		if s.timeout <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL %s = %d", s.name, s.timeout.Milliseconds())); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%s の設定に失敗: %w", s.name, translateError(err))
		}
	}

	return &TxWrapper{Tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if wrapper, ok := tx.(*TxWrapper); ok {
		return wrapper.Tx
	}
	return nil
}

var _ transaction.Manager = (*TxManager)(nil)
