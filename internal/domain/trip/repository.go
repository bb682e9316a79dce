package trip

import (
	"context"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
)

// Repository は便リポジトリのインターフェース。
// 便・バスの管理は別サブシステムが担い、ここでは読み取りのみ行う
type Repository interface {
	// GetByID はIDから便（バス情報込み）を取得する
	GetByID(ctx context.Context, id string) (*Trip, error)

	// GetInTx はトランザクション内でロックを取らずに便を読み取る。
	// トランザクション中に別の接続を要求しないよう、tx と同じ接続を使う
	GetInTx(ctx context.Context, tx transaction.Tx, id string) (*Trip, error)

	// GetForUpdate は便の行に排他ロックを取得して読み取る（トランザクション必須）。
	// ロックはトランザクション終了まで保持される
	GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Trip, error)
}
