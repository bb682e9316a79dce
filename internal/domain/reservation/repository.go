package reservation

import (
	"context"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetForUpdate は予約の行に排他ロックを取得して読み取る（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// SumConfirmedSeats は便の確定済み座席数の合計を返す。
	// excludeID が空でなければその予約を集計から除く。tx が nil の場合はトランザクション外で集計する
	SumConfirmedSeats(ctx context.Context, tx transaction.Tx, tripID, excludeID string) (int, error)

	// CountByStatus はステータス別の予約件数を返す
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
