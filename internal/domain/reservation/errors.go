package reservation

import (
	"errors"
	"fmt"
)

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrInvalidSeatCount    = errors.New("座席数が不正です")
	ErrInvalidStatus       = errors.New("予約ステータスが不正です")
	ErrTripIDRequired      = errors.New("便IDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrDuplicateCode       = errors.New("予約コードが重複しています")

	// ErrInvalidState は現在の状態から許可されない遷移を表す
	ErrInvalidState     = errors.New("予約の状態遷移が不正です")
	ErrAlreadyCancelled = fmt.Errorf("%w: 予約は既にキャンセルされています", ErrInvalidState)
	ErrNotCancelled     = fmt.Errorf("%w: 予約はキャンセルされていません", ErrInvalidState)
	ErrTripDeparted     = fmt.Errorf("%w: 便は既に出発しています", ErrInvalidState)

	ErrInsufficientSeats = errors.New("空席が不足しています")
)

// InsufficientSeatsError は要求座席数と空席数を保持する
type InsufficientSeatsError struct {
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("%s: 要求 %d 席, 空席 %d 席", ErrInsufficientSeats.Error(), e.Requested, e.Available)
}

// Is は errors.Is(err, ErrInsufficientSeats) を満たす
func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}

// NewInsufficientSeatsError は空席不足エラーを作成する。空席数が負になる場合は0に丸める
func NewInsufficientSeatsError(requested, available int) error {
	if available < 0 {
		available = 0
	}
	return &InsufficientSeatsError{Requested: requested, Available: available}
}
