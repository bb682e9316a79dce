package transaction

import "errors"

var (
	// ErrBusy はロックを制限時間内に取得できなかったことを表す
	ErrBusy = errors.New("他の予約処理が実行中です。しばらくしてから再試行してください")
	// ErrTimeout はトランザクション内の処理が制限時間を超えたことを表す
	ErrTimeout = errors.New("予約処理がタイムアウトしました")
)
