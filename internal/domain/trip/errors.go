package trip

import (
	"errors"
	"fmt"
)

// Trip ドメインのエラー定義
var (
	ErrTripNotFound = errors.New("便が見つかりません")
	// ErrTripNotBookable は非公開または出発済みの便。呼び出し側には NotFound として扱わせる
	ErrTripNotBookable = fmt.Errorf("%w: 予約受付中ではありません", ErrTripNotFound)
)
