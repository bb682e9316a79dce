// Package clock は時刻取得を抽象化する。
// 本番コードは Real() を、テストは NewFake() を注入して出発時刻の判定を決定的にする。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返すインターフェース
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real はシステム時刻を返す Clock
func Real() Clock { return realClock{} }

// Fake はテスト用の手動で進める Clock
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake は指定時刻で停止した Clock を作成する
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now は現在の偽時刻を返す
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set は偽時刻を設定する
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance は偽時刻を d だけ進める
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
