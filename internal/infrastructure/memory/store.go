// Package memory はPostgreSQLと同じ行ロックの意味論を持つインメモリストア。
// ロックはトランザクション終了まで保持され、書き込みはコミット時にまとめて反映される。
// テスト専用で、本番の cmd/api からは使用しない
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

var (
	ErrTxRequired = errors.New("トランザクションが必要です")
	ErrTxDone     = errors.New("トランザクションは既に終了しています")
)

// Store はインメモリの便・予約ストア
type Store struct {
	mu           sync.RWMutex
	trips        map[string]*trip.Trip
	reservations map[string]*reservation.Reservation

	lockMu      sync.Mutex
	rowLocks    map[string]chan struct{}
	lockTimeout time.Duration
}

// NewStore は新しいストアを作成する。lockTimeout が 0 の場合はコンテキストが終わるまで待つ
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		trips:        make(map[string]*trip.Trip),
		reservations: make(map[string]*reservation.Reservation),
		rowLocks:     make(map[string]chan struct{}),
		lockTimeout:  lockTimeout,
	}
}

// AddTrip は便を登録する
func (s *Store) AddTrip(t *trip.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.trips[t.ID] = &cp
}

// Trips は便リポジトリを返す
func (s *Store) Trips() *TripRepository {
	return &TripRepository{store: s}
}

// Reservations は予約リポジトリを返す
func (s *Store) Reservations() *ReservationRepository {
	return &ReservationRepository{store: s}
}

// Begin は新しいトランザクションを開始する
func (s *Store) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	return &Tx{
		store:  s,
		staged: make(map[string]*reservation.Reservation),
	}, nil
}

// acquire は行ロックを取得する。同じトランザクションが保持済みなら即座に返る
func (s *Store) acquire(ctx context.Context, tx *Tx, key string) error {
	if tx.holds(key) {
		return nil
	}

	s.lockMu.Lock()
	ch, ok := s.rowLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[key] = ch
	}
	s.lockMu.Unlock()

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		tx.addLock(key, ch)
		return nil
	case <-timeout:
		return transaction.ErrBusy
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return transaction.ErrTimeout
	}
	return err
}

// Tx はインメモリストアのトランザクション
type Tx struct {
	store *Store

	mu     sync.Mutex
	locks  map[string]chan struct{}
	staged map[string]*reservation.Reservation
	done   bool
}

func (tx *Tx) holds(key string) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	_, ok := tx.locks[key]
	return ok
}

func (tx *Tx) addLock(key string, ch chan struct{}) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.locks == nil {
		tx.locks = make(map[string]chan struct{})
	}
	tx.locks[key] = ch
}

func (tx *Tx) stage(r *reservation.Reservation) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrTxDone
	}
	tx.staged[r.ID] = cloneReservation(r)
	return nil
}

func (tx *Tx) stagedReservation(id string) (*reservation.Reservation, bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	r, ok := tx.staged[id]
	return r, ok
}

// Commit は書き込みを反映してロックを解放する
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.releaseLocked()

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range tx.staged {
		for otherID, other := range s.reservations {
			if otherID != id && other.Code == r.Code {
				return reservation.ErrDuplicateCode
			}
		}
	}
	for id, r := range tx.staged {
		s.reservations[id] = r
	}
	return nil
}

// Rollback は書き込みを破棄してロックを解放する。終了済みなら何もしない
func (tx *Tx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true
	tx.staged = nil
	tx.releaseLocked()
	return nil
}

func (tx *Tx) releaseLocked() {
	for key, ch := range tx.locks {
		<-ch
		delete(tx.locks, key)
	}
}

func asTx(tx transaction.Tx, s *Store) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx == nil || mtx.store != s {
		return nil, ErrTxRequired
	}
	mtx.mu.Lock()
	done := mtx.done
	mtx.mu.Unlock()
	if done {
		return nil, ErrTxDone
	}
	return mtx, nil
}

func cloneReservation(r *reservation.Reservation) *reservation.Reservation {
	cp := *r
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		cp.CancelledAt = &at
	}
	cp.Trip = nil
	return &cp
}

var _ transaction.Manager = (*Store)(nil)
