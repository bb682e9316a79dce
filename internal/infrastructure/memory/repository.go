package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

// TripRepository はインメモリの便リポジトリ
type TripRepository struct{ store *Store }

func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.trips[id]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TripRepository) GetInTx(ctx context.Context, tx transaction.Tx, id string) (*trip.Trip, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TripRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*trip.Trip, error) {
	mtx, err := asTx(tx, r.store)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := r.store.acquire(ctx, mtx, "trip:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ReservationRepository はインメモリの予約リポジトリ
type ReservationRepository struct{ store *Store }

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mtx, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	r.store.mu.RLock()
	for _, other := range r.store.reservations {
		if other.Code == res.Code {
			r.store.mu.RUnlock()
			return reservation.ErrDuplicateCode
		}
	}
	r.store.mu.RUnlock()

	res.ID = uuid.NewString()
	return mtx.stage(res)
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mtx, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	if _, ok := mtx.stagedReservation(res.ID); !ok {
		if _, err := r.GetByID(ctx, res.ID); err != nil {
			return err
		}
	}
	return mtx.stage(res)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return cloneReservation(res), nil
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	mtx, err := asTx(tx, r.store)
	if err != nil {
		return nil, err
	}
	if staged, ok := mtx.stagedReservation(id); ok {
		return cloneReservation(staged), nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := r.store.acquire(ctx, mtx, "reservation:"+id); err != nil {
		return nil, err
	}
	// ロック待ちの間に他のトランザクションがコミットした内容を読む
	return r.GetByID(ctx, id)
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	r.store.mu.RLock()
	var list []*reservation.Reservation
	for _, res := range r.store.reservations {
		if res.UserID == userID {
			list = append(list, cloneReservation(res))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if offset >= len(list) {
		return []*reservation.Reservation{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (r *ReservationRepository) SumConfirmedSeats(ctx context.Context, tx transaction.Tx, tripID, excludeID string) (int, error) {
	var mtx *Tx
	if tx != nil {
		var err error
		if mtx, err = asTx(tx, r.store); err != nil {
			return 0, err
		}
	}

	view := make(map[string]*reservation.Reservation)
	r.store.mu.RLock()
	for id, res := range r.store.reservations {
		view[id] = res
	}
	r.store.mu.RUnlock()
	if mtx != nil {
		mtx.mu.Lock()
		for id, res := range mtx.staged {
			view[id] = res
		}
		mtx.mu.Unlock()
	}

	total := 0
	for id, res := range view {
		if id == excludeID || res.TripID != tripID || !res.IsConfirmed() {
			continue
		}
		total += res.SeatsCount
	}
	return total, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	counts := map[reservation.Status]int{
		reservation.StatusConfirmed: 0,
		reservation.StatusCancelled: 0,
	}
	for _, res := range r.store.reservations {
		counts[res.Status]++
	}
	return counts, nil
}

var (
	_ trip.Repository        = (*TripRepository)(nil)
	_ reservation.Repository = (*ReservationRepository)(nil)
)
