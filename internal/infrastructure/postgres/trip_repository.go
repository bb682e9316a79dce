package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

type tripRow struct {
	ID                string    `db:"id"`
	BusID             string    `db:"bus_id"`
	OriginCityID      string    `db:"origin_city_id"`
	DestinationCityID string    `db:"destination_city_id"`
	DepartureTime     time.Time `db:"departure_time"`
	Price             int       `db:"price"`
	IsActive          bool      `db:"is_active"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
	BusName           string    `db:"bus_name"`
	BusCapacity       int       `db:"bus_capacity"`
}

func (r *tripRow) toEntity() *trip.Trip {
	return &trip.Trip{
		ID: r.ID, BusID: r.BusID,
		OriginCityID: r.OriginCityID, DestinationCityID: r.DestinationCityID,
		DepartureTime: r.DepartureTime, Price: r.Price, IsActive: r.IsActive,
		Bus:       trip.Bus{ID: r.BusID, Name: r.BusName, Capacity: r.BusCapacity},
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const tripSelect = `SELECT t.id, t.bus_id, t.origin_city_id, t.destination_city_id, t.departure_time, t.price, t.is_active, t.created_at, t.updated_at, b.name AS bus_name, b.capacity AS bus_capacity FROM trips t JOIN buses b ON b.id = t.bus_id`

type TripRepository struct{ db *sqlx.DB }

func NewTripRepository(db *sqlx.DB) *TripRepository { return &TripRepository{db: db} }

func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	var row tripRow
	if err := r.db.GetContext(ctx, &row, tripSelect+` WHERE t.id = $1`, id); err != nil {
		return nil, r.wrapGetError(err)
	}
	return row.toEntity(), nil
}

// GetInTx はトランザクションの接続でロックなしに読み取る
func (r *TripRepository) GetInTx(ctx context.Context, tx transaction.Tx, id string) (*trip.Trip, error) {
	sqlTx := UnwrapTx(tx)
	if sqlTx == nil {
		return nil, ErrTxRequired
	}
	var row tripRow
	if err := sqlTx.GetContext(ctx, &row, tripSelect+` WHERE t.id = $1`, id); err != nil {
		return nil, r.wrapGetError(err)
	}
	return row.toEntity(), nil
}

// GetForUpdate は便の行のみをロックする（バスの行はロックしない）
func (r *TripRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*trip.Trip, error) {
	sqlTx := UnwrapTx(tx)
	if sqlTx == nil {
		return nil, ErrTxRequired
	}
	var row tripRow
	if err := sqlTx.GetContext(ctx, &row, tripSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id); err != nil {
		return nil, r.wrapGetError(err)
	}
	return row.toEntity(), nil
}

func (r *TripRepository) wrapGetError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return trip.ErrTripNotFound
	}
	return fmt.Errorf("便取得に失敗: %w", translateError(err))
}

var _ trip.Repository = (*TripRepository)(nil)
