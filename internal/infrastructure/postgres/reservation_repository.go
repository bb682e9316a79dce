package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID          string     `db:"id"`
	Code        string     `db:"code"`
	TripID      string     `db:"trip_id"`
	UserID      string     `db:"user_id"`
	SeatsCount  int        `db:"seats_count"`
	TotalPrice  int        `db:"total_price"`
	Status      string     `db:"status"`
	CancelledAt *time.Time `db:"cancelled_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, Code: r.Code, TripID: r.TripID, UserID: r.UserID,
		SeatsCount: r.SeatsCount, TotalPrice: r.TotalPrice,
		Status:    reservation.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CancelledAt: r.CancelledAt,
	}
}

const reservationColumns = `id, code, trip_id, user_id, seats_count, total_price, status, cancelled_at, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// queryer は tx があればトランザクション、なければ接続プールを返す
func (r *ReservationRepository) queryer(tx transaction.Tx) sqlx.ExtContext {
	if sqlTx := UnwrapTx(tx); sqlTx != nil {
		return sqlTx
	}
	return r.db
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx := UnwrapTx(tx)
	if sqlTx == nil {
		return ErrTxRequired
	}
	query := `INSERT INTO reservations (code, trip_id, user_id, seats_count, total_price, status, cancelled_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := sqlTx.QueryRowContext(ctx, query, res.Code, res.TripID, res.UserID, res.SeatsCount, res.TotalPrice, string(res.Status), res.CancelledAt, res.CreatedAt, res.UpdatedAt).Scan(&res.ID); err != nil {
		if isUniqueViolation(err) {
			return reservation.ErrDuplicateCode
		}
		return fmt.Errorf("予約作成に失敗: %w", translateError(err))
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx := UnwrapTx(tx)
	if sqlTx == nil {
		return ErrTxRequired
	}
	query := `UPDATE reservations SET trip_id = $2, seats_count = $3, total_price = $4, status = $5, cancelled_at = $6, updated_at = $7 WHERE id = $1`
	result, err := sqlTx.ExecContext(ctx, query, res.ID, res.TripID, res.SeatsCount, res.TotalPrice, string(res.Status), res.CancelledAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", translateError(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, r.wrapGetError(err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlTx := UnwrapTx(tx)
	if sqlTx == nil {
		return nil, ErrTxRequired
	}
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	if err := sqlTx.GetContext(ctx, &row, query, id); err != nil {
		return nil, r.wrapGetError(err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", translateError(err))
	}
	reservations := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		reservations[i] = rows[i].toEntity()
	}
	return reservations, nil
}

func (r *ReservationRepository) SumConfirmedSeats(ctx context.Context, tx transaction.Tx, tripID, excludeID string) (int, error) {
	query := `SELECT COALESCE(SUM(seats_count), 0) FROM reservations WHERE trip_id = $1 AND status = 'confirmed'`
	args := []interface{}{tripID}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.queryer(tx), &total, query, args...); err != nil {
		return 0, fmt.Errorf("確定座席数の集計に失敗: %w", translateError(err))
	}
	return total, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM reservations GROUP BY status`); err != nil {
		return nil, fmt.Errorf("ステータス別件数の取得に失敗: %w", translateError(err))
	}
	counts := map[reservation.Status]int{
		reservation.StatusConfirmed: 0,
		reservation.StatusCancelled: 0,
	}
	for _, row := range rows {
		counts[reservation.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *ReservationRepository) wrapGetError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return reservation.ErrReservationNotFound
	}
	return fmt.Errorf("予約取得に失敗: %w", translateError(err))
}

var _ reservation.Repository = (*ReservationRepository)(nil)
