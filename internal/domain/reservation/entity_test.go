package reservation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservation(t *testing.T) {
	now := time.Now()
	r := NewReservation("RES-ABCDEF01", "trip-1", "user-1", 3, 7500, now)

	assert.Equal(t, "RES-ABCDEF01", r.Code)
	assert.Equal(t, "trip-1", r.TripID)
	assert.Equal(t, "user-1", r.UserID)
	assert.Equal(t, 3, r.SeatsCount)
	assert.Equal(t, 7500, r.TotalPrice)
	assert.Equal(t, StatusConfirmed, r.Status)
	assert.Equal(t, now, r.CreatedAt)
	assert.Nil(t, r.CancelledAt)
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusConfirmed.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, Status("pending").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestValidateSeatCount(t *testing.T) {
	assert.ErrorIs(t, ValidateSeatCount(-1, 10), ErrInvalidSeatCount)
	assert.ErrorIs(t, ValidateSeatCount(0, 10), ErrInvalidSeatCount)
	assert.NoError(t, ValidateSeatCount(1, 10))
	assert.NoError(t, ValidateSeatCount(10, 10))
	assert.ErrorIs(t, ValidateSeatCount(11, 10), ErrInvalidSeatCount)
}

func TestReservation_Cancel(t *testing.T) {
	now := time.Now()

	t.Run("確定済みからキャンセル", func(t *testing.T) {
		r := NewReservation("RES-00000001", "trip-1", "user-1", 2, 1000, now)
		later := now.Add(time.Minute)
		require.NoError(t, r.Cancel(later))
		assert.Equal(t, StatusCancelled, r.Status)
		require.NotNil(t, r.CancelledAt)
		assert.Equal(t, later, *r.CancelledAt)
		assert.Equal(t, later, r.UpdatedAt)
	})

	t.Run("キャンセル済みは再キャンセル不可", func(t *testing.T) {
		r := NewReservation("RES-00000001", "trip-1", "user-1", 2, 1000, now)
		require.NoError(t, r.Cancel(now))
		err := r.Cancel(now)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestReservation_Reinstate(t *testing.T) {
	now := time.Now()

	r := NewReservation("RES-00000001", "trip-1", "user-1", 2, 1000, now)
	assert.ErrorIs(t, r.Reinstate(now), ErrNotCancelled)

	require.NoError(t, r.Cancel(now))
	require.NoError(t, r.Reinstate(now.Add(time.Hour)))
	assert.Equal(t, StatusConfirmed, r.Status)
	assert.Nil(t, r.CancelledAt)
}

func TestInsufficientSeatsError(t *testing.T) {
	err := NewInsufficientSeatsError(3, 2)

	assert.ErrorIs(t, err, ErrInsufficientSeats)
	var ise *InsufficientSeatsError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 3, ise.Requested)
	assert.Equal(t, 2, ise.Available)
	assert.Contains(t, err.Error(), "要求 3 席")

	// 定員変更などで空席数が負になっても0として報告する
	err = NewInsufficientSeatsError(1, -4)
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 0, ise.Available)
}

func TestNewCode(t *testing.T) {
	code := NewCode()
	assert.Regexp(t, `^RES-[0-9A-F]{8}$`, code)
	assert.NotEqual(t, code, NewCode())
}
