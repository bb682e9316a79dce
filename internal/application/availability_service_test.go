package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/redis"
)

func TestAvailabilityService_CacheHit(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	cache := new(MockAvailabilityCache)

	cached := trip.Availability{TripID: "trip-1", Capacity: 40, Reserved: 10, Available: 30}
	cache.On("Get", ctx, "trip-1").Return(cached, nil)

	svc := NewAvailabilityService(tripRepo, resRepo, cache, time.Second)
	got, err := svc.GetAvailability(ctx, "trip-1")

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	tripRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAvailabilityService_CacheMissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	cache := new(MockAvailabilityCache)

	want := trip.Availability{TripID: "trip-1", Capacity: 40, Reserved: 12, Available: 28}
	cache.On("Get", ctx, "trip-1").Return(trip.Availability{}, redisinfra.ErrCacheMiss)
	tripRepo.On("GetByID", ctx, "trip-1").Return(upcomingTrip("trip-1", 40), nil)
	resRepo.On("SumConfirmedSeats", ctx, nil, "trip-1", "").Return(12, nil)
	cache.On("Generation", ctx, "trip-1").Return(int64(7), nil)
	cache.On("Set", ctx, want, int64(7), 3*time.Second).Return(true, nil)

	svc := NewAvailabilityService(tripRepo, resRepo, cache, 3*time.Second)
	got, err := svc.GetAvailability(ctx, "trip-1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	cache.AssertExpectations(t)
}

func TestAvailabilityService_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	cache := new(MockAvailabilityCache)

	cache.On("Get", ctx, "trip-1").Return(trip.Availability{}, errors.New("redis down"))
	cache.On("Generation", ctx, "trip-1").Return(int64(0), nil)
	cache.On("Set", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	tripRepo.On("GetByID", ctx, "trip-1").Return(upcomingTrip("trip-1", 10), nil)
	resRepo.On("SumConfirmedSeats", ctx, nil, "trip-1", "").Return(10, nil)

	svc := NewAvailabilityService(tripRepo, resRepo, cache, 0)
	got, err := svc.GetAvailability(ctx, "trip-1")

	require.NoError(t, err)
	assert.Equal(t, 0, got.Available)
}

func TestAvailabilityService_GenerationFailureSkipsStore(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	cache := new(MockAvailabilityCache)

	cache.On("Get", ctx, "trip-1").Return(trip.Availability{}, redisinfra.ErrCacheMiss)
	cache.On("Generation", ctx, "trip-1").Return(int64(0), errors.New("redis down"))
	tripRepo.On("GetByID", ctx, "trip-1").Return(upcomingTrip("trip-1", 10), nil)
	resRepo.On("SumConfirmedSeats", ctx, nil, "trip-1", "").Return(4, nil)

	svc := NewAvailabilityService(tripRepo, resRepo, cache, 0)
	got, err := svc.GetAvailability(ctx, "trip-1")

	require.NoError(t, err)
	assert.Equal(t, 6, got.Available)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 集計中に予約が確定して世代が進んだ場合、集計前の値はキャッシュに残らない
func TestAvailabilityService_InvalidationDuringLoadIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	cache := newFakeGenerationCache()

	tripRepo.On("GetByID", ctx, "trip-1").Return(upcomingTrip("trip-1", 10), nil)
	resRepo.On("SumConfirmedSeats", ctx, nil, "trip-1", "").Return(2, nil).Once().Run(func(mock.Arguments) {
		require.NoError(t, cache.Invalidate(ctx, "trip-1"))
	})
	resRepo.On("SumConfirmedSeats", ctx, nil, "trip-1", "").Return(5, nil).Once()

	svc := NewAvailabilityService(tripRepo, resRepo, cache, time.Minute)

	first, err := svc.GetAvailability(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, 8, first.Available)
	_, err = cache.Get(ctx, "trip-1")
	assert.ErrorIs(t, err, redisinfra.ErrCacheMiss)

	second, err := svc.GetAvailability(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, 5, second.Available)
	cached, err := cache.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, second, cached)
}

func TestAvailabilityService_TripNotFound(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	resRepo := new(MockReservationRepository)
	tripRepo.On("GetByID", ctx, "missing").Return(nil, trip.ErrTripNotFound)

	svc := NewAvailabilityService(tripRepo, resRepo, nil, 0)
	_, err := svc.GetAvailability(ctx, "missing")

	assert.ErrorIs(t, err, trip.ErrTripNotFound)
}

func TestAvailabilityService_ReflectsAdmissions(t *testing.T) {
	env := newAdmissionEnv(t)
	env.addTrip("trip-1", 12)
	env.reserve(t, "trip-1", "user-1", 5)

	svc := NewAvailabilityService(env.store.Trips(), env.store.Reservations(), nil, 0)
	got, err := svc.GetAvailability(context.Background(), "trip-1")

	require.NoError(t, err)
	assert.Equal(t, trip.Availability{TripID: "trip-1", Capacity: 12, Reserved: 5, Available: 7}, got)
}
