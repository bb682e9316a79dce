package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// generationTTL は世代キーの保持期間。失効後の世代は0として扱う
const generationTTL = 24 * time.Hour

// 世代が一致する場合のみ保存する。読み込み中に無効化された値は書き戻さない
var setIfGenerationScript = redis.NewScript(`
	local gen = redis.call("GET", KEYS[2]) or "0"
	if gen ~= ARGV[1] then
		return 0
	end
	redis.call("HSET", KEYS[1], "capacity", ARGV[2], "reserved", ARGV[3], "available", ARGV[4])
	redis.call("PEXPIRE", KEYS[1], ARGV[5])
	return 1
`)

// AvailabilityCache は便の空席状況（表示用）のキャッシュを管理する。
// 予約受付の判定はこのキャッシュを参照しない
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get は便の空席状況をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, tripID string) (trip.Availability, error) {
	fields, err := c.client.HGetAll(ctx, c.key(tripID)).Result()
	if err != nil {
		return trip.Availability{}, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	if len(fields) == 0 {
		return trip.Availability{}, ErrCacheMiss
	}

	a := trip.Availability{TripID: tripID}
	for name, dst := range map[string]*int{
		"capacity":  &a.Capacity,
		"reserved":  &a.Reserved,
		"available": &a.Available,
	} {
		n, err := strconv.Atoi(fields[name])
		if err != nil {
			return trip.Availability{}, ErrCacheMiss
		}
		*dst = n
	}
	return a, nil
}

// Generation は便の現在のキャッシュ世代を返す。Invalidate のたびに進む
func (c *AvailabilityCache) Generation(ctx context.Context, tripID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(tripID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

// Set は便の空席状況をキャッシュに保存する。
// gen は集計前に Generation で得た世代で、その後に無効化されていれば保存せず false を返す
func (c *AvailabilityCache) Set(ctx context.Context, a trip.Availability, gen int64, ttl time.Duration) (bool, error) {
	stored, err := setIfGenerationScript.Run(ctx, c.client,
		[]string{c.key(a.TripID), c.generationKey(a.TripID)},
		gen, a.Capacity, a.Reserved, a.Available, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return stored == 1, nil
}

// Invalidate は便のキャッシュを削除し、世代を進める
func (c *AvailabilityCache) Invalidate(ctx context.Context, tripID string) error {
	genKey := c.generationKey(tripID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, c.key(tripID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

// 値と世代は同じハッシュスロットに置く
func (c *AvailabilityCache) key(tripID string) string {
	return fmt.Sprintf("trips:{%s}:availability", tripID)
}

func (c *AvailabilityCache) generationKey(tripID string) string {
	return fmt.Sprintf("trips:{%s}:availability:gen", tripID)
}
