package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLock deletes the lock only while it still holds the caller's token.
var releaseLock = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client     redis.UniversalClient
	sessionTTL time.Duration
	searchTTL  time.Duration
}

func NewRedisCache(cfg config.RedisConfig, sessionTTL, searchTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		sessionTTL,
		searchTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, sessionTTL, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, sessionTTL: sessionTTL, searchTTL: searchTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// LoadSession returns the raw snapshot stored for id.
func (c *RedisCache) LoadSession(ctx context.Context, id string) ([]byte, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return data, nil
}

// SaveSession writes the snapshot and refreshes the TTL of the session and
// everything stored under it.
func (c *RedisCache) SaveSession(ctx context.Context, id string, data []byte) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), data, c.sessionTTL)
	pipe.Expire(ctx, sessionOffersKey(id), c.sessionTTL)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}

	keys, err := c.seatMapKeys(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.client.Expire(ctx, key, c.sessionTTL).Err(); err != nil {
			return err
		}
	}
	return nil
}

// GetSeatMap returns nil without error when no map is stored for the leg.
func (c *RedisCache) GetSeatMap(ctx context.Context, id, legID string) (*seatmap.Map, error) {
	data, err := c.client.Get(ctx, seatMapKey(id, legID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var m seatmap.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *RedisCache) SetSeatMap(ctx context.Context, id string, m *seatmap.Map) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatMapKey(id, m.LegID), payload, c.sessionTTL).Err()
}

func (c *RedisCache) DeleteSeatMaps(ctx context.Context, id string) error {
	keys, err := c.seatMapKeys(ctx, id)
	if err != nil || len(keys) == 0 {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetSearch returns nil without error on a cache miss.
func (c *RedisCache) GetSearch(ctx context.Context, key string) ([]domain.FlightOffer, error) {
	return c.getOffers(ctx, searchKey(key))
}

func (c *RedisCache) SetSearch(ctx context.Context, key string, offers []domain.FlightOffer) error {
	return c.setOffers(ctx, searchKey(key), offers, c.searchTTL)
}

// GetSessionOffers returns the results of the last search run in a session.
func (c *RedisCache) GetSessionOffers(ctx context.Context, id string) ([]domain.FlightOffer, error) {
	return c.getOffers(ctx, sessionOffersKey(id))
}

func (c *RedisCache) SetSessionOffers(ctx context.Context, id string, offers []domain.FlightOffer) error {
	return c.setOffers(ctx, sessionOffersKey(id), offers, c.sessionTTL)
}

// AcquireCheckoutLock takes the checkout lock of a session for ttl. The
// returned token is needed to release it.
func (c *RedisCache) AcquireCheckoutLock(ctx context.Context, id string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, checkoutLockKey(id), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseCheckoutLock frees the lock if token still owns it. A lock that
// expired and was taken by another checkout is left in place.
func (c *RedisCache) ReleaseCheckoutLock(ctx context.Context, id, token string) error {
	return releaseLock.Run(ctx, c.client, []string{checkoutLockKey(id)}, token).Err()
}

func (c *RedisCache) getOffers(ctx context.Context, key string) ([]domain.FlightOffer, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var offers []domain.FlightOffer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *RedisCache) setOffers(ctx context.Context, key string, offers []domain.FlightOffer, ttl time.Duration) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisCache) seatMapKeys(ctx context.Context, id string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, seatMapKey(id, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan seat maps: %w", err)
	}
	return keys, nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func sessionOffersKey(id string) string {
	return "session:" + id + ":offers"
}

func seatMapKey(id, legID string) string {
	return fmt.Sprintf("session:%s:seatmap:%s", id, legID)
}

func searchKey(key string) string {
	return "search:" + key
}

func checkoutLockKey(id string) string {
	return "lock:checkout:" + id
}
