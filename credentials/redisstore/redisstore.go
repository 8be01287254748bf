package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/credentials"
)

var _ credentials.Store = (*RedisStore)(nil)

const defaultOpTimeout = 3 * time.Second

// RedisStore keeps the access and refresh credentials under two distinct keys.
// MSET and MGET are atomic, so a reader never observes half of a pair.
type RedisStore struct {
	client     *redis.Client
	accessKey  string
	refreshKey string
	opTimeout  time.Duration
}

// New wraps an existing client. prefix namespaces the two keys.
func New(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:     client,
		accessKey:  prefix + ":access_token",
		refreshKey: prefix + ":refresh_token",
		opTimeout:  defaultOpTimeout,
	}
}

// Dial parses url, connects and pings the server.
func Dial(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, prefix), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(pair credentials.Pair) error {
	if err := credentials.CheckPair(pair); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.MSet(ctx, s.accessKey, pair.AccessToken, s.refreshKey, pair.RefreshToken).Err(); err != nil {
		return fmt.Errorf("[redisstore Save] %w", err)
	}
	return nil
}

func (s *RedisStore) Load() (credentials.Pair, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	values, err := s.client.MGet(ctx, s.accessKey, s.refreshKey).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Credentials unreadable from redis, treating as logged out")
		return credentials.Pair{}, false
	}
	if len(values) != 2 {
		return credentials.Pair{}, false
	}
	access, _ := values[0].(string)
	refresh, _ := values[1].(string)

	pair := credentials.Pair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return credentials.Pair{}, false
	}
	return pair, true
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.accessKey, s.refreshKey).Err(); err != nil {
		return fmt.Errorf("[redisstore Clear] %w", err)
	}
	return nil
}
