package localstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/studiousvault/core"
)

// Redis keeps the local storage in Redis, letting several instances share it.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ core.LocalStorage = (*Redis)(nil)

// OpenRedis connects to the Redis server at addr. Keys are namespaced with prefix.
func OpenRedis(ctx context.Context, addr, password, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", addr)
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrNoValue
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return value, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	// no expiration: the record lives until logout
	return errors.Wrap(s.client.Set(ctx, s.prefix+key, value, 0).Err(), "redis set")
}

func (s *Redis) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil && err != redis.Nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}
