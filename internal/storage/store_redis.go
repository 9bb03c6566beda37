// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/gigly/internal/platform/constants"
)

// RedisStore implements [Store] using Redis, namespaced by device.
//
// Keys never expire: the session store decides when state goes away.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store for the given device.
func NewRedisStore(client *redis.Client, deviceID string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: constants.RedisPrefixDevice + deviceID + ":",
	}
}

/*
Get retrieves the value for key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - bool: false when the key is absent
  - error: Connectivity errors
*/
func (repository *RedisStore) Get(context context.Context, key string) (string, bool, error) {

	// Get the value from Redis
	value, err := repository.client.Get(context, repository.prefix+key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_store_get_failed: %w", err)
	}

	return value, true, nil
}

/*
Set stores value under key without expiry.

Parameters:
  - context: context.Context
  - key: string
  - value: string

Returns:
  - error: Connectivity errors
*/
func (repository *RedisStore) Set(context context.Context, key, value string) error {
	if err := repository.client.Set(context, repository.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis_store_set_failed: %w", err)
	}
	return nil
}

/*
Delete removes the given keys.

Parameters:
  - context: context.Context
  - keys: ...string

Returns:
  - error: Connectivity errors
*/
func (repository *RedisStore) Delete(context context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = repository.prefix + key
	}

	if err := repository.client.Del(context, namespaced...).Err(); err != nil {
		return fmt.Errorf("redis_store_delete_failed: %w", err)
	}
	return nil
}
