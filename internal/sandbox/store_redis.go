// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/constants"
)

// RedisCodeRepository implements [CodeRepository] using Redis key expiry.
type RedisCodeRepository struct {
	client *redis.Client
}

// NewRedisCodeRepository creates a Redis-backed code repository.
func NewRedisCodeRepository(client *redis.Client) *RedisCodeRepository {
	return &RedisCodeRepository{client: client}
}

/*
Save stores code under key with a TTL.

Parameters:
  - context: context.Context
  - key: string (namespaced under auth:otp:)
  - code: Code
  - ttl: time.Duration

Returns:
  - error: Encoding or connectivity errors
*/
func (repository *RedisCodeRepository) Save(context context.Context, key string, code Code, ttl time.Duration) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("redis_code_repo_encode_failed: %w", err)
	}

	if err := repository.client.Set(context, constants.RedisPrefixOTP+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_code_repo_save_failed: %w", err)
	}
	return nil
}

/*
Find retrieves the code stored under key.

Returns:
  - *Code: The stored code
  - error: apperr.NotFound if the key is missing or expired
*/
func (repository *RedisCodeRepository) Find(context context.Context, key string) (*Code, error) {
	payload, err := repository.client.Get(context, constants.RedisPrefixOTP+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Code")
		}
		return nil, fmt.Errorf("redis_code_repo_find_failed: %w", err)
	}

	var code Code
	if err := json.Unmarshal(payload, &code); err != nil {
		return nil, fmt.Errorf("redis_code_repo_decode_failed: %w", err)
	}
	return &code, nil
}

// Delete removes the code stored under key.
func (repository *RedisCodeRepository) Delete(context context.Context, key string) error {
	if err := repository.client.Del(context, constants.RedisPrefixOTP+key).Err(); err != nil {
		return fmt.Errorf("redis_code_repo_delete_failed: %w", err)
	}
	return nil
}
