// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"go.uber.org/zap"
)

const (
	redisActiveKeyPrefix = "attendance:active:"
	redisRecordKeyPrefix = "attendance:shift:"

	// Records are kept well past the lookback window so corrective total
	// recomputation on historical shifts stays possible.
	redisRecordRetention = 90 * 24 * time.Hour
)

// RedisLedger stores shift records in redis: one JSON blob per record plus an
// active-record pointer per identity.
type RedisLedger struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// NewRedisLedger connects a ledger to the given redis instance.
func NewRedisLedger(uri string, password string, db int) *RedisLedger {
	return &RedisLedger{
		client: redis.NewClient(&redis.Options{
			Addr:     uri,
			Password: password,
			DB:       db,
		}),
		log: logger.For(logger.ComponentLedger),
	}
}

// Ping verifies the connection. Called once at startup.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// FindActive resolves the active pointer and checks it still qualifies.
func (l *RedisLedger) FindActive(ctx context.Context, identity string, since time.Time) (*Record, error) {
	id, err := l.client.Get(ctx, redisActiveKeyPrefix+identity).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active shift for %s: %w", identity, err)
	}

	data, err := l.client.Get(ctx, redisRecordKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		l.log.Warnf("Active pointer for %s names missing record %s, treating as no active shift", identity, id)

		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift record %s: %w", id, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode shift record %s: %w", id, err)
	}

	if record.Status == StatusCheckedOut || record.CheckIn.Before(since) {
		return nil, nil
	}

	return &record, nil
}

// Create stores the record and points the identity's active key at it.
func (l *RedisLedger) Create(ctx context.Context, record *Record) error {
	if err := l.put(ctx, record); err != nil {
		return err
	}

	if err := l.client.Set(ctx, redisActiveKeyPrefix+record.Identity, record.ID, redisRecordRetention).Err(); err != nil {
		return fmt.Errorf("failed to set active pointer for %s: %w", record.Identity, err)
	}

	return nil
}

// Update overwrites the record; a checked-out record clears the active
// pointer.
func (l *RedisLedger) Update(ctx context.Context, record *Record) error {
	if err := l.put(ctx, record); err != nil {
		return err
	}

	if record.Status == StatusCheckedOut {
		if err := l.client.Del(ctx, redisActiveKeyPrefix+record.Identity).Err(); err != nil {
			return fmt.Errorf("failed to clear active pointer for %s: %w", record.Identity, err)
		}
	}

	return nil
}

func (l *RedisLedger) put(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode shift record %s: %w", record.ID, err)
	}

	if err := l.client.Set(ctx, redisRecordKeyPrefix+record.ID, data, redisRecordRetention).Err(); err != nil {
		return fmt.Errorf("failed to store shift record %s: %w", record.ID, err)
	}

	return nil
}
