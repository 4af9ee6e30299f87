// Package redisdoc persists partition documents in Redis hashes. It backs
// local development and tests (miniredis); production deployments use the
// DynamoDB backend with the same Redis change bus.
package redisdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/railvoice/railvoice/internal/docstore"
	"github.com/railvoice/railvoice/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "railvoice:partition:"

func redisKey(key string) string {
	return keyPrefix + key
}

// Backend implements docstore.Backend. Each partition document is a Redis
// hash; field values are JSON-encoded so merge writes touch only the fields
// they carry.
type Backend struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Backend {
	return &Backend{rdb: rdb}
}

func (b *Backend) Read(ctx context.Context, key string) (*docstore.Document, error) {
	fields, err := b.rdb.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", key, err)
	}
	// HGetAll returns an empty map for keys that don't exist.
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	doc := &docstore.Document{Key: key}
	if raw, ok := fields["announcements"]; ok {
		var anns []domain.Announcement
		if err := json.Unmarshal([]byte(raw), &anns); err != nil {
			return nil, fmt.Errorf("decode partition %s: %w", key, err)
		}
		doc.Announcements = anns
	}
	if raw, ok := fields["updated_at"]; ok {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode partition %s updated_at: %w", key, err)
		}
		doc.UpdatedAt = ts
	}
	return doc, nil
}

func (b *Backend) WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	encoded := make([]interface{}, 0, len(fields)*2)
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode field %s: %w", name, err)
		}
		encoded = append(encoded, name, string(raw))
	}
	if err := b.rdb.HSet(ctx, redisKey(key), encoded...).Err(); err != nil {
		return fmt.Errorf("write partition %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.rdb.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete partition %s: %w", key, err)
	}
	return nil
}
