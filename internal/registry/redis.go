package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultPrefix = "offer:keys:"

// Redis stores each category as a hash so the rendering layer can fetch a
// whole offer's values in one round trip. Values are decimal strings.
type Redis struct {
	Client *redis.Client
	// Prefix namespaces the hash keys; defaults to "offer:keys:".
	Prefix string
	// TTL bounds how long an exported table stays readable. Zero keeps it
	// until overwritten.
	TTL time.Duration
}

func (r *Redis) key(category string) string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + category
}

// Submit writes the entries into the category hash and refreshes its TTL.
func (r *Redis) Submit(ctx context.Context, category string, entries []Entry) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("registry: redis client not configured")
	}
	if len(entries) == 0 {
		return nil
	}
	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[e.Name] = e.Value.String()
	}
	key := r.key(category)
	pipe := r.Client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if r.TTL > 0 {
		pipe.Expire(ctx, key, r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("registry: submit %s: %w", category, err)
	}
	return nil
}

// Snapshot reads the full category hash back as decimals.
func (r *Redis) Snapshot(ctx context.Context, category string) (map[string]decimal.Decimal, error) {
	if r == nil || r.Client == nil {
		return nil, fmt.Errorf("registry: redis client not configured")
	}
	fields, err := r.Client.HGetAll(ctx, r.key(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: snapshot %s: %w", category, err)
	}
	if len(fields) == 0 {
		return nil, ErrUnknownCategory
	}
	out := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("registry: corrupt value for %s.%s: %w", category, name, err)
		}
		out[name] = value
	}
	return out, nil
}
