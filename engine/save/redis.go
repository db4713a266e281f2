package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/nathoo/fablecore/types"
)

// RedisStore keeps snapshots as JSON string values, with a set of slot
// names as the index.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// Dial connects to redis at addr, either host:port or a redis:// URL, and
// checks the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	opt := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		var err error
		if opt, err = redis.ParseURL(addr); err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisStore returns a store whose keys all start with prefix.
func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (r *RedisStore) key(slot string) string { return r.prefix + ":save:" + slot }
func (r *RedisStore) index() string { return r.prefix + ":saves" }

// Save stores the snapshot and indexes its slot in one transaction.
func (r *RedisStore) Save(ctx context.Context, slot string, snap types.Snapshot) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		r.logger.Error("Failed to marshal snapshot", "slot", slot, "error", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(slot), data, 0)
		pipe.SAdd(ctx, r.index(), slot)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save snapshot", "slot", slot, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot in a slot.
func (r *RedisStore) Load(ctx context.Context, slot string) (types.Snapshot, error) {
	if err := CheckSlot(slot); err != nil {
		return types.Snapshot{}, err
	}
	data, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	if err != nil {
		r.logger.Error("Failed to load snapshot", "slot", slot, "error", err)
		return types.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return Decode(data)
}

// List returns the indexed slot names, sorted.
func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	slots, err := r.client.SMembers(ctx, r.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes a slot and its index entry.
func (r *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(slot))
		pipe.SRem(ctx, r.index(), slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	return nil
}

// Close closes the redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
