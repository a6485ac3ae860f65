// Package redis stores sheets in Redis, one string key per sheet, and
// publishes change notifications over Pub/Sub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/sticky/pkg/core"
)

// DefaultPrefix namespaces sheet keys.
const DefaultPrefix = "sticky:sheet:"

// Store implements core.Store using Redis.
type Store struct {
	client  *redis.Client
	prefix  string
	channel string
}

// NewStore connects to redisURL and verifies the connection.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, DefaultPrefix), nil
}

// NewStoreWithClient creates a store from an existing client. An empty
// prefix uses DefaultPrefix.
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client:  client,
		prefix:  prefix,
		channel: strings.TrimSuffix(prefix, ":") + ":events",
	}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Get returns the sheet stored under id.
func (s *Store) Get(ctx context.Context, id string) (core.Record, bool, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Record{}, false, err
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, fmt.Errorf("get sheet %s: %w", id, err)
	}
	return core.Record{ID: id, Data: data}, true, nil
}

// Put stores the record without expiry and announces the change.
func (s *Store) Put(ctx context.Context, rec core.Record) error {
	if err := core.ValidateID(rec.ID); err != nil {
		return err
	}

	// SET ... GET returns the previous value, telling create from modify in one round trip.
	_, err := s.client.SetArgs(ctx, s.key(rec.ID), rec.Data, redis.SetArgs{Get: true}).Result()
	eventType := core.EventModify
	switch {
	case errors.Is(err, redis.Nil):
		eventType = core.EventCreate
	case err != nil:
		return fmt.Errorf("put sheet %s: %w", rec.ID, err)
	}

	s.publish(ctx, eventType, rec.ID)
	return nil
}

// Clear deletes every key under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}
	for _, k := range keys {
		s.publish(ctx, core.EventDelete, strings.TrimPrefix(k, s.prefix))
	}
	return nil
}

// Keys lists sheet ids in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, s.prefix)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sheets: %w", err)
	}
	return keys, nil
}

// publish is best effort; a lost notification never fails the write.
func (s *Store) publish(ctx context.Context, t core.EventType, id string) {
	_ = s.client.Publish(ctx, s.channel, string(t)+" "+id).Err()
}

// Watch subscribes to change notifications for ids matching pattern
// (doublestar syntax, "" for all). The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	out := make(chan core.Event, 64)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				e, ok := parseEvent(msg.Payload)
				if !ok {
					continue
				}
				if match, _ := doublestar.Match(pattern, e.SheetID); !match {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func parseEvent(payload string) (core.Event, bool) {
	typ, id, ok := strings.Cut(payload, " ")
	if !ok || id == "" {
		return core.Event{}, false
	}
	switch t := core.EventType(typ); t {
	case core.EventCreate, core.EventModify, core.EventDelete:
		return core.Event{Type: t, SheetID: id, Timestamp: time.Now().UTC()}, true
	}
	return core.Event{}, false
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Addr    string `json:"addr"`
	Prefix  string `json:"prefix"`
	Channel string `json:"channel"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{
		Addr:    s.client.Options().Addr,
		Prefix:  s.prefix,
		Channel: s.channel,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "redis-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Lister                  = (*Store)(nil)
	_ core.Watchable               = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
