package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const historyTTL = 24 * time.Hour

// RedisStore is a Store backed by a JSON blob per user. It survives process
// restarts for the key TTL but offers no durability guarantee. The
// read-modify-write in AppendExchange is serialized per user by an in-process
// keyed mutex; the relay runs as a single process, so this is sufficient for
// the per-user ordering contract.
type RedisStore struct {
	redis    *redis.Client
	maxPairs int
	tracer   trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore creates a Redis-backed Store keeping at most maxPairs pairs
// per user.
func NewRedisStore(client *redis.Client, maxPairs int, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if maxPairs <= 0 {
		maxPairs = 10
	}
	if tracer == nil {
		tracer = otel.Tracer("whatsrelay.internal.conversation.history")
	}
	return &RedisStore{
		redis:    client,
		maxPairs: maxPairs,
		tracer:   tracer,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) keyLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *RedisStore) History(ctx context.Context, userID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	turns, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return turns, nil
}

func (s *RedisStore) AppendExchange(ctx context.Context, userID, userText, assistantText string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.append_exchange")
	defer span.End()

	l := s.keyLock(userID)
	l.Lock()
	defer l.Unlock()

	turns, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	turns = append(turns,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
	turns = trimPairs(turns, s.maxPairs)

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(userID), data, historyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, userID string) ([]Turn, error) {
	data, err := s.redis.Get(ctx, historyKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return turns, nil
}

func historyKey(userID string) string {
	return fmt.Sprintf("conversation:%s", userID)
}
