package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "transcript:"

// TranscriptEntry is one audit record of an exchanged message. Unlike history
// turns, transcript entries also record fallback replies and delivery status.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	Source    string    `json:"source,omitempty"` // "model" or "fallback"
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore keeps a capped, expiring audit trail of exchanged messages
// in Redis. All methods are nil-safe so the store can be left unconfigured.
type TranscriptStore struct {
	redis      *redis.Client
	tracer     trace.Tracer
	maxEntries int64
}

func NewTranscriptStore(redisClient *redis.Client) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	return &TranscriptStore{
		redis:      redisClient,
		tracer:     otel.Tracer("whatsrelay.internal.conversation.transcript"),
		maxEntries: 250,
	}
}

func (s *TranscriptStore) Append(ctx context.Context, userID string, entry TranscriptEntry) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if userID == "" {
		return errors.New("conversation: transcript userID required")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.UserID = userID

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("conversation: marshal transcript entry: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.append")
	defer span.End()

	key := transcriptKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, historyTTL)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, key, -s.maxEntries, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append transcript entry: %w", err)
	}
	return nil
}

// List returns up to limit most recent transcript entries, oldest first.
func (s *TranscriptStore) List(ctx context.Context, userID string, limit int64) ([]TranscriptEntry, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.maxEntries
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(userID), -limit, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}

	entries := make([]TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func transcriptKey(userID string) string {
	return transcriptKeyPrefix + userID
}
