package conversation

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message exchanged in a conversation, tagged by role. Turns are
// immutable once appended to a history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []Turn
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient generates a reply from an assembled prompt. Any failure is
// reported as an ordinary error; the pipeline treats all causes identically.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// Messenger delivers generated replies back to the end user.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

// Store owns the bounded per-user conversation history. Implementations must
// serialize read-modify-write access per user id; operations for different
// users may proceed fully in parallel.
type Store interface {
	// History returns the stored turns for a user, oldest first. A user with
	// no prior conversation yields an empty history, never an error.
	History(ctx context.Context, userID string) ([]Turn, error)

	// AppendExchange appends one user turn followed by one assistant turn,
	// then evicts the oldest pairs so the history never exceeds the
	// configured pair limit. Turns are only ever persisted in pairs.
	AppendExchange(ctx context.Context, userID, userText, assistantText string) error
}
