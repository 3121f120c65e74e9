package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/humanizi/whatsrelay/internal/observability/metrics"
	"github.com/humanizi/whatsrelay/internal/webhook"
	"github.com/humanizi/whatsrelay/pkg/logging"
)

const replyEllipsis = "..."

// MessageLog records inbound/outbound messages for audit. Implementations
// must tolerate being skipped entirely (the log is optional).
type MessageLog interface {
	RecordInbound(ctx context.Context, userID, body string) error
	RecordOutbound(ctx context.Context, userID, body, status string) error
}

// PipelineConfig carries the reply-generation knobs.
type PipelineConfig struct {
	Model          string
	SystemPrompt   string
	MaxTokens      int32
	Temperature    float32
	MaxReplyLength int
}

// PipelineDeps wires the pipeline collaborators. Store, LLM and Messenger are
// required; Transcripts and Log are optional audit sinks.
type PipelineDeps struct {
	Store       Store
	LLM         LLMClient
	Messenger   Messenger
	Transcripts *TranscriptStore
	Log         MessageLog
	Logger      *logging.Logger
	Metrics     *metrics.RelayMetrics
}

// Pipeline runs the reply flow for one inbound event: normalize, classify,
// load history, assemble the prompt, generate, persist the exchange, deliver.
type Pipeline struct {
	store       Store
	llm         LLMClient
	messenger   Messenger
	transcripts *TranscriptStore
	log         MessageLog
	logger      *logging.Logger
	metrics     *metrics.RelayMetrics
	cfg         PipelineConfig
}

// NewPipeline creates a new reply pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	if deps.Store == nil {
		panic("conversation: store cannot be nil")
	}
	if deps.LLM == nil {
		panic("conversation: llm client cannot be nil")
	}
	if deps.Messenger == nil {
		panic("conversation: messenger cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Pipeline{
		store:       deps.Store,
		llm:         deps.LLM,
		messenger:   deps.Messenger,
		transcripts: deps.Transcripts,
		log:         deps.Log,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		cfg:         cfg,
	}
}

// Process runs the pipeline once for a raw webhook body. It never fails: any
// internal error degrades to a logged terminal outcome so the caller can ack
// the platform unconditionally.
func (p *Pipeline) Process(ctx context.Context, body []byte) webhook.Outcome {
	ev := webhook.Normalize(body)
	class := webhook.Classify(ev)
	outcome := webhook.Outcome{Classification: class, UserID: ev.Sender()}

	switch class {
	case webhook.ClassStatus:
		st := ev.Statuses[0]
		p.logger.Info("message status received",
			"status", st.Status,
			"recipient_id", st.RecipientID,
			"message_id", st.ID,
		)
		return outcome
	case webhook.ClassEmpty:
		p.logger.Info("event without processable messages")
		return outcome
	case webhook.ClassCallPermission:
		p.logCallPermission(ev)
		return outcome
	case webhook.ClassInteractiveOther:
		p.logger.Info("interactive event ignored",
			"interactive_type", ev.FirstMessage().Interactive.Type,
			"from", outcome.UserID,
		)
		return outcome
	case webhook.ClassUnsupportedType:
		p.logger.Info("non-text message ignored",
			"message_type", ev.FirstMessage().Type,
			"from", outcome.UserID,
		)
		return outcome
	case webhook.ClassEmptyText:
		p.logger.Info("empty text message ignored", "from", outcome.UserID)
		return outcome
	}

	return p.reply(ctx, ev, outcome)
}

func (p *Pipeline) reply(ctx context.Context, ev webhook.Event, outcome webhook.Outcome) webhook.Outcome {
	msg := ev.FirstMessage()
	userText := msg.Text.Body
	from := outcome.UserID
	firstName := ev.FirstName()

	p.logger.Info("text message received",
		"from", from,
		"first_name", firstName,
		"text", userText,
	)
	p.recordInbound(ctx, from, userText)

	history, err := p.store.History(ctx, from)
	if err != nil {
		// Degrade to a contextless reply rather than dropping the message.
		p.logger.Error("failed to load history", "user_id", from, "error", err)
		history = nil
	}

	prompt := AssemblePrompt(p.cfg.SystemPrompt, history, userText)
	resp, err := p.llm.Complete(ctx, LLMRequest{
		Model:       p.cfg.Model,
		Messages:    prompt,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})

	var reply string
	if err != nil {
		p.logger.Error("reply generation failed", "user_id", from, "error", err)
		p.metrics.ObserveGeneration("error")
		reply = FallbackReply(firstName)
	} else {
		p.metrics.ObserveGeneration("ok")
		reply = truncateReply(resp.Text, p.cfg.MaxReplyLength)
		outcome.Generated = true

		// History grows only on successful generation; a fallback reply is
		// never remembered as context.
		if err := p.store.AppendExchange(ctx, from, userText, reply); err != nil {
			p.logger.Error("failed to append exchange", "user_id", from, "error", err)
		}
	}

	p.appendTranscripts(ctx, from, userText, reply, outcome.Generated)

	if err := p.messenger.SendText(ctx, from, reply); err != nil {
		p.logger.Error("failed to deliver reply", "user_id", from, "error", err)
		p.metrics.ObserveDelivery("error")
		p.recordOutbound(ctx, from, reply, "failed")
		return outcome
	}

	p.logger.Info("reply delivered", "user_id", from, "generated", outcome.Generated)
	p.metrics.ObserveDelivery("ok")
	p.recordOutbound(ctx, from, reply, "sent")
	outcome.Delivered = true
	return outcome
}

func (p *Pipeline) logCallPermission(ev webhook.Event) {
	msg := ev.FirstMessage()
	cpr := msg.Interactive.CallPermissionReply
	args := []any{
		"from", ev.Sender(),
		"first_name", ev.FirstName(),
	}
	if cpr != nil {
		args = append(args, "response", cpr.Response)
		if cpr.ExpirationTimestamp > 0 {
			expires := time.Unix(cpr.ExpirationTimestamp, 0).UTC()
			args = append(args, "expires_at", expires.Format(time.RFC3339))
		}
	}
	p.logger.Info("call permission reply received", args...)
}

func (p *Pipeline) appendTranscripts(ctx context.Context, userID, userText, reply string, generated bool) {
	if p.transcripts == nil {
		return
	}
	source := "fallback"
	if generated {
		source = "model"
	}
	if err := p.transcripts.Append(ctx, userID, TranscriptEntry{Role: RoleUser, Body: userText}); err != nil {
		p.logger.Warn("failed to append user transcript", "user_id", userID, "error", err)
	}
	if err := p.transcripts.Append(ctx, userID, TranscriptEntry{Role: RoleAssistant, Body: reply, Source: source}); err != nil {
		p.logger.Warn("failed to append assistant transcript", "user_id", userID, "error", err)
	}
}

func (p *Pipeline) recordInbound(ctx context.Context, userID, body string) {
	if p.log == nil {
		return
	}
	if err := p.log.RecordInbound(ctx, userID, body); err != nil {
		p.logger.Warn("failed to record inbound message", "user_id", userID, "error", err)
	}
}

func (p *Pipeline) recordOutbound(ctx context.Context, userID, body, status string) {
	if p.log == nil {
		return
	}
	if err := p.log.RecordOutbound(ctx, userID, body, status); err != nil {
		p.logger.Warn("failed to record outbound message", "user_id", userID, "error", err)
	}
}

// FallbackReply is the fixed technical-difficulty reply, addressed by first
// name when one is known.
func FallbackReply(firstName string) string {
	if firstName == "" {
		return "Desculpe, estou com dificuldades técnicas no momento. Pode repetir?"
	}
	return fmt.Sprintf("Desculpe %s, estou com dificuldades técnicas no momento. Pode repetir?", firstName)
}

// truncateReply caps the reply at maxLen runes, replacing the tail with an
// ellipsis marker when it overflows.
func truncateReply(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	cut := maxLen - len(replyEllipsis)
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + replyEllipsis
}
