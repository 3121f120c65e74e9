package conversation

import (
	"context"
	"log/slog"
)

// FallbackLLMClient wraps a primary LLM client with a secondary provider.
// If the primary fails, the request is retried once against the secondary.
type FallbackLLMClient struct {
	primary   LLMClient
	secondary LLMClient
	logger    *slog.Logger
}

// NewFallbackLLMClient creates a fallback-enabled LLM client. With a nil
// secondary it behaves exactly like the primary.
func NewFallbackLLMClient(primary, secondary LLMClient, logger *slog.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary LLM client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackLLMClient{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.secondary != nil,
	)

	if c.secondary == nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.secondary.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}
