package llm

import (
	"context"
	"fmt"

	"github.com/yoockh/yootravel/internal/models"
)

// Options tunes a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// DefaultOptions are the sampling settings used for chat turns.
var DefaultOptions = Options{Temperature: 0.7, MaxTokens: 1024}

// Provider turns an ordered list of role-tagged messages into one reply.
// Implementations make exactly one request per call and never retry.
type Provider interface {
	Complete(ctx context.Context, messages []models.ChatMessage, opts Options) (string, error)
	Name() string
	Close() error
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api returned status %d: %s", e.StatusCode, e.Body)
}
