package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yoockh/yootravel/internal/models"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
	groqTimeout        = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("GROQ_API_KEY not found in environment variables")

// Groq calls the Groq OpenAI-compatible chat completions endpoint.
type Groq struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGroq(baseURL, apiKey, model string) (*Groq, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGroqModel
	}
	return &Groq{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: groqTimeout},
	}, nil
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// Complete returns the first choice's content with surrounding whitespace
// removed. The text may be empty.
func (g *Groq) Complete(ctx context.Context, messages []models.ChatMessage, opts Options) (string, error) {
	reqBody := groqChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        1,
		Stream:      false,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var chatResp groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("groq decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("groq response has no choices")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Ping validates the API key with a minimal completion.
func (g *Groq) Ping(ctx context.Context) error {
	_, err := g.Complete(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: "Hello"}},
		Options{Temperature: DefaultOptions.Temperature, MaxTokens: 10})
	return err
}

type groqChatRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	TopP        float64              `json:"top_p"`
	Stream      bool                 `json:"stream"`
}

type groqChatResponse struct {
	Choices []struct {
		Message models.ChatMessage `json:"message"`
	} `json:"choices"`
}
