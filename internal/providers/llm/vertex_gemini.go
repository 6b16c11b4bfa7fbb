package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/yoockh/yootravel/internal/models"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

// NewVertexGemini uses application default credentials unless
// credentialsFile names a service account key.
func NewVertexGemini(ctx context.Context, projectID, location, modelName, credentialsFile string) (*VertexGemini, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Name() string { return "vertex_gemini" }

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete maps system messages to the model's system instruction, replays the
// earlier turns as chat history and sends the final user message.
func (v *VertexGemini) Complete(ctx context.Context, messages []models.ChatMessage, opts Options) (string, error) {
	system, history, last, err := toVertexHistory(messages)
	if err != nil {
		return "", err
	}

	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, vertexgenai.Text(last))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return strings.TrimSpace(sb.String()), nil
}

func toVertexHistory(messages []models.ChatMessage) (system string, history []*vertexgenai.Content, last string, err error) {
	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleUser {
		return "", nil, "", errors.New("last message must be a user message")
	}

	var sys []string
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case models.RoleSystem:
			sys = append(sys, msg.Content)
		case models.RoleUser:
			history = append(history, &vertexgenai.Content{Role: "user", Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)}})
		case models.RoleAssistant:
			history = append(history, &vertexgenai.Content{Role: "model", Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)}})
		}
	}
	return strings.Join(sys, "\n\n"), history, messages[len(messages)-1].Content, nil
}
