package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/farmdash/internal/domain"
)

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// VertexConfig selects the project, region and model.
type VertexConfig struct {
	ProjectID string
	Location  string
	ModelName string
}

// NewVertexClient creates an LLMClient based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex project and location must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Contents maps the context window plus the new message to genai contents.
func Contents(userMessage string, convCtx domain.ConversationContext) []*genai.Content {
	var contents []*genai.Content
	for _, t := range convCtx.History {
		var role genai.Role = genai.RoleUser
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	text := userMessage
	if convCtx.Attachment != nil {
		text = fmt.Sprintf("[attached: %s (%s)]\n%s", convCtx.Attachment.DisplayName, convCtx.Attachment.Kind, userMessage)
	}
	return append(contents, genai.NewContentFromText(text, genai.RoleUser))
}

// GenerateReply implements domain.LLMClient using Vertex AI.
func (v *VertexClient) GenerateReply(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (string, error) {
	temp := float32(0.4)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(convCtx.Locale), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   2048,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, Contents(userMessage, convCtx), cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}

	return text, nil
}
