package utils

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ContentGenerator materializes message bodies from a prompt and merge
// variables. The orchestrator never stores generated content, only template
// references; generation happens at dispatch time.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string, vars map[string]string) (string, error)
}

// OpenAIGenerator is a thin wrapper over the chat completions API
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const systemPrompt = "You write short, personal follow-up messages for a marketing " +
	"automation platform. Return only the message body, no preamble."

// Generate produces a message body for the given prompt and merge variables
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, vars map[string]string) (string, error) {
	var sb strings.Builder
	sb.WriteString(prompt)
	if len(vars) > 0 {
		sb.WriteString("\n\nContext:\n")
		for k, v := range vars {
			fmt.Fprintf(&sb, "- %s: %s\n", k, v)
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("content generation returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// RenderTemplate substitutes {{var}} placeholders in a template body
func RenderTemplate(body string, vars map[string]string) string {
	for k, v := range vars {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return body
}
