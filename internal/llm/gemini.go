// Package llm оборачивает Gemini SDK в узкий интерфейс генерации текста,
// который используется сервисом AI-чата.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client описывает возможности генерации текста, нужные доменным сервисам.
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// GeminiClient адаптирует SDK Gemini к интерфейсу Client.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewGeminiClient создает клиент Gemini с закреплёнными параметрами генерации.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int, temperature float64) (*GeminiClient, error) {
	const op = "llm.NewGeminiClient"

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
	}, nil
}

// GenerateContent отправляет промпт модели и возвращает текст ответа.
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	const op = "llm.GeminiClient.GenerateContent"

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](g.temperature),
			MaxOutputTokens: g.maxTokens,
		})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%s: empty model response", op)
	}
	return text, nil
}

// Model возвращает имя используемой модели.
func (g *GeminiClient) Model() string {
	return g.model
}
