package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
)

const defaultCohereModel = "command-r"

// CohereClient implements ports.TextGenerator on the Cohere chat API.
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

var _ ports.TextGenerator = (*CohereClient)(nil)

// NewCohereClient builds a Cohere chat client.
func NewCohereClient(apiKey, model string, timeout time.Duration) *CohereClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if model == "" || !strings.HasPrefix(model, "command") {
		model = defaultCohereModel
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &CohereClient{client: client, model: model}
}

// Generate sends the system prompt as preamble and returns the reply text.
func (c *CohereClient) Generate(ctx context.Context, prompt ports.Prompt) (string, error) {
	req := &cohere.ChatRequest{
		Message:     prompt.User,
		Model:       ptr(c.model),
		Temperature: ptr(prompt.Temperature),
	}
	if system := strings.TrimSpace(prompt.System); system != "" {
		req.Preamble = ptr(system)
	}
	if prompt.MaxTokens > 0 {
		req.MaxTokens = ptr(prompt.MaxTokens)
	}

	resp, err := c.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: cohere returned empty response", domain.ErrInvalidResponse)
	}
	return resp.Text, nil
}

func ptr[T any](v T) *T { return &v }
