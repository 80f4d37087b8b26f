// Package ollama is the HTTP client for the local LLM server. It covers
// the two endpoints this system uses: /api/generate for advisory text
// and /api/embeddings for the guideline index. Calls retry with
// exponential backoff; anything that still fails after the retries is
// surfaced to the caller as a hard error.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL    = "http://127.0.0.1:11434"
	defaultModel      = "llama3.2"
	defaultEmbedModel = "nomic-embed-text"

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 60 * time.Second
)

// Client talks to one Ollama server. Safe for concurrent use.
type Client struct {
	BaseURL    string
	Model      string
	EmbedModel string
	HTTP       *http.Client
}

// New builds a client for the given server and models. Empty arguments
// fall back to local defaults.
func New(baseURL, model, embedModel string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}

	return &Client{
		BaseURL:    baseURL,
		Model:      model,
		EmbedModel: embedModel,
		HTTP:       &http.Client{Timeout: requestTimeout},
	}
}

// NewFromEnv builds a client from OLLAMA_URL / OLLAMA_MODEL /
// OLLAMA_EMBED_MODEL, falling back to local defaults.
func NewFromEnv() *Client {
	return New(os.Getenv("OLLAMA_URL"), os.Getenv("OLLAMA_MODEL"), os.Getenv("OLLAMA_EMBED_MODEL"))
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Generate sends one non-streamed prompt and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate payload: %w", err)
	}

	body, err := c.postWithRetry(ctx, "/api/generate", payload)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama generate error: %s", resp.Error)
	}
	return resp.Response, nil
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{
		Model:  c.EmbedModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed payload: %w", err)
	}

	body, err := c.postWithRetry(ctx, "/api/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama embed error: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return resp.Embedding, nil
}

// postWithRetry issues one POST with exponential backoff on transport
// errors and non-200 responses.
func (c *Client) postWithRetry(ctx context.Context, path string, payload []byte) ([]byte, error) {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			log.Warn().Err(lastErr).Msgf("Ollama attempt %d on %s failed", i+1, path)
			if err := sleepBackoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ollama returned %s: %s", resp.Status, string(body))
			log.Warn().Err(lastErr).Msgf("Ollama attempt %d on %s failed", i+1, path)
			if err := sleepBackoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		return body, nil
	}

	return nil, fmt.Errorf("ollama call failed after %d attempts: %w", maxRetries, lastErr)
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(math.Pow(2, float64(attempt))) * initialBackoff
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
