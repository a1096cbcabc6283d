package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pdfchat/types"
)

// GeneratorInterface is the language-model port used for both question
// reformulation and answer generation.
type GeneratorInterface interface {
	Chat(ctx context.Context, turns []types.Turn) (string, error)
}

// OllamaChat talks to the Ollama /api/chat endpoint.
type OllamaChat struct {
	apiURL string
	model  string
	client *http.Client
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func NewOllamaChat(baseURL, model string) *OllamaChat {
	return &OllamaChat{
		apiURL: baseURL + "/api/chat",
		model:  model,
		// Generation on local models is slow, give it room.
		client: &http.Client{Timeout: 300 * time.Second},
	}
}

func (c *OllamaChat) Chat(ctx context.Context, turns []types.Turn) (string, error) {
	messages := make([]ollamaChatMessage, len(turns))
	for i, turn := range turns {
		messages[i] = ollamaChatMessage{Role: string(turn.Role), Content: turn.Content}
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err == nil && chatResp.Message.Content != "" {
		return chatResp.Message.Content, nil
	}

	// Some proxies hand back the streamed form even with stream=false,
	// collect the fragments into one answer.
	var output string
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	for decoder.More() {
		var chunk ollamaChatResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output += chunk.Message.Content
	}
	if output == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}
	return output, nil
}
