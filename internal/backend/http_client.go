package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	qerrors "quorum/internal/errors"
	"quorum/internal/logging"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	chatCompletionsPath   = "/chat/completions"
	requestContentType    = "application/json"
	defaultRequestTimeout = 120 * time.Second
)

// Config holds connection settings for the HTTP backend.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Headers     map[string]string
}

type httpBackend struct {
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPBackend returns a Backend speaking the OpenAI-compatible chat
// completions protocol. Any endpoint exposing that surface (including local
// model servers) works through BaseURL.
func NewHTTPBackend(config Config) (Backend, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("backend model is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &httpBackend{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger("backend-http"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (b *httpBackend) Invoke(ctx context.Context, req InvokeRequest) (json.RawMessage, error) {
	userContent := req.Prompt
	if req.SchemaHint != "" {
		userContent += "\n\nSCHEMA REQUIREMENT (your previous response was invalid):\n" + req.SchemaHint
	}

	payload := chatRequest{
		Model: b.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: userContent},
		},
		Temperature: b.config.Temperature,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(b.config.BaseURL, "/") + chatCompletionsPath
	b.logger.Debug("[%s] POST %s model=%s retry_hint=%t", req.Role, endpoint, b.config.Model, req.SchemaHint != "")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", requestContentType)
	if b.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.config.APIKey)
	}
	for k, v := range b.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("[%s] backend returned HTTP %d", req.Role, resp.StatusCode)
		return nil, qerrors.NewHTTPStatusError(resp.StatusCode, resp.Status, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode backend envelope: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("backend returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("backend returned empty content")
	}

	return json.RawMessage(content), nil
}
