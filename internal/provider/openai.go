package provider

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

	"chorus/internal/logger"
	"chorus/internal/orchestrator"

	"github.com/tidwall/gjson"
)

// ChatInvoker calls one OpenAI-compatible chat completion backend
// (/v1/chat/completions; works for OpenAI, DeepSeek, Qwen and most proxies).
// Retry and backoff belong to the orchestrator: a ChatInvoker performs
// exactly one HTTP round trip per Invoke and classifies whatever happens.
type ChatInvoker struct {
	id      string
	url     string
	apiKey  string
	model   string
	headers map[string]string
	client  *http.Client
	breaker *Breaker
}

func NewChatInvoker(id, apiURL, apiKey, model string, headers map[string]string, breaker *Breaker) *ChatInvoker {
	return &ChatInvoker{
		id:     id,
		url:    chatCompletionsURL(apiURL),
		apiKey: apiKey,
		model:  model,
		// Timeouts come from the per-attempt context, not the client.
		client:  &http.Client{},
		headers: headers,
		breaker: breaker,
	}
}

// chatCompletionsURL normalizes the base URL so a config that already
// contains the full /chat/completions path does not double it.
func chatCompletionsURL(base string) string {
	url := strings.TrimSpace(base)
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *ChatInvoker) ID() string { return c.id }

// Invoke never returns a Go error: every failure path, including an open
// circuit, transport trouble and non-2xx statuses, becomes a classified
// Failure outcome.
func (c *ChatInvoker) Invoke(ctx context.Context, req orchestrator.InvocationRequest) orchestrator.Outcome {
	start := time.Now()
	if c.breaker != nil && !c.breaker.Allow() {
		return orchestrator.Failure(req.Model, orchestrator.ErrorRateLimit,
			fmt.Sprintf("circuit open for backend %s", c.id), time.Since(start))
	}
	logger.LogModelRequest(c.id, "", req.Prompt)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	})
	if err != nil {
		return orchestrator.Failure(req.Model, orchestrator.ErrorInvalidRequest, err.Error(), time.Since(start))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return orchestrator.Failure(req.Model, orchestrator.ErrorInvalidRequest, err.Error(), time.Since(start))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.recordFailure()
		class := orchestrator.ErrorUnknown
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			class = orchestrator.ErrorTimeout
		}
		return orchestrator.Failure(req.Model, class, err.Error(), time.Since(start))
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return orchestrator.Failure(req.Model, orchestrator.ErrorUnknown, err.Error(), time.Since(start))
	}

	if resp.StatusCode/100 == 2 {
		content := gjson.GetBytes(payload, "choices.0.message.content").String()
		if strings.TrimSpace(content) == "" {
			c.recordFailure()
			return orchestrator.Failure(req.Model, orchestrator.ErrorUnknown, "empty choices in response", time.Since(start))
		}
		if c.breaker != nil {
			c.breaker.RecordSuccess()
		}
		logger.LogModelResponse(c.id, "", content)
		return orchestrator.Success(req.Model, content, time.Since(start), time.Now())
	}

	class := classifyStatus(resp.StatusCode)
	msg := errorMessage(payload, resp)
	// Only backend-health failures feed the breaker; 4xx config mistakes say
	// nothing about whether the backend is up.
	if class.Retryable() {
		c.recordFailure()
	}
	logger.LogModelFailure(c.id, "", string(class), msg)
	return orchestrator.Failure(req.Model, class, msg, time.Since(start))
}

func (c *ChatInvoker) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func classifyStatus(code int) orchestrator.ErrorClass {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return orchestrator.ErrorAuth
	case code == http.StatusNotFound:
		return orchestrator.ErrorNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return orchestrator.ErrorInvalidRequest
	case code == http.StatusTooManyRequests:
		return orchestrator.ErrorRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return orchestrator.ErrorTimeout
	default:
		return orchestrator.ErrorUnknown
	}
}

// errorMessage digs the human-readable message out of the provider's error
// body; providers disagree on shape, so parse tolerantly and fall back to
// the HTTP status line.
func errorMessage(payload []byte, resp *http.Response) string {
	msg := strings.TrimSpace(gjson.GetBytes(payload, "error.message").String())
	if msg == "" {
		msg = strings.TrimSpace(gjson.GetBytes(payload, "message").String())
	}
	if msg == "" {
		msg = resp.Status
	}
	if typ := gjson.GetBytes(payload, "error.type").String(); typ != "" {
		msg = fmt.Sprintf("%s: %s", typ, msg)
	}
	return fmt.Sprintf("status=%d: %s", resp.StatusCode, msg)
}
