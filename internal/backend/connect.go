package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/errors"
)

// StreamPath is the chat streaming endpoint relative to the base URL.
const StreamPath = "/api/chat/stream"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 << 10

type wireRequest struct {
	Message   string                     `json:"message"`
	History   []chat.ConversationMessage `json:"history"`
	SessionID string                     `json:"session_id"`
	Format    string                     `json:"format"`
}

func encodeRequest(req chat.ChatRequest) ([]byte, error) {
	history := req.History
	if history == nil {
		history = []chat.ConversationMessage{}
	}
	return json.Marshal(wireRequest{
		Message:   req.Message,
		History:   history,
		SessionID: req.SessionID,
		Format:    req.OutputFormat,
	})
}

// connect performs the POST with retries and returns the body of the first
// 200 response. The caller owns the returned body.
func (h *HTTP) connect(ctx context.Context, payload []byte) (io.ReadCloser, error) {
	url := h.baseURL + StreamPath
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancel(err)
		}

		body, err := h.attempt(ctx, url, payload)
		if err == nil {
			if attempt > 1 {
				h.log.Debug("connected after retry", h.log.Args("attempt", attempt))
			}
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Cancel(ctxErr)
		}

		retry, wait := h.retry.ShouldRetry(attempt, err)
		if !retry {
			return nil, err
		}
		h.log.Warn("connection attempt failed, retrying", h.log.Args(
			"attempt", attempt,
			"max_attempts", h.retry.MaxAttempts,
			"backoff", wait.String(),
			"error", err.Error(),
		))
		if err := sleepContext(ctx, wait); err != nil {
			return nil, errors.Cancel(err)
		}
	}
}

func (h *HTTP) attempt(ctx context.Context, url string, payload []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.Client, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.Connection, "send request", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	h.log.Debug("stream request rejected", h.log.Args("status", resp.StatusCode))
	return nil, errors.HTTP(resp.StatusCode, string(text))
}

func describeRequest(req chat.ChatRequest) string {
	return fmt.Sprintf("session=%s history=%d format=%s", req.SessionID, len(req.History), req.OutputFormat)
}
