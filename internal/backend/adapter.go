// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the client for the Lakechat chat service.
// It opens the streaming chat endpoint with retries, then hands the event
// stream to the chat state machine until a final answer or a failure.
package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/errors"
	"lakechat/cli/internal/logging"
	"lakechat/cli/internal/sse"
)

// API defines backend operations the CLI depends on.
// Implementations may call the real service or provide fakes for tests.
type API interface {
	// StreamChat sends one chat request and blocks until the final result,
	// reporting progress synchronously through onProgress (which may be nil).
	StreamChat(ctx context.Context, req chat.ChatRequest, onProgress chat.ProgressFunc) (*chat.ChatStreamResult, error)
}

// Options configures an HTTP client.
type Options struct {
	// BaseURL is the service root, e.g. "https://chat.example.com".
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token     string
	UserAgent string
	// CallTimeout bounds a whole call including retries and the stream.
	// Zero means only the caller's context applies.
	CallTimeout time.Duration
	Transport   TransportConfig
	Retry       RetryPolicy
	Logger      *pterm.Logger
}

// HTTP implements API over the streaming REST endpoint.
// It is safe for concurrent use; each call keeps its own stream state.
type HTTP struct {
	baseURL     string
	token       string
	userAgent   string
	callTimeout time.Duration
	retry       RetryPolicy
	client      *http.Client
	log         *pterm.Logger
}

// New creates an HTTP backend client. A zero Retry uses DefaultRetryPolicy.
func New(opts Options) *HTTP {
	retry := opts.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &HTTP{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		userAgent:   opts.UserAgent,
		callTimeout: opts.CallTimeout,
		retry:       retry,
		client:      newHTTPClient(opts.Transport),
		log:         logging.OrDiscard(opts.Logger),
	}
}

// StreamChat implements API.
func (h *HTTP) StreamChat(ctx context.Context, req chat.ChatRequest, onProgress chat.ProgressFunc) (*chat.ChatStreamResult, error) {
	req = req.Normalize()
	if h.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.callTimeout)
		defer cancel()
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, errors.Wrap(errors.Client, "encode request", err)
	}
	h.log.Debug("starting chat stream", h.log.Args("request", describeRequest(req)))

	body, err := h.connect(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dec := sse.NewDecoder(body, h.log)
	res, err := chat.NewMachine(req.SessionID, onProgress, h.log).Run(ctx, dec)
	h.log.Debug("chat stream finished", h.log.Args("lines", dec.Lines(), "ok", err == nil))
	return res, err
}
