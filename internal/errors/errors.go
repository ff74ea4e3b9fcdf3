// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure surfaced by the chat client carries a machine-readable Kind so
// callers can decide between "try again", "fix your request" and "internal error"
// without inspecting message text.
//
// Kinds survive wrapping: use KindOf, Is or StatusCode on any error chain.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Connection indicates no HTTP status was obtained (refused, DNS, TLS,
	// timeout before headers) or the stream broke mid-read.
	Connection Kind = "connection"
	// Server indicates an HTTP status >= 500.
	Server Kind = "server"
	// Client indicates any other non-200 status, typically 4xx.
	Client Kind = "client"
	// Protocol indicates a malformed or truncated event stream.
	Protocol Kind = "protocol"
	// Backend indicates the backend reported an application-level failure
	// through an error event.
	Backend Kind = "backend"
	// Cancelled indicates caller cancellation or the overall deadline.
	Cancelled Kind = "cancelled"
	// Unknown is returned by KindOf for errors without a category.
	Unknown Kind = "unknown"
)

// E wraps an error with kind and human-friendly message.
// Status and Body are set for Server and Client kinds.
type E struct {
	Kind    Kind
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *E) Unwrap() error { return e.Err }

// Retryable reports whether the connection step may be attempted again.
func (e *E) Retryable() bool {
	return e.Kind == Connection || e.Kind == Server
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// HTTP builds a status-carrying error. Statuses >= 500 are Server errors,
// everything else is a Client error.
func HTTP(status int, body string) *E {
	kind := Client
	msg := "request rejected"
	if status >= 500 {
		kind = Server
		msg = "backend unavailable"
	}
	return &E{Kind: kind, Message: msg, Status: status, Body: strings.TrimSpace(body)}
}

// Cancel wraps a context error. The result matches both
// Is(err, Cancelled) and errors.Is(err, context.Canceled/DeadlineExceeded).
func Cancel(err error) *E {
	if err == nil {
		err = context.Canceled
	}
	msg := "request cancelled"
	if stderrors.Is(err, context.DeadlineExceeded) {
		msg = "deadline exceeded"
	}
	return &E{Kind: Cancelled, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *E in err's chain. Bare context errors
// are reported as Cancelled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var e *E
	if stderrors.As(err, &e) && e.Status != 0 {
		return e.Status, true
	}
	return 0, false
}
