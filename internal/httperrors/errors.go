// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns chat client failures into user-facing messages.
// Classification uses the error kind and HTTP status carried by the error,
// never its text.
package httperrors

import (
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"unicode/utf8"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/errors"
	"lakechat/cli/internal/logging"
)

// Message is what the user sees for a failed call.
type Message struct {
	Icon    string
	Summary string
	Hints   []string
	// Detail is a sanitized technical description, shown at debug level.
	Detail string
}

// UserMessage classifies err into a user-facing message.
func UserMessage(err error) Message {
	if err == nil {
		return Message{}
	}
	detail := logging.Sanitize(err.Error())

	if status, ok := errors.StatusCode(err); ok && isBusy(status) {
		return Message{
			Icon:    "⏳",
			Summary: "The data service is busy, try again shortly.",
			Hints:   []string{"The service is handling many requests right now"},
			Detail:  detail,
		}
	}

	switch errors.KindOf(err) {
	case errors.Connection:
		return Message{
			Icon:    "🌐",
			Summary: "Having trouble connecting to the data service.",
			Hints:   connectionHints(err),
			Detail:  detail,
		}
	case errors.Cancelled:
		return Message{
			Icon:    "⏱️ ",
			Summary: "The request timed out before an answer was ready.",
			Hints: []string{
				"Try a narrower question",
				"Or raise the limit with --timeout",
			},
			Detail: detail,
		}
	case errors.Client:
		m := Message{
			Icon:    "🚫",
			Summary: "The request was rejected by the data service.",
			Detail:  detail,
		}
		if status, _ := errors.StatusCode(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			m.Hints = []string{"Run 'lakechat login' to store a valid API token"}
		}
		return m
	case errors.Server:
		return Message{
			Icon:    "⚠️ ",
			Summary: "The data service ran into a problem.",
			Hints:   []string{"This is not a problem with your setup", "Please try again in a few minutes"},
			Detail:  detail,
		}
	}

	return Message{
		Icon:    "❌",
		Summary: "Something went wrong: " + truncate(detail, 160),
		Detail:  detail,
	}
}

func isBusy(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func connectionHints(err error) []string {
	switch {
	case isDNSError(err):
		return []string{"Check the backend address in your config", "Check your DNS settings"}
	case isConnectionRefusedError(err):
		return []string{"The service may be down", "Check the backend address and port"}
	case isTLSError(err):
		return []string{"Check your system date and time", "Verify network proxy settings"}
	case isTimeoutError(err):
		return []string{"The server took too long to respond", "Please try again in a few moments"}
	}
	return []string{"Check your internet connection", "Firewall settings might block the request"}
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	return stderrors.Is(err, syscall.ECONNREFUSED)
}

func isTLSError(err error) bool {
	var (
		recErr     tls.RecordHeaderError
		certErr    *tls.CertificateVerificationError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
	)
	return stderrors.As(err, &recErr) ||
		stderrors.As(err, &certErr) ||
		stderrors.As(err, &unknownErr) ||
		stderrors.As(err, &hostErr)
}

// Present prints the user message for err to w. context describes what was
// being done, e.g. "asking a question".
func Present(w io.Writer, context string, err error) {
	if err == nil {
		return
	}
	m := UserMessage(err)
	pterm.Fprintln(w, m.Icon+" "+m.Summary)
	if len(m.Hints) > 0 {
		pterm.Fprintln(w)
		for _, h := range m.Hints {
			pterm.Fprintln(w, "  • "+h)
		}
	}
	pterm.Fprintln(w)
	if m.Detail != "" {
		pterm.Debug.WithWriter(w).Printfln("while %s: %s", context, truncate(m.Detail, 200))
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
