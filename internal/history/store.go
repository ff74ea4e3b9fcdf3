// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package history persists conversation turns per session so follow-up
// questions can be sent with their prior context. Turns are kept either in
// local JSONL files or in a PostgreSQL table.
package history

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/chat"
)

// Store keeps conversation history keyed by session id.
type Store interface {
	// Load returns up to limit most recent messages in chronological order.
	// limit <= 0 returns all of them.
	Load(ctx context.Context, sessionID string, limit int) ([]chat.ConversationMessage, error)
	// Append adds messages to the end of the session.
	Append(ctx context.Context, sessionID string, msgs ...chat.ConversationMessage) error
	// Clear removes every message of the session.
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// record is the persisted form of one message.
type record struct {
	Time            time.Time `json:"time"`
	Role            chat.Role `json:"role"`
	Content         string    `json:"content"`
	ExecutedQueries []string  `json:"executed_queries,omitempty"`
}

func (r record) message() chat.ConversationMessage {
	return chat.ConversationMessage{Role: r.Role, Content: r.Content, ExecutedQueries: r.ExecutedQueries}
}

var validSession = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ErrInvalidSession is returned for session ids that are empty or contain
// characters outside [A-Za-z0-9._-].
var ErrInvalidSession = errors.New("invalid session id")

func checkSession(id string) error {
	if !validSession.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return nil
}

// Turn builds the two messages recorded after a successful call.
func Turn(question string, res *chat.ChatStreamResult) []chat.ConversationMessage {
	return []chat.ConversationMessage{
		{Role: chat.RoleUser, Content: question},
		{Role: chat.RoleAssistant, Content: res.Answer, ExecutedQueries: res.SQL()},
	}
}

// Open returns a PostgreSQL store when dsn is set, otherwise a file store in
// the XDG state directory.
func Open(ctx context.Context, dsn string, log *pterm.Logger) (Store, error) {
	if dsn != "" {
		s, err := OpenPostgres(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := OpenFileStore("")
	if err != nil {
		return nil, err
	}
	return s, nil
}

func tail(msgs []chat.ConversationMessage, limit int) []chat.ConversationMessage {
	if limit > 0 && len(msgs) > limit {
		return msgs[len(msgs)-limit:]
	}
	return msgs
}
