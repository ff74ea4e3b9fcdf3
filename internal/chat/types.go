// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package chat defines the chat request/result model and the state machine
// that turns a backend event stream into progress snapshots and a final
// result. It knows nothing about HTTP; see package backend for transport.
package chat

import (
	"github.com/google/uuid"
)

// DefaultOutputFormat is the answer format requested when none is set.
const DefaultOutputFormat = "slack"

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one prior turn sent as history.
// ExecutedQueries is only meaningful for assistant turns.
type ConversationMessage struct {
	Role            Role     `json:"role"`
	Content         string   `json:"content"`
	ExecutedQueries []string `json:"executedQueries,omitempty"`
}

// ChatRequest is the input of one streaming call.
type ChatRequest struct {
	Message      string
	History      []ConversationMessage
	SessionID    string
	OutputFormat string
}

// Normalize returns a copy with a generated session id and the default
// output format filled in when they are empty.
func (r ChatRequest) Normalize() ChatRequest {
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	if r.OutputFormat == "" {
		r.OutputFormat = DefaultOutputFormat
	}
	return r
}

// Stage is the coarse backend phase shown to the user.
type Stage int

const (
	StageClassifying Stage = iota
	StageExecuting
	StageSynthesizing
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageClassifying:
		return "classifying"
	case StageExecuting:
		return "executing"
	case StageSynthesizing:
		return "synthesizing"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Classification is how the backend treated the question.
type Classification int

const (
	Unclassified Classification = iota
	Conversational
	DataAnalysis
)

func (c Classification) String() string {
	switch c {
	case Conversational:
		return "conversational"
	case DataAnalysis:
		return "data_analysis"
	default:
		return "unclassified"
	}
}

// DataQuestion is a sub-question the backend answered with SQL.
// Rationale is only known once the terminal event arrives.
type DataQuestion struct {
	Question  string `json:"question"`
	Rationale string `json:"rationale"`
}

// ExecutedQuery is one query the backend ran, with rows keyed by column.
type ExecutedQuery struct {
	Question     string
	GeneratedSQL string
	Columns      []string
	Rows         []map[string]any
	RowCount     int
	Error        string
}

// Progress is a snapshot of stream state. Later snapshots supersede earlier
// ones; QueriesDone never exceeds QueriesTotal.
type Progress struct {
	Stage          Stage
	Classification Classification
	DataQuestions  []DataQuestion
	QueriesTotal   int
	QueriesDone    int
}

// ProgressFunc receives snapshots synchronously on the goroutine reading the
// stream, in stream order. It must return quickly.
type ProgressFunc func(Progress)

// ChatStreamResult is the final value of a successful call.
type ChatStreamResult struct {
	Answer          string
	Classification  Classification
	DataQuestions   []DataQuestion
	ExecutedQueries []ExecutedQuery
	SessionID       string
}

// SQL returns the generated SQL of every executed query, in order.
func (r *ChatStreamResult) SQL() []string {
	out := make([]string, 0, len(r.ExecutedQueries))
	for _, q := range r.ExecutedQueries {
		if q.GeneratedSQL != "" {
			out = append(out, q.GeneratedSQL)
		}
	}
	return out
}
