// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/errors"
	"lakechat/cli/internal/logging"
	"lakechat/cli/internal/sse"
)

// EventSource yields decoded events; *sse.Decoder implements it.
type EventSource interface {
	Next(ctx context.Context) (sse.Event, error)
}

// Machine tracks stream state across events for a single call.
// It is not safe for concurrent use; one goroutine drives it.
type Machine struct {
	sessionID  string
	onProgress ProgressFunc
	log        *pterm.Logger

	queriesTotal int
	queriesDone  int
	questions    []DataQuestion
}

// NewMachine creates a state machine for one call. onProgress may be nil.
func NewMachine(sessionID string, onProgress ProgressFunc, log *pterm.Logger) *Machine {
	return &Machine{
		sessionID:  sessionID,
		onProgress: onProgress,
		log:        logging.OrDiscard(log),
	}
}

// Run consumes src until a terminal event, end of stream, a read error or
// cancellation. Exactly one of the return values is non-nil.
func (m *Machine) Run(ctx context.Context, src EventSource) (*ChatStreamResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancel(err)
		}

		ev, err := src.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Cancel(ctxErr)
			}
			if stderrors.Is(err, io.EOF) {
				return nil, errors.New(errors.Protocol, "unexpected end of stream")
			}
			return nil, errors.Wrap(errors.Connection, "read event stream", err)
		}

		res, err := m.Handle(ev)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
}

// Handle applies one event. It returns a result for done, an error for error
// events and malformed done payloads, and (nil, nil) otherwise.
func (m *Machine) Handle(ev sse.Event) (*ChatStreamResult, error) {
	switch EventType(ev.Type) {
	case EventWorkflowStarted:
		m.log.Debug("workflow started", m.log.Args("session", m.sessionID))

	case EventThinking:
		stage := StageClassifying
		if m.queriesTotal > 0 {
			stage = StageSynthesizing
		}
		m.emit(stage, Unclassified)

	case EventQueryStarted:
		var p QueryStartedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			m.log.Warn("skipping malformed event", m.log.Args("event", ev.Type, "error", err))
			return nil, nil
		}
		m.queriesTotal++
		m.questions = append(m.questions, DataQuestion{Question: p.Question})
		m.emit(StageExecuting, Unclassified)

	case EventQueryDone:
		var p QueryDonePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			m.log.Warn("skipping malformed event", m.log.Args("event", ev.Type, "error", err))
			return nil, nil
		}
		if m.queriesDone >= m.queriesTotal {
			m.log.Warn("query finished without a matching start", m.log.Args("question", p.Question))
		} else {
			m.queriesDone++
		}
		if p.Error != "" {
			m.log.Debug("query failed", m.log.Args("question", p.Question, "error", p.Error))
		}
		m.emit(StageExecuting, Unclassified)

	case EventDone:
		var p DonePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, errors.Wrap(errors.Protocol, "malformed done event", err)
		}
		res := buildResult(p, m.queriesTotal, m.sessionID)
		m.questions = res.DataQuestions
		m.emit(StageComplete, res.Classification)
		m.log.Debug("stream complete", m.log.Args(
			"session", m.sessionID,
			"queries", m.queriesTotal,
			"classification", res.Classification.String(),
		))
		return res, nil

	case EventError:
		return nil, errors.New(errors.Backend, backendMessage(ev.Data))

	case EventHeartbeat:

	default:
		m.log.Info("ignoring unknown event", m.log.Args("event", ev.Type))
	}
	return nil, nil
}

func (m *Machine) emit(stage Stage, c Classification) {
	if m.onProgress == nil {
		return
	}
	questions := make([]DataQuestion, len(m.questions))
	copy(questions, m.questions)
	m.onProgress(Progress{
		Stage:          stage,
		Classification: c,
		DataQuestions:  questions,
		QueriesTotal:   m.queriesTotal,
		QueriesDone:    m.queriesDone,
	})
}

// backendMessage extracts the message of an error event, falling back to the
// raw payload when it is not the expected shape.
func backendMessage(data []byte) string {
	var p ErrorPayload
	if err := json.Unmarshal(data, &p); err == nil && strings.TrimSpace(p.Error) != "" {
		return p.Error
	}
	if raw := strings.TrimSpace(string(data)); raw != "" && raw != "{}" {
		return raw
	}
	return "backend reported an error"
}
