package sse

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakechat/cli/internal/logging"
)

func collect(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := d.Next(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestDecoderPairsEventAndData(t *testing.T) {
	stream := "event: workflow_started\ndata: {}\n\n" +
		"event: query_started\ndata: {\"question\":\"q1\",\"sql\":\"SELECT 1\"}\n\n"

	events := collect(t, NewDecoder(strings.NewReader(stream), nil))

	require.Len(t, events, 2)
	assert.Equal(t, "workflow_started", events[0].Type)
	assert.Equal(t, "{}", string(events[0].Data))
	assert.Equal(t, "query_started", events[1].Type)
	assert.JSONEq(t, `{"question":"q1","sql":"SELECT 1"}`, string(events[1].Data))
}

func TestDecoderHandlesCRLFAndMissingTrailingNewline(t *testing.T) {
	stream := "event: thinking\r\ndata: {}\r\n\r\nevent: done\r\ndata: {\"answer\":\"x\"}"

	events := collect(t, NewDecoder(strings.NewReader(stream), nil))

	require.Len(t, events, 2)
	assert.Equal(t, "thinking", events[0].Type)
	assert.Equal(t, "done", events[1].Type)
	assert.Equal(t, `{"answer":"x"}`, string(events[1].Data))
}

func TestDecoderDropsOrphanedEventWithWarning(t *testing.T) {
	var logs bytes.Buffer
	stream := "event: query_started\n\n" +
		"event: heartbeat\nevent: thinking\ndata: {}\n\n" +
		"data: {\"stray\":true}\n" +
		"event: done\n"

	events := collect(t, NewDecoder(strings.NewReader(stream), logging.New("warn", &logs)))

	require.Len(t, events, 1)
	assert.Equal(t, "thinking", events[0].Type)
	assert.Equal(t, 3, strings.Count(logs.String(), "discarding event without data line"))
}

func TestDecoderIgnoresComments(t *testing.T) {
	stream := ": keepalive\n\nevent: heartbeat\ndata: {}\n\n"

	events := collect(t, NewDecoder(strings.NewReader(stream), nil))

	require.Len(t, events, 1)
	assert.Equal(t, "heartbeat", events[0].Type)
}

func TestDecoderStopsOnCancelledContext(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: thinking\ndata: {}\n"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, d.Lines())
}

func TestDecoderHandlesLargePayloads(t *testing.T) {
	big := strings.Repeat("a", 256*1024)
	stream := "event: done\ndata: {\"answer\":\"" + big + "\"}\n\n"

	events := collect(t, NewDecoder(strings.NewReader(stream), nil))

	require.Len(t, events, 1)
	assert.Len(t, events[0].Data, len(big)+len(`{"answer":""}`))
}
