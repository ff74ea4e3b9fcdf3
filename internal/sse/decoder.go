// Package sse decodes the server-sent-event framing used by the chat backend.
//
// The backend writes every event as exactly two lines followed by a blank
// separator:
//
//	event: <type>
//	data: <json>
//
// The decoder pairs an event line with the data line that immediately follows
// it. Anything else between them orphans the event, which is dropped with a
// warning instead of failing the stream.
package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/logging"
)

const (
	eventPrefix = "event:"
	dataPrefix  = "data:"
)

// Event is one decoded event block.
type Event struct {
	Type string
	Data []byte
}

// Decoder reads events from a stream one line at a time.
type Decoder struct {
	r       *bufio.Reader
	log     *pterm.Logger
	pending string
	hasPend bool
	lines   int
}

// NewDecoder wraps r. A nil logger discards warnings.
func NewDecoder(r io.Reader, log *pterm.Logger) *Decoder {
	return &Decoder{
		r:   bufio.NewReaderSize(r, 64*1024),
		log: logging.OrDiscard(log),
	}
}

// Lines returns how many lines have been read so far.
func (d *Decoder) Lines() int { return d.lines }

// Next returns the next complete event. ctx is checked before every line
// read; a cancelled context returns ctx.Err(). At end of stream Next returns
// io.EOF, dropping any event still waiting for its data line.
func (d *Decoder) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		line, err := d.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && d.hasPend {
				d.orphan("end of stream")
			}
			return Event{}, err
		}

		switch {
		case strings.HasPrefix(line, dataPrefix):
			data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
			if !d.hasPend {
				d.log.Debug("data line without event", d.log.Args("line", d.lines))
				continue
			}
			ev := Event{Type: d.pending, Data: []byte(data)}
			d.pending, d.hasPend = "", false
			return ev, nil

		case strings.HasPrefix(line, eventPrefix):
			if d.hasPend {
				d.orphan("another event line")
			}
			d.pending = strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))
			d.hasPend = true

		case line == "":
			if d.hasPend {
				d.orphan("blank line")
			}

		default:
			// comments (":keepalive") and unknown fields
			if d.hasPend {
				d.orphan("unexpected line")
			}
		}
	}
}

func (d *Decoder) orphan(reason string) {
	d.log.Warn("discarding event without data line",
		d.log.Args("event", d.pending, "reason", reason, "line", d.lines))
	d.pending, d.hasPend = "", false
}

// readLine returns one line without its terminator. A final line without a
// trailing newline is still returned before io.EOF.
func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			d.lines++
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	d.lines++
	return strings.TrimRight(line, "\r\n"), nil
}
