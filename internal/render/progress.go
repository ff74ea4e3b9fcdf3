// Package render draws chat progress and results in the terminal.
package render

import (
	"fmt"
	"io"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"lakechat/cli/internal/chat"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 120 * time.Millisecond

// Describe returns the status line for a progress snapshot.
func Describe(p chat.Progress) string {
	switch p.Stage {
	case chat.StageClassifying:
		return "Understanding your question"
	case chat.StageExecuting:
		if p.QueriesTotal == 0 {
			return "Running queries"
		}
		return fmt.Sprintf("Running queries (%d/%d done)", p.QueriesDone, p.QueriesTotal)
	case chat.StageSynthesizing:
		return "Writing the answer"
	case chat.StageComplete:
		return "Done"
	}
	return "Working"
}

// Progress shows live status for one call. In interactive mode it keeps a
// single spinner line in a cursor area drawn on w; otherwise it prints one
// line per status change to w.
//
// Update may be called from the streaming goroutine while the spinner
// goroutine redraws; both go through mu.
type Progress struct {
	w           io.Writer
	interactive bool

	mu       sync.Mutex
	status   string
	question string
	area     *cursor.Area
	cur      *cursor.Cursor
	frame    int
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewProgress creates a renderer writing to w. Interactive rendering is only
// used when interactive is true and w is backed by a file descriptor.
func NewProgress(w io.Writer, interactive bool) *Progress {
	return &Progress{w: w, interactive: interactive}
}

// Start begins rendering. It falls back to plain lines if w cannot host
// an area.
func (r *Progress) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = "Connecting"
	if !r.interactive {
		return
	}
	out, ok := r.w.(cursor.Writer)
	if !ok {
		r.interactive = false
		return
	}
	r.cur = cursor.NewCursor().WithWriter(out)
	r.cur.Hide()
	area := cursor.NewArea().WithWriter(out)
	r.area = &area
	r.redraw()
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.spin()
}

func (r *Progress) spin() {
	defer r.wg.Done()
	t := time.NewTicker(spinnerInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.mu.Lock()
			r.frame++
			r.redraw()
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

// redraw requires mu.
func (r *Progress) redraw() {
	if r.area == nil {
		return
	}
	line := fmt.Sprintf("%s %s", spinnerFrames[r.frame%len(spinnerFrames)], r.status)
	if r.question != "" {
		line += "\n  " + pterm.Gray(r.question)
	}
	r.area.Update(line)
}

// Update implements chat.ProgressFunc.
func (r *Progress) Update(p chat.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Describe(p)
	question := ""
	if p.Stage == chat.StageExecuting && len(p.DataQuestions) > 0 {
		question = p.DataQuestions[len(p.DataQuestions)-1].Question
	}
	changed := status != r.status || question != r.question
	r.status, r.question = status, question

	if r.area != nil {
		r.redraw()
		return
	}
	if !changed {
		return
	}
	if question != "" {
		pterm.Fprintln(r.w, fmt.Sprintf("• %s: %s", status, question))
		return
	}
	pterm.Fprintln(r.w, "• "+status)
}

// Stop ends rendering and restores the cursor. It is safe to call more than
// once.
func (r *Progress) Stop() {
	r.mu.Lock()
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.area != nil {
		r.area.Clear()
		r.area = nil
	}
	r.cur.Show()
}
