package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakechat/cli/internal/chat"
)

type fakeAPI struct {
	progress []chat.Progress
	res      *chat.ChatStreamResult
	err      error
	got      chat.ChatRequest
}

func (f *fakeAPI) StreamChat(ctx context.Context, req chat.ChatRequest, onProgress chat.ProgressFunc) (*chat.ChatStreamResult, error) {
	f.got = req
	for _, p := range f.progress {
		onProgress(p)
	}
	return f.res, f.err
}

func TestRunAskForwardsProgress(t *testing.T) {
	api := &fakeAPI{
		progress: []chat.Progress{{Stage: chat.StageClassifying}, {Stage: chat.StageComplete}},
		res:      &chat.ChatStreamResult{Answer: "ok", SessionID: "s"},
	}
	req := chat.ChatRequest{Message: "q", SessionID: "s"}

	out := tempOutput(t)
	res, err := runAsk(context.Background(), api, req, out)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
	assert.Equal(t, req, api.got)
}

func TestRunAskWritesProgressToOutput(t *testing.T) {
	api := &fakeAPI{
		progress: []chat.Progress{{Stage: chat.StageClassifying}, {Stage: chat.StageSynthesizing}},
		res:      &chat.ChatStreamResult{Answer: "ok"},
	}
	out := tempOutput(t)

	_, err := runAsk(context.Background(), api, chat.ChatRequest{Message: "q"}, out)
	require.NoError(t, err)

	written, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Contains(t, string(written), "Understanding your question")
	assert.Contains(t, string(written), "Writing the answer")
	assert.NotContains(t, string(written), "\x1b[", "non-terminal output must not get cursor control")
}

func tempOutput(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "progress")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRunAskReturnsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := runAsk(context.Background(), &fakeAPI{err: boom}, chat.ChatRequest{Message: "q"}, tempOutput(t))
	assert.ErrorIs(t, err, boom)
}

func TestReportedError(t *testing.T) {
	inner := errors.New("inner")
	err := reportedError{inner}

	assert.True(t, isReported(err))
	assert.False(t, isReported(inner))
	assert.ErrorIs(t, err, inner)
}

func TestVersionFlag(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		showVersion = false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "lakechat "+Version, strings.TrimSpace(out.String()))
}

func TestInlineSpinnerClearsLine(t *testing.T) {
	var buf syncBuffer
	stop := startInlineSpinner(&buf, "working", spinnerFrames, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	stop()
	stop()

	out := buf.String()
	assert.Contains(t, out, "working")
	assert.True(t, strings.HasSuffix(out, "\r"))
}

// syncBuffer guards a bytes.Buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
