package render

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakechat/cli/internal/chat"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		p    chat.Progress
		want string
	}{
		{chat.Progress{Stage: chat.StageClassifying}, "Understanding your question"},
		{chat.Progress{Stage: chat.StageExecuting, QueriesTotal: 3, QueriesDone: 1}, "Running queries (1/3 done)"},
		{chat.Progress{Stage: chat.StageExecuting}, "Running queries"},
		{chat.Progress{Stage: chat.StageSynthesizing}, "Writing the answer"},
		{chat.Progress{Stage: chat.StageComplete}, "Done"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.p))
	}
}

func TestPlainProgressPrintsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgress(&buf, false)
	r.Start()

	q := []chat.DataQuestion{{Question: "Orders per day"}}
	r.Update(chat.Progress{Stage: chat.StageClassifying})
	r.Update(chat.Progress{Stage: chat.StageClassifying})
	r.Update(chat.Progress{Stage: chat.StageExecuting, QueriesTotal: 1, DataQuestions: q})
	r.Update(chat.Progress{Stage: chat.StageExecuting, QueriesTotal: 1, QueriesDone: 1, DataQuestions: q})
	r.Update(chat.Progress{Stage: chat.StageComplete, QueriesTotal: 1, QueriesDone: 1})
	r.Stop()
	r.Stop()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"• Understanding your question",
		"• Running queries (0/1 done): Orders per day",
		"• Running queries (1/1 done): Orders per day",
		"• Done",
	}, lines)
}

func TestInteractiveProgressWithoutFileFallsBackToLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewProgress(&buf, true)
	r.Start()
	r.Update(chat.Progress{Stage: chat.StageSynthesizing})
	r.Stop()

	assert.Equal(t, "• Writing the answer\n", buf.String())
}

func TestInteractiveProgressDrawsOnItsWriter(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	require.NoError(t, err)
	defer f.Close()

	r := NewProgress(f, true)
	r.Start()
	r.Update(chat.Progress{Stage: chat.StageClassifying})
	r.Stop()

	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "\x1b[?25l")
	assert.Contains(t, out, "Understanding your question")
	assert.True(t, strings.HasSuffix(out, "\x1b[?25h"), "cursor restored last")
}

func TestTable(t *testing.T) {
	q := chat.ExecutedQuery{
		Columns: []string{"day", "count", "note"},
		Rows: []map[string]any{
			{"day": "mon", "count": float64(3), "note": nil},
			{"day": "tue", "count": 4.5},
		},
	}
	out := Table(q)

	assert.Contains(t, out, "day")
	assert.Contains(t, out, "mon")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "4.5")
	assert.Contains(t, out, "3")
	assert.Empty(t, Table(chat.ExecutedQuery{}))
}

func TestTableTruncatesRows(t *testing.T) {
	q := chat.ExecutedQuery{Columns: []string{"n"}}
	for i := 0; i < MaxTableRows+5; i++ {
		q.Rows = append(q.Rows, map[string]any{"n": "row"})
	}
	assert.Equal(t, MaxTableRows, strings.Count(Table(q), "row"))
}

func TestResult(t *testing.T) {
	res := &chat.ChatStreamResult{
		Answer:    "There were 7 orders.",
		SessionID: "sess-1",
		ExecutedQueries: []chat.ExecutedQuery{
			{Question: "Orders", GeneratedSQL: "SELECT count(*) AS n FROM orders", Columns: []string{"n"}, Rows: []map[string]any{{"n": float64(7)}}, RowCount: 1},
			{Question: "Broken", GeneratedSQL: "SELEC", Error: "syntax error"},
		},
	}

	var plain bytes.Buffer
	Result(&plain, res, false)
	assert.Contains(t, plain.String(), "There were 7 orders.")
	assert.Contains(t, plain.String(), "session: sess-1")
	assert.NotContains(t, plain.String(), "SELECT count(*)")

	var full bytes.Buffer
	Result(&full, res, true)
	assert.Contains(t, full.String(), "Query 1: Orders")
	assert.Contains(t, full.String(), "SELECT count(*) AS n FROM orders")
	assert.Contains(t, full.String(), "syntax error")
}
