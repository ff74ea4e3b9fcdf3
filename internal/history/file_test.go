package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakechat/cli/internal/chat"
)

func TestFileStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(ctx, "sess-1",
		chat.ConversationMessage{Role: chat.RoleUser, Content: "how many orders?"},
		chat.ConversationMessage{Role: chat.RoleAssistant, Content: "42", ExecutedQueries: []string{"SELECT count(*) FROM orders"}},
	))
	require.NoError(t, s.Append(ctx, "sess-2",
		chat.ConversationMessage{Role: chat.RoleUser, Content: "other session"},
	))

	got, err := s.Load(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []chat.ConversationMessage{
		{Role: chat.RoleUser, Content: "how many orders?"},
		{Role: chat.RoleAssistant, Content: "42", ExecutedQueries: []string{"SELECT count(*) FROM orders"}},
	}, got)
}

func TestFileStoreLoadLimitKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)

	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(ctx, "s", chat.ConversationMessage{Role: chat.RoleUser, Content: c}))
	}

	got, err := s.Load(ctx, "s", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Content)
	assert.Equal(t, "d", got[1].Content)
}

func TestFileStoreMissingSession(t *testing.T) {
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)

	got, err := s.Load(context.Background(), "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, s.Clear(context.Background(), "unknown"))
}

func TestFileStoreClear(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, "s", chat.ConversationMessage{Role: chat.RoleUser, Content: "x"}))
	require.NoError(t, s.Clear(ctx, "s"))

	got, err := s.Load(ctx, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileStore(dir)
	require.NoError(t, err)

	content := `{"role":"user","content":"first"}` + "\n" +
		"not json\n\n" +
		`{"role":"assistant","content":"second"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.jsonl"), []byte(content), 0o600))

	got, err := s.Load(context.Background(), "s", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[1].Content)
}

func TestFileStoreRejectsPathLikeSessions(t *testing.T) {
	s, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		_, err := s.Load(context.Background(), id, 0)
		assert.ErrorIs(t, err, ErrInvalidSession, id)
	}
}

func TestOpenDefaultsToFileStore(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	s, err := Open(context.Background(), "", nil)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*FileStore)
	assert.True(t, ok)
}

func TestTurn(t *testing.T) {
	res := &chat.ChatStreamResult{
		Answer:          "done",
		ExecutedQueries: []chat.ExecutedQuery{{GeneratedSQL: "SELECT 1"}},
	}
	got := Turn("q", res)
	assert.Equal(t, []chat.ConversationMessage{
		{Role: chat.RoleUser, Content: "q"},
		{Role: chat.RoleAssistant, Content: "done", ExecutedQueries: []string{"SELECT 1"}},
	}, got)
}
