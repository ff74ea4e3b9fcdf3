package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/xdg"
)

// FileStore writes each session to <dir>/<session>.jsonl, one message per line.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// OpenFileStore creates a store rooted at dir, or at the sessions directory
// under the XDG state dir when dir is empty.
func OpenFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		state, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(state, "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".jsonl")
}

// Load implements Store. A session without a file has no history.
// Lines that fail to parse are skipped.
func (s *FileStore) Load(ctx context.Context, sessionID string, limit int) ([]chat.ConversationMessage, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var msgs []chat.ConversationMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		msgs = append(msgs, r.message())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return tail(msgs, limit), nil
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, sessionID string, msgs ...chat.ConversationMessage) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	var buf []byte
	for _, m := range msgs {
		data, err := json.Marshal(record{Time: now, Role: m.Role, Content: m.Content, ExecutedQueries: m.ExecutedQueries})
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
