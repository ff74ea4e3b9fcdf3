package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"

	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS chat_history (
	id               BIGSERIAL PRIMARY KEY,
	session_id       TEXT        NOT NULL,
	role             TEXT        NOT NULL,
	content          TEXT        NOT NULL,
	executed_queries JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_history_session_idx ON chat_history (session_id, id);
`

// PostgresStore keeps history in the chat_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *pterm.Logger
}

// OpenPostgres connects to dsn, verifies the connection and creates the
// table if needed.
func OpenPostgres(ctx context.Context, dsn string, log *pterm.Logger) (*PostgresStore, error) {
	log = logging.OrDiscard(log)
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse history DSN: %s", logging.Mask(err.Error()))
	}
	cfg.MaxConns = 2

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctxPing, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if _, err := pool.Exec(ctxPing, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	log.Debug("history database ready", log.Args("host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database))
	return &PostgresStore{pool: pool, log: log}, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, sessionID string, limit int) ([]chat.ConversationMessage, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT role, content, executed_queries FROM (
			SELECT id, role, content, executed_queries
			FROM chat_history
			WHERE session_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC`, sessionID, lim)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.ConversationMessage, error) {
		var (
			m       chat.ConversationMessage
			role    string
			queries []byte
		)
		if err := row.Scan(&role, &m.Content, &queries); err != nil {
			return m, err
		}
		m.Role = chat.Role(role)
		if len(queries) > 0 {
			if err := json.Unmarshal(queries, &m.ExecutedQueries); err != nil {
				s.log.Warn("ignoring malformed executed_queries", s.log.Args("session", sessionID, "error", err))
			}
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return msgs, nil
}

// Append implements Store. All messages are written in one transaction.
func (s *PostgresStore) Append(ctx context.Context, sessionID string, msgs ...chat.ConversationMessage) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range msgs {
		var queries []byte
		if len(m.ExecutedQueries) > 0 {
			b, err := json.Marshal(m.ExecutedQueries)
			if err != nil {
				return fmt.Errorf("marshal executed queries: %w", err)
			}
			queries = b
		}
		batch.Queue(`INSERT INTO chat_history (session_id, role, content, executed_queries) VALUES ($1, $2, $3, $4)`,
			sessionID, string(m.Role), m.Content, queries)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
