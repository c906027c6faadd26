package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Chat roles. Notification and preference turns are system-generated
// and excluded from summarization transcripts.
const (
	RoleUser         = "user"
	RoleAssistant    = "assistant"
	RoleNotification = "notification"
	RolePreference   = "preference"
)

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// KeyEvent is a notable moment kept alongside the rolling summary.
type KeyEvent struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Turn        int    `json:"turn"`
}

// Summary is the rolling conversation summary.
type Summary struct {
	Text               string
	KeyEvents          []KeyEvent
	LastSummarizedTurn int
}

// AppendMessage records a chat turn.
func (s *Store) AppendMessage(role, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO chat_history (id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, NewID(), role, content, time.Now().Format(time.RFC3339Nano))
	return err
}

// RecentMessages returns the latest limit messages in chronological order.
func (s *Store) RecentMessages(limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, created_at FROM chat_history
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// OlderMessages returns the messages before the most recent keepRecent,
// in chronological order. These are the summarization candidates.
func (s *Store) OlderMessages(keepRecent int) ([]ChatMessage, error) {
	total, err := s.CountMessages()
	if err != nil {
		return nil, err
	}
	if total <= keepRecent {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, created_at FROM chat_history
		ORDER BY created_at ASC LIMIT ?
	`, total-keepRecent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteMessages removes chat turns by id, once their content has been
// folded into the rolling summary.
func (s *Store) DeleteMessages(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM chat_history WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountMessages returns the total number of chat turns.
func (s *Store) CountMessages() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chat_history`).Scan(&n)
	return n, err
}

// ClearHistory drops all chat turns and the summary.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec(`DELETE FROM chat_history`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM conversation_summary`)
	return err
}

// GetSummary returns the rolling conversation summary. An empty summary
// is returned when none has been saved.
func (s *Store) GetSummary() (Summary, error) {
	var sum Summary
	var events string
	err := s.db.QueryRow(`
		SELECT summary_text, key_events_json, last_summarized_turn
		FROM conversation_summary WHERE id = 1
	`).Scan(&sum.Text, &events, &sum.LastSummarizedTurn)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, nil
	}
	if err != nil {
		return Summary{}, err
	}

	if err := json.Unmarshal([]byte(events), &sum.KeyEvents); err != nil {
		return Summary{}, fmt.Errorf("unmarshal key events: %w", err)
	}
	return sum, nil
}

// SaveSummary replaces the rolling conversation summary.
func (s *Store) SaveSummary(sum Summary) error {
	events, err := json.Marshal(sum.KeyEvents)
	if err != nil {
		return fmt.Errorf("marshal key events: %w", err)
	}
	if sum.KeyEvents == nil {
		events = []byte("[]")
	}

	_, err = s.db.Exec(`
		INSERT INTO conversation_summary (id, summary_text, key_events_json, last_summarized_turn)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary_text = excluded.summary_text,
			key_events_json = excluded.key_events_json,
			last_summarized_turn = excluded.last_summarized_turn
	`, sum.Text, string(events), sum.LastSummarizedTurn)
	return err
}
