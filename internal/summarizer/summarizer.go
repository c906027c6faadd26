// Package summarizer compresses old conversation turns into a rolling
// summary so long sessions keep a bounded prompt. Summarization runs in
// the background and is never allowed to block a chat turn.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hearthd/hearth/internal/llm"
	"github.com/hearthd/hearth/internal/store"
)

// Config controls when and how summarization runs.
type Config struct {
	// Window is the number of recent messages kept verbatim.
	// Messages beyond it are summarization candidates. Default: 50.
	Window int

	// MinTurnGap is the minimum number of turns between summarization
	// runs. Default: 10.
	MinTurnGap int

	// Timeout per summarization LLM call. Default: 60 seconds.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Window:     50,
		MinTurnGap: 10,
		Timeout:    60 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.MinTurnGap <= 0 {
		c.MinTurnGap = d.MinTurnGap
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
}

// maxTranscriptChars is the maximum transcript size sent to the LLM.
const maxTranscriptChars = 2000

// maxSummaryChars bounds the stored rolling summary.
const maxSummaryChars = 500

// maxKeyEvents bounds the stored key event history.
const maxKeyEvents = 20

// Summarizer folds old chat turns into a persistent rolling summary.
type Summarizer struct {
	store  *store.Store
	client llm.Client
	model  string
	logger *slog.Logger
	config Config
}

// New creates a summarizer.
func New(st *store.Store, client llm.Client, model string, logger *slog.Logger, cfg Config) *Summarizer {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		store:  st,
		client: client,
		model:  model,
		logger: logger.With("component", "summarizer"),
		config: cfg,
	}
}

// MaybeSummarize folds messages beyond the recent window into the
// rolling summary when enough turns have passed since the last run.
// Returns true when a new summary was saved.
func (s *Summarizer) MaybeSummarize(ctx context.Context, turn int) (bool, error) {
	existing, err := s.store.GetSummary()
	if err != nil {
		return false, err
	}
	if turn-existing.LastSummarizedTurn < s.config.MinTurnGap {
		return false, nil
	}

	old, err := s.store.OlderMessages(s.config.Window)
	if err != nil {
		return false, err
	}
	if len(old) == 0 {
		return false, nil
	}

	updated := s.Summarize(ctx, old, existing)
	updated.LastSummarizedTurn = turn
	if err := s.store.SaveSummary(updated); err != nil {
		return false, err
	}

	// Folded turns are consumed so the next run only sees new history.
	ids := make([]string, len(old))
	for i, m := range old {
		ids[i] = m.ID
	}
	if err := s.store.DeleteMessages(ids); err != nil {
		return false, err
	}

	s.logger.Info("conversation summarized",
		"messages", len(old),
		"events", len(updated.KeyEvents),
		"turn", turn,
	)
	return true, nil
}

// Summarize condenses old messages and merges the result into the
// existing summary. An LLM failure degrades to a key-event count
// instead of an error so callers never lose the merge.
func (s *Summarizer) Summarize(ctx context.Context, old []store.ChatMessage, existing store.Summary) store.Summary {
	if len(old) == 0 {
		return existing
	}

	events := ExtractKeyEvents(old)
	transcript := buildTranscript(old)

	if strings.TrimSpace(transcript) == "" {
		existing.KeyEvents = trimEvents(append(existing.KeyEvents, events...))
		return existing
	}

	text := s.generate(ctx, transcript)
	if text == "" {
		text = fmt.Sprintf("Previous conversation included: %d key events (device controls, schedule changes, preferences).", len(events))
	}

	merged := existing
	if existing.Text != "" {
		merged.Text = existing.Text + "\n\n" + text
	} else {
		merged.Text = text
	}
	merged.Text = truncate(merged.Text, maxSummaryChars)
	merged.KeyEvents = trimEvents(append(existing.KeyEvents, events...))
	return merged
}

func (s *Summarizer) generate(ctx context.Context, transcript string) string {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Summarize this conversation focusing on:
- User preferences and important decisions
- Device control patterns
- Schedule changes
- Key information the user shared

Conversation:
%s

Provide a concise summary (max 200 words):`, transcript)

	resp, err := s.client.Chat(ctx, s.model, []llm.Message{{Role: "user", Content: prompt}}, &llm.Options{
		Temperature: 0.3,
		NumPredict:  300,
	})
	if err != nil {
		s.logger.Warn("summarization failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Message.Content)
}

// ExtractKeyEvents scans messages for device controls, schedule changes,
// and preference updates worth remembering after the turns are folded
// into the summary.
func ExtractKeyEvents(msgs []store.ChatMessage) []store.KeyEvent {
	var events []store.KeyEvent
	for _, m := range msgs {
		content := strings.ToLower(m.Content)

		switch {
		case strings.Contains(content, "turned"):
			events = append(events, keyEvent("device_control", m.Content))
		case containsAny(content, "schedule", "appointment", "meeting", "added", "changed", "deleted"):
			events = append(events, keyEvent("schedule_change", m.Content))
		case strings.Contains(content, "preference") || strings.Contains(content, "keep it on"):
			events = append(events, keyEvent("preference_set", m.Content))
		}
	}
	return events
}

func keyEvent(kind, content string) store.KeyEvent {
	return store.KeyEvent{Type: kind, Description: truncate(content, 100)}
}

// buildTranscript formats messages for the LLM, skipping system-generated
// notification and preference turns.
func buildTranscript(msgs []store.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role == store.RoleNotification || m.Role == store.RolePreference {
			continue
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
		if b.Len() > maxTranscriptChars {
			break
		}
	}
	return truncate(b.String(), maxTranscriptChars)
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func trimEvents(events []store.KeyEvent) []store.KeyEvent {
	if len(events) > maxKeyEvents {
		events = events[len(events)-maxKeyEvents:]
	}
	return events
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
