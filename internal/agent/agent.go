// Package agent runs the assistant session: it turns user text into
// tool calls through the LLM, fires scheduled activities from a minute
// tick, and runs house checks on location changes.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthd/hearth/internal/llm"
	"github.com/hearthd/hearth/internal/notify"
	"github.com/hearthd/hearth/internal/rag"
	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/store"
	"github.com/hearthd/hearth/internal/summarizer"
	"github.com/hearthd/hearth/internal/toolcall"
	"github.com/hearthd/hearth/internal/tools"
)

// Canned replies for the failure paths. Raw model output must never
// leak to the user when it was meant to be a tool call.
const (
	replyEmptyInput    = "I didn't understand that. Could you please rephrase?"
	replyEmptyResponse = "I'm sorry, I didn't receive a response. Please try again."
	replyParseFailure  = "I encountered an issue processing that request. Could you please try again?"
	replyUnavailable   = "Unable to reach the language model. Please ensure Ollama is running."
	replyGenericError  = "I encountered an error processing your request. Please try again."
)

// Config controls the agent's model and retrieval behavior.
type Config struct {
	Model         string
	RAGTopK       int
	RAGThreshold  float64
	RAGWait       time.Duration
	HistoryWindow int
}

func (c *Config) applyDefaults() {
	if c.RAGTopK <= 0 {
		c.RAGTopK = 3
	}
	if c.RAGThreshold <= 0 {
		c.RAGThreshold = 0.5
	}
	if c.RAGWait <= 0 {
		c.RAGWait = 2 * time.Second
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 5
	}
}

// ActivityContext is the schedule item whose window contains now.
// EndTime is the start of the next item, empty when open-ended.
type ActivityContext struct {
	Activity string
	Time     string
	Location string
	EndTime  string
}

// Agent owns one user session.
type Agent struct {
	store      *store.Store
	state      *state.Manager
	router     *tools.Router
	client     llm.Client
	parser     *toolcall.Parser
	retriever  rag.Retriever
	notifier   *notify.Service
	summarizer *summarizer.Summarizer
	logger     *slog.Logger
	cfg        Config

	mu            sync.Mutex
	turn          int
	lastAssistant string
	recent        *notify.Notification
	current       *ActivityContext
	lastLocation  string
	lastTickDate  string
	lastTickMin   string
	fired         map[string]struct{}
}

// New wires an agent session.
func New(st *store.Store, mgr *state.Manager, router *tools.Router, client llm.Client, retriever rag.Retriever, notifier *notify.Service, sum *summarizer.Summarizer, logger *slog.Logger, cfg Config) *Agent {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		store:      st,
		state:      mgr,
		router:     router,
		client:     client,
		parser:     toolcall.NewParser(router.Names()...),
		retriever:  retriever,
		notifier:   notifier,
		summarizer: sum,
		logger:     logger.With("component", "agent"),
		cfg:        cfg,
		fired:      make(map[string]struct{}),
	}
}

// CurrentActivity returns the activity whose window contains now, or nil.
func (a *Agent) CurrentActivity() *ActivityContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// HandleMessage runs one chat turn: build context, generate, parse tool
// calls, dispatch them, and return the user-visible reply. Failures
// degrade to friendly messages; the returned error is reserved for
// storage faults. The session lock is held only while capturing context
// and recording the outcome; generation runs unlocked so a slow model
// never starves the schedule tick.
func (a *Agent) HandleMessage(ctx context.Context, userMessage string) (string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return replyEmptyInput, nil
	}

	pc, lastReply, err := a.beginTurn(userMessage)
	if err != nil {
		return "", err
	}
	pc.ragRes = a.retrieveContext(ctx, userMessage, pc.snapshot.User.Condition, lastReply, pc.current)

	reply := a.generateAndDispatch(ctx, buildMessages(pc, userMessage))

	return a.finishTurn(userMessage, reply)
}

// beginTurn records the user turn and captures everything the prompt is
// built from under the session lock.
func (a *Agent) beginTurn(userMessage string) (promptContext, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history, err := a.store.RecentMessages(a.cfg.HistoryWindow)
	if err != nil {
		return promptContext{}, "", err
	}
	if err := a.store.AppendMessage(store.RoleUser, userMessage); err != nil {
		return promptContext{}, "", err
	}

	snap, err := a.state.Snapshot()
	if err != nil {
		return promptContext{}, "", err
	}
	summary, err := a.store.GetSummary()
	if err != nil {
		return promptContext{}, "", err
	}

	return promptContext{
		snapshot: snap,
		summary:  summary,
		recent:   a.recent,
		current:  a.current,
		history:  history,
	}, a.lastAssistant, nil
}

// finishTurn records the reply and settles the notification window.
func (a *Agent) finishTurn(userMessage, reply string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.AppendMessage(store.RoleAssistant, reply); err != nil {
		return "", err
	}
	a.lastAssistant = reply

	// A notification's response window is one user turn.
	if a.recent != nil {
		confirmation, err := a.notifier.ReconcilePreference(userMessage, a.recent)
		if err != nil {
			return "", err
		}
		a.recent = nil
		if confirmation != "" {
			if err := a.store.AppendMessage(store.RolePreference, confirmation); err != nil {
				return "", err
			}
			reply = reply + "\n" + confirmation
		}
	}

	a.turn++
	a.summarizeInBackground(a.turn)
	return reply, nil
}

func (a *Agent) generateAndDispatch(ctx context.Context, msgs []llm.Message) string {
	resp, err := a.client.Chat(ctx, a.cfg.Model, msgs, &llm.Options{Temperature: 0.7})
	if err != nil {
		a.logger.Error("generation failed", "error", err)
		if strings.Contains(strings.ToLower(err.Error()), "connect") {
			return replyUnavailable
		}
		return replyGenericError
	}

	raw := strings.TrimSpace(resp.Message.Content)
	if raw == "" {
		return replyEmptyResponse
	}

	calls := a.parser.Parse(raw)
	if len(calls) == 0 {
		if a.parser.LooksLikeToolCall(raw) {
			a.logger.Warn("tool call extraction failed", "length", len(raw))
			return replyParseFailure
		}
		return raw
	}

	var parts []string
	for _, call := range calls {
		res := a.router.Dispatch(ctx, call)
		if res["success"] == true {
			if msg, ok := res["message"].(string); ok && msg != "" {
				parts = append(parts, msg)
			}
			continue
		}
		if errMsg, ok := res["error"].(string); ok && errMsg != "" {
			parts = append(parts, errMsg)
		}
	}
	if len(parts) == 0 {
		return "Done."
	}
	return strings.Join(parts, "\n")
}

// retrieveContext fetches health knowledge concurrently, with a bounded
// wait. Retrieval is best-effort and never blocks the response path past
// the configured wait.
func (a *Agent) retrieveContext(ctx context.Context, message, condition, lastReply string, current *ActivityContext) *rag.Result {
	if a.retriever == nil {
		return nil
	}
	currentActivity := ""
	if current != nil {
		currentActivity = current.Activity
	}
	if !rag.ShouldQuery(message, condition, lastReply, currentActivity) {
		return nil
	}

	query := rag.EnhanceQuery(message, condition)

	var res rag.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := a.retriever.Retrieve(gctx, query, a.cfg.RAGTopK, a.cfg.RAGThreshold)
		if err != nil {
			return err
		}
		res = r
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Warn("retrieval failed", "error", err)
			return nil
		}
		a.logger.Debug("retrieval complete", "query", query, "found", res.Found)
		return &res
	case <-time.After(a.cfg.RAGWait):
		a.logger.Warn("retrieval timed out", "wait", a.cfg.RAGWait)
		return nil
	}
}

func (a *Agent) summarizeInBackground(turn int) {
	if a.summarizer == nil {
		return
	}
	go func() {
		if _, err := a.summarizer.MaybeSummarize(context.Background(), turn); err != nil {
			a.logger.Warn("background summarization failed", "error", err)
		}
	}()
}
