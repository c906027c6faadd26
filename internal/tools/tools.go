// Package tools defines the tools available to the assistant.
package tools

import (
	"context"
	"log/slog"

	"github.com/hearthd/hearth/internal/rag"
	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/toolcall"
)

// Result is the envelope every tool returns to the model. It always
// carries "success" and "tool"; the rest is tool-specific.
type Result map[string]any

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (Result, error) `json:"-"`
}

// Router holds the available tools and dispatches parsed calls.
type Router struct {
	tools        map[string]*Tool
	state        *state.Manager
	retriever    rag.Retriever
	logger       *slog.Logger
	ragTopK      int
	ragThreshold float64
}

// NewRouter creates the tool router. The retriever may be nil when no
// knowledge base is configured.
func NewRouter(st *state.Manager, retriever rag.Retriever, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		tools:        make(map[string]*Tool),
		state:        st,
		retriever:    retriever,
		logger:       logger,
		ragTopK:      3,
		ragThreshold: 0.5,
	}
	r.registerBuiltins()
	return r
}

// SetRetrieval overrides the retrieval parameters from configuration.
func (r *Router) SetRetrieval(topK int, threshold float64) {
	if topK > 0 {
		r.ragTopK = topK
	}
	if threshold > 0 {
		r.ragThreshold = threshold
	}
}

func (r *Router) registerBuiltins() {
	r.Register(&Tool{
		Name:        "chat_message",
		Description: "Send a conversational message to the user. Use for greetings, answers, confirmations, and reminders.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "The text to show the user",
				},
			},
			"required": []string{"message"},
		},
		Handler: r.handleChatMessage,
	})

	r.Register(&Tool{
		Name:        "e_device_control",
		Description: "Turn a home device on or off. Rooms and devices are matched loosely (e.g. 'living room lights').",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"room": map[string]any{
					"type":        "string",
					"description": "The room containing the device",
				},
				"device": map[string]any{
					"type":        "string",
					"description": "The device to control (Light, AC, TV, Fan, Alarm)",
				},
				"action": map[string]any{
					"type":        "string",
					"description": "Either 'on' or 'off'",
				},
			},
			"required": []string{"room", "device", "action"},
		},
		Handler: r.handleDeviceControl,
	})

	r.Register(&Tool{
		Name:        "schedule_modifier",
		Description: "Add, delete, or change schedule items. One-time events need a date; recurring activities repeat daily.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"description": "One of 'add', 'delete', 'change'",
				},
				"time": map[string]any{
					"type":        "string",
					"description": "Time in HH:MM (for add, or the new time for change)",
				},
				"activity": map[string]any{
					"type":        "string",
					"description": "The activity name (for add, or the new name for change)",
				},
				"old_time": map[string]any{
					"type":        "string",
					"description": "The current time of the item being changed",
				},
				"old_activity": map[string]any{
					"type":        "string",
					"description": "The current activity of the item being changed or deleted",
				},
				"user_message": map[string]any{
					"type":        "string",
					"description": "The user's original message, used to infer dates and locations",
				},
			},
			"required": []string{"operation"},
		},
		Handler: r.handleScheduleModifier,
	})

	r.Register(&Tool{
		Name:        "rag_query",
		Description: "Search the health knowledge base. Use for questions about exercise, diet, or the user's condition.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.handleRAGQuery,
	})
}

// Register adds a tool to the router.
func (r *Router) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Router) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the registered tool names.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// List returns all tools in the shape the LLM prompt expects.
func (r *Router) List() []map[string]any {
	var result []map[string]any
	for _, t := range r.tools {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Dispatch executes a parsed call and wraps any failure into the
// result envelope, so the caller always gets a well-formed Result.
func (r *Router) Dispatch(ctx context.Context, call toolcall.Call) Result {
	tool := r.tools[call.Tool]
	if tool == nil {
		r.logger.Warn("unknown tool", "tool", call.Tool)
		return Result{"success": false, "tool": call.Tool, "error": "unknown tool: " + call.Tool}
	}

	res, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool failed", "tool", call.Tool, "error", err)
		return Result{"success": false, "tool": call.Tool, "error": err.Error()}
	}

	if res == nil {
		res = Result{}
	}
	res["success"] = true
	res["tool"] = call.Tool
	r.logger.Debug("tool executed", "tool", call.Tool)
	return res
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
