package tools

import (
	"context"
	"strings"

	"github.com/hearthd/hearth/internal/rag"
)

func (r *Router) handleChatMessage(ctx context.Context, args map[string]any) (Result, error) {
	message := stringArg(args, "message")
	if message == "" {
		return nil, &ValidationError{Message: "Missing required argument: 'message'"}
	}

	// A reminder the user dismissed must not come back, however the
	// model phrases it.
	suppressed, err := r.state.DoNotRemindList()
	if err != nil {
		return nil, err
	}
	messageLower := strings.ToLower(strings.TrimSpace(message))
	for _, item := range suppressed {
		itemLower := strings.ToLower(item)
		if messageLower == itemLower ||
			strings.Contains(messageLower, itemLower) ||
			strings.Contains(itemLower, messageLower) {
			r.logger.Info("reminder prevented", "item", item)
			return nil, &SuppressedError{Item: item}
		}
	}

	return Result{"message": message}, nil
}

func (r *Router) handleRAGQuery(ctx context.Context, args map[string]any) (Result, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, &ValidationError{Message: "Missing required argument: 'query'"}
	}

	if r.retriever == nil {
		return nil, &UnavailableError{Subsystem: "RAG system"}
	}

	info, err := r.state.UserInfo()
	if err != nil {
		return nil, err
	}

	enhanced := rag.EnhanceQuery(query, info.Condition)
	res, err := r.retriever.Retrieve(ctx, enhanced, r.ragTopK, r.ragThreshold)
	if err != nil {
		return nil, err
	}

	out := Result{
		"query": enhanced,
		"found": res.Found,
	}
	if res.Found {
		out["chunks"] = res.Chunks
	}
	return out, nil
}
