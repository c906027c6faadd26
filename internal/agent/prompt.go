package agent

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hearthd/hearth/internal/llm"
	"github.com/hearthd/hearth/internal/notify"
	"github.com/hearthd/hearth/internal/rag"
	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/store"
)

const systemPrompt = `Smart environment assistant for elderly and disabled users. Control devices, manage schedules, answer questions.

OUTPUT FORMAT (CRITICAL):
- ALWAYS respond with a valid JSON array: [{"tool": "...", "arguments": {...}}]
- NEVER output plain text explanations alongside raw JSON tool calls.
- For ANY device control action you MUST call e_device_control. NEVER use chat_message to claim you turned something on or off without actually calling the tool.

TOOLS:
1. chat_message(message) - send messages, answer questions. Do NOT claim device actions.
2. e_device_control(room, device, action) - turn a device ON or OFF. Only control devices that exist in the room.
3. schedule_modifier(operation, time, activity, old_time, old_activity) - modify today's or a future day's schedule.
   - operation: "add", "delete" or "change" (REQUIRED)
   - time: HH:MM, 24-hour. Convert other formats ("14.00" becomes "14:00").
   - old_time is required for change; old_activity disambiguates when several items share a time.
   - Provide ONLY time and activity. The system derives actions, locations and dates itself.
   - Dates are extracted from the user message ("tomorrow", "next Monday", "March 15th"). No date means today.
4. rag_query(query) - look up health knowledge when the user asks a health or lifestyle question.

RULES:
1. Informational questions (what/which/when) use chat_message with facts from CURRENT SYSTEM STATE.
2. If the room is not specified, use the room from the user's current location.
3. A request naming both a time and an activity is a schedule request, not an immediate device action.
4. Ask for clarification only when information is genuinely missing; otherwise act immediately.
5. When the user answers a notification with "yes", turn off every device that notification listed. When they answer "no" or "leave it on", acknowledge with chat_message.
6. Before lifestyle or health recommendations, check USER INFORMATION for conditions and tailor the answer to every aspect of the condition.`

// promptContext carries everything the system prompt is assembled from.
type promptContext struct {
	snapshot state.Snapshot
	summary  store.Summary
	ragRes   *rag.Result
	recent   *notify.Notification
	current  *ActivityContext
	history  []store.ChatMessage
}

// buildMessages assembles the LLM conversation: one system message with
// state, retrieval and notification context, a short history window, and
// the user's message last.
func buildMessages(pc promptContext, userMessage string) []llm.Message {
	var sys strings.Builder
	sys.WriteString(systemPrompt)

	if pc.ragRes != nil {
		sys.WriteString("\n\n")
		sys.WriteString(formatRAGContext(pc.ragRes))
	}
	if pc.recent != nil {
		sys.WriteString("\n\n")
		sys.WriteString(formatNotificationContext(pc.recent))
	}
	if pc.summary.Text != "" {
		sys.WriteString("\n\nPREVIOUS CONVERSATION SUMMARY:\n")
		sys.WriteString(pc.summary.Text)
		if len(pc.summary.KeyEvents) > 0 {
			sys.WriteString("\n\nRecent Key Events:\n")
			events := pc.summary.KeyEvents
			if len(events) > 5 {
				events = events[len(events)-5:]
			}
			for _, e := range events {
				fmt.Fprintf(&sys, "- %s: %s\n", e.Type, truncate(e.Description, 80))
			}
		}
	}

	sys.WriteString("\n\n")
	sys.WriteString(formatTimestamp(pc.snapshot))
	if pc.current != nil {
		fmt.Fprintf(&sys, "\nCURRENT ACTIVITY: %s (started %s", pc.current.Activity, pc.current.Time)
		if pc.current.EndTime != "" {
			fmt.Fprintf(&sys, ", until %s", pc.current.EndTime)
		}
		sys.WriteString(")")
	}
	sys.WriteString("\n\nCURRENT SYSTEM STATE:\n")
	sys.WriteString(pc.snapshot.Describe())

	msgs := []llm.Message{{Role: "system", Content: sys.String()}}
	for _, m := range pc.history {
		role := m.Role
		if role != store.RoleUser {
			// Notifications and preference confirmations were shown to
			// the user as assistant turns.
			role = store.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: userMessage})
	return msgs
}

func formatTimestamp(s state.Snapshot) string {
	tomorrow := ""
	if d, err := time.Parse(schedule.DateLayout, s.Date); err == nil {
		tomorrow = d.AddDate(0, 0, 1).Format(schedule.DateLayout)
	}
	return fmt.Sprintf("CURRENT TIME: %s %s\nCURRENT DATE: %s\nTOMORROW'S DATE: %s",
		s.Date, s.Time, s.Date, tomorrow)
}

func formatRAGContext(res *rag.Result) string {
	if !res.Found || len(res.Chunks) == 0 {
		return `HEALTH KNOWLEDGE CONTEXT (from RAG system):
No specific health knowledge was found for this query. Rely on your general knowledge,
but be cautious about providing health advice. Always recommend consulting healthcare professionals for medical concerns.`
	}

	var b strings.Builder
	b.WriteString("HEALTH KNOWLEDGE CONTEXT (from RAG system):\n")
	b.WriteString("The following health knowledge was retrieved for your reference. Use it to give accurate, safe information tailored to the user's condition.\n")

	chunks := res.Chunks
	if len(chunks) > 3 {
		chunks = chunks[:3]
	}
	for i, c := range chunks {
		text := c.Text
		if len(text) > 500 {
			text = truncate(text, 500) + "..."
		}
		fmt.Fprintf(&b, "\n--- Knowledge Chunk %d (Relevance Score: %.3f) ---\n%s\n", i+1, c.Score, text)
	}
	return b.String()
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

func formatNotificationContext(n *notify.Notification) string {
	names := make([]string, len(n.Devices))
	for i, d := range n.Devices {
		names[i] = d.Room + " " + d.Device
	}

	var b strings.Builder
	b.WriteString("IMPORTANT CONTEXT - USER RESPONDING TO NOTIFICATION (HIGHEST PRIORITY):\n")
	fmt.Fprintf(&b, "The user just received a notification about: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Notification message was: %q\n", n.Message)
	b.WriteString(`- If the user says "yes", "yeah", "sure", "okay" or "turn them off", IMMEDIATELY call e_device_control with action OFF for EACH device listed above.
- The user may control these devices even though they are in a different room.
- If the user says "no", "keep it on" or "leave it on", acknowledge with chat_message; the preference is recorded automatically.
- Do not ask for clarification and do not repeat actions from older chat history.`)
	return b.String()
}
