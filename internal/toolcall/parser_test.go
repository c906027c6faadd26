package toolcall

import "testing"

func newTestParser() *Parser {
	return NewParser("chat_message", "e_device_control", "schedule_modifier", "rag_query")
}

func TestParseFencedArray(t *testing.T) {
	p := newTestParser()

	raw := "Sure, turning it on.\n```json\n[{\"tool\": \"e_device_control\", \"arguments\": {\"room\": \"Bedroom\", \"device\": \"Light\", \"action\": \"on\"}}]\n```"
	calls := p.Parse(raw)
	if len(calls) != 1 {
		t.Fatalf("Parse = %+v, want 1 call", calls)
	}
	if calls[0].Tool != "e_device_control" {
		t.Errorf("tool = %q", calls[0].Tool)
	}
	if calls[0].Arguments["room"] != "Bedroom" {
		t.Errorf("arguments = %+v", calls[0].Arguments)
	}
}

func TestParseBareArray(t *testing.T) {
	p := newTestParser()

	raw := `[{"tool": "chat_message", "arguments": {"message": "Good morning!"}}]`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "chat_message" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestParseBareObject(t *testing.T) {
	p := newTestParser()

	raw := `{"tool": "rag_query", "arguments": {"query": "exercises for wheelchair users"}}`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "rag_query" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestParseStripsReasoning(t *testing.T) {
	p := newTestParser()

	raw := "<think>\nThe user wants the light on, and {\"tool\": \"fake\"} ideas...\n</think>\n" +
		`{"tool": "e_device_control", "arguments": {"room": "Bedroom", "device": "Light", "action": "on"}}`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "e_device_control" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestParseMultipleCalls(t *testing.T) {
	p := newTestParser()

	raw := `[
		{"tool": "e_device_control", "arguments": {"room": "Bedroom", "device": "Light", "action": "off"}},
		{"tool": "chat_message", "arguments": {"message": "Light is off, good night!"}}
	]`
	calls := p.Parse(raw)
	if len(calls) != 2 {
		t.Fatalf("Parse = %+v, want 2 calls", calls)
	}
	if calls[0].Tool != "e_device_control" || calls[1].Tool != "chat_message" {
		t.Errorf("tools = %q, %q", calls[0].Tool, calls[1].Tool)
	}
}

func TestParseRepairsTrailingComma(t *testing.T) {
	p := newTestParser()

	raw := `[{"tool": "chat_message", "arguments": {"message": "hi",},}]`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Arguments["message"] != "hi" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestParseRepairsUnquotedKeys(t *testing.T) {
	p := newTestParser()

	raw := `{tool: "schedule_modifier", arguments: {operation: "add", "time": "14:00", "activity": "Nap"}}`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "schedule_modifier" {
		t.Fatalf("Parse = %+v", calls)
	}
	if calls[0].Arguments["operation"] != "add" {
		t.Errorf("arguments = %+v", calls[0].Arguments)
	}
}

func TestParseRepairsUnbalancedBrackets(t *testing.T) {
	p := newTestParser()

	raw := `{"tool": "chat_message", "arguments": {"message": "truncated output"`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Arguments["message"] != "truncated output" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestParseShorthandPair(t *testing.T) {
	p := newTestParser()

	raw := `["e_device_control", {"room": "Kitchen", "device": "Light", "action": "on"}]`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "e_device_control" {
		t.Fatalf("Parse = %+v", calls)
	}
	if calls[0].Arguments["room"] != "Kitchen" {
		t.Errorf("arguments = %+v", calls[0].Arguments)
	}

	// Unknown names are rejected, not passed through.
	if calls := p.Parse(`["delete_everything", {"target": "all"}]`); calls != nil {
		t.Errorf("unknown shorthand parsed: %+v", calls)
	}
}

func TestParseStructuredText(t *testing.T) {
	p := newTestParser()

	raw := `I'll use tool: e_device_control with arguments: {"room": "Bedroom", "device": "AC", "action": "on"}`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "e_device_control" {
		t.Fatalf("Parse = %+v", calls)
	}
	if calls[0].Arguments["device"] != "AC" {
		t.Errorf("arguments = %+v", calls[0].Arguments)
	}
}

func TestParsePlainText(t *testing.T) {
	p := newTestParser()

	for _, raw := range []string{
		"Good morning! How did you sleep?",
		"",
		"<think>should I call a tool? no</think>No tools needed here.",
	} {
		if calls := p.Parse(raw); calls != nil {
			t.Errorf("Parse(%q) = %+v, want nil", raw, calls)
		}
	}
}

func TestParseUnknownToolSkipped(t *testing.T) {
	p := newTestParser()

	raw := `[
		{"tool": "self_destruct", "arguments": {}},
		{"tool": "chat_message", "arguments": {"message": "hello"}}
	]`
	calls := p.Parse(raw)
	if len(calls) != 1 || calls[0].Tool != "chat_message" {
		t.Fatalf("Parse = %+v", calls)
	}
}

func TestLooksLikeToolCall(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		raw  string
		want bool
	}{
		{`{"tool": "chat_message", "arguments" BROKEN`, true},
		{`[{"tool": garbage`, true},
		{"Good morning!", false},
		{"the right tool for the job", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := p.LooksLikeToolCall(tt.raw); got != tt.want {
			t.Errorf("LooksLikeToolCall(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1,}`, `{"a": 1}`},
		{`[1, 2,]`, `[1, 2]`},
		{`{a: 1}`, `{"a": 1}`},
		{`{"a": {"b": 1`, `{"a": {"b": 1}}`},
		{`{"a": 1}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		if got := Repair(tt.in); got != tt.want {
			t.Errorf("Repair(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
