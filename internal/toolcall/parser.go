// Package toolcall extracts structured tool invocations from raw LLM
// output. Models wrap calls in reasoning tags, markdown fences, or
// slightly broken JSON, so parsing runs a sequence of increasingly
// lenient strategies and stops at the first that yields calls.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Call is a single tool invocation extracted from model output.
type Call struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Parser extracts tool calls. It knows the valid tool names so it can
// reject near-miss extractions from lenient strategies.
type Parser struct {
	known map[string]struct{}
}

// NewParser builds a parser accepting the given tool names.
func NewParser(names ...string) *Parser {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	return &Parser{known: known}
}

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	bareArray     = regexp.MustCompile(`(?s)\[.*?\]`)
	bareObject    = regexp.MustCompile(`(?s)\{.*\}`)
	toolNameRe    = regexp.MustCompile(`tool["']?\s*[:=]\s*["']?(\w+)`)
	toolArgsRe    = regexp.MustCompile(`(?s)arguments["']?\s*[:=]\s*(\{.*?\})`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,])\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
)

// Parse extracts tool calls from raw model output. It returns nil when
// no strategy finds any.
func (p *Parser) Parse(raw string) []Call {
	text := stripReasoning(raw)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	strategies := []func(string) []Call{
		p.parseFenced,
		p.parseBareArray,
		p.parseBareObject,
		p.parseRepaired,
		p.parseStructuredText,
	}
	for _, strategy := range strategies {
		if calls := strategy(text); len(calls) > 0 {
			return calls
		}
	}
	return nil
}

// LooksLikeToolCall reports whether raw output appears to contain a
// tool call, even one too mangled to parse. Used to apologize instead
// of echoing broken JSON at the user.
func (p *Parser) LooksLikeToolCall(raw string) bool {
	text := strings.TrimSpace(stripReasoning(raw))
	if text == "" {
		return false
	}
	if strings.Contains(text, `"tool"`) && strings.Contains(text, `"arguments"`) && strings.Contains(text, "{") {
		return true
	}
	if (strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{")) && strings.Contains(text, "tool") {
		return true
	}
	return false
}

// stripReasoning drops everything up to and including the last
// </think> or </reasoning> tag.
func stripReasoning(s string) string {
	for _, tag := range []string{"</think>", "</reasoning>"} {
		if i := strings.LastIndex(s, tag); i >= 0 {
			s = s[i+len(tag):]
		}
	}
	return s
}

func (p *Parser) parseFenced(text string) []Call {
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if calls := p.decode(body); len(calls) > 0 {
			return calls
		}
	}
	return nil
}

// parseBareArray prefers the last matching array: models often restate
// earlier context before emitting the actual call.
func (p *Parser) parseBareArray(text string) []Call {
	matches := bareArray.FindAllString(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if !p.mentionsTool(matches[i]) {
			continue
		}
		if calls := p.decode(matches[i]); len(calls) > 0 {
			return calls
		}
	}
	return nil
}

func (p *Parser) parseBareObject(text string) []Call {
	m := bareObject.FindString(text)
	if m == "" || !p.mentionsTool(m) {
		return nil
	}
	return p.decode(m)
}

func (p *Parser) parseRepaired(text string) []Call {
	for _, m := range bareArray.FindAllString(text, -1) {
		if !p.mentionsTool(m) {
			continue
		}
		if calls := p.decode(Repair(m)); len(calls) > 0 {
			return calls
		}
	}
	if m := bareObject.FindString(text); m != "" && p.mentionsTool(m) {
		if calls := p.decode(Repair(m)); len(calls) > 0 {
			return calls
		}
	}

	// Truncated output has no closing bracket for the regexes to find.
	// Take everything from the first bracket and close what is open.
	if i := strings.IndexAny(text, "[{"); i >= 0 && p.mentionsTool(text[i:]) {
		return p.decode(Repair(text[i:]))
	}
	return nil
}

// mentionsTool gates the lenient strategies so arbitrary JSON in model
// prose is not mistaken for a call.
func (p *Parser) mentionsTool(s string) bool {
	if strings.Contains(s, "tool") {
		return true
	}
	for name := range p.known {
		if strings.Contains(s, name) {
			return true
		}
	}
	return false
}

// parseStructuredText is the last resort: pull tool/arguments pairs out
// of non-JSON prose like `tool: e_device_control arguments: {...}`.
func (p *Parser) parseStructuredText(text string) []Call {
	names := toolNameRe.FindAllStringSubmatch(text, -1)
	args := toolArgsRe.FindAllStringSubmatch(text, -1)
	if len(names) == 0 {
		return nil
	}

	var calls []Call
	for i, nm := range names {
		name := nm[1]
		if !p.isKnown(name) || i >= len(args) {
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(Repair(args[i][1])), &parsed); err != nil {
			continue
		}
		calls = append(calls, Call{Tool: name, Arguments: parsed})
	}
	return calls
}

// decode parses a JSON fragment into calls, accepting a single object,
// an array of objects, or the ["name", {...}] shorthand.
func (p *Parser) decode(body string) []Call {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	if strings.HasPrefix(body, "[") {
		var objs []map[string]any
		if err := json.Unmarshal([]byte(body), &objs); err == nil {
			return p.fromObjects(objs)
		}

		// ["tool_name", {args}] shorthand.
		var pair []json.RawMessage
		if err := json.Unmarshal([]byte(body), &pair); err == nil && len(pair) == 2 {
			var name string
			var args map[string]any
			if json.Unmarshal(pair[0], &name) == nil &&
				json.Unmarshal(pair[1], &args) == nil &&
				p.isKnown(name) {
				return []Call{{Tool: name, Arguments: args}}
			}
		}
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil
	}
	return p.fromObjects([]map[string]any{obj})
}

func (p *Parser) fromObjects(objs []map[string]any) []Call {
	var calls []Call
	for _, obj := range objs {
		name, _ := obj["tool"].(string)
		if name == "" || !p.isKnown(name) {
			continue
		}
		args, _ := obj["arguments"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, Call{Tool: name, Arguments: args})
	}
	return calls
}

func (p *Parser) isKnown(name string) bool {
	if len(p.known) == 0 {
		return true
	}
	_, ok := p.known[name]
	return ok
}

// Repair fixes the JSON damage small models most often produce:
// trailing commas, unquoted keys, and unbalanced brackets.
func Repair(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2":`)

	if n := strings.Count(s, "{") - strings.Count(s, "}"); n > 0 {
		s += strings.Repeat("}", n)
	}
	if n := strings.Count(s, "[") - strings.Count(s, "]"); n > 0 {
		s += strings.Repeat("]", n)
	}
	return s
}
