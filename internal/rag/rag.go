// Package rag decides when to consult the health knowledge base and
// shapes queries against it. The retrieval backend itself is pluggable.
package rag

import (
	"context"
	"strings"
)

// Chunk is one retrieved passage.
type Chunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Result is a retrieval outcome.
type Result struct {
	Found  bool    `json:"found"`
	Chunks []Chunk `json:"chunks,omitempty"`
}

// Retriever searches the knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, threshold float64) (Result, error)
}

var healthKeywords = []string{
	"symptom", "symptoms", "disease", "diseases", "condition", "conditions",
	"medication", "medications", "medicine", "treatment", "treatments",
	"diagnosis", "diagnose", "therapy", "therapeutic", "health", "medical",
	"doctor", "physician", "hospital", "clinic", "patient", "illness",
	"disorder", "syndrome", "infection", "chronic", "acute", "pain",
	"blood pressure", "blood sugar", "glucose", "insulin", "heart",
	"lung", "breathing", "respiratory", "cardiac", "diabetes", "hypertension",
	"arthritis", "copd", "dementia", "depression", "stroke", "parkinson",
	"osteoporosis", "neuropathy", "vision loss", "hearing loss",
}

var healthQuestionPatterns = []string{
	"what is", "what are", "how to", "how do", "how should", "tell me about", "explain",
	"what causes", "what are the", "how can i", "what should i",
	"is it safe", "can i", "should i", "what happens",
}

var controlKeywords = []string{
	"turn on", "turn off", "switch", "control", "device", "light", "ac", "tv",
	"fan", "alarm", "schedule", "add", "delete", "change", "meeting",
	"appointment", "remind", "notification",
}

var lifestyleKeywords = []string{
	"eat", "food", "meal", "breakfast", "lunch", "dinner", "snack",
	"exercise", "workout", "activity", "activities", "physical",
	"sleep", "rest", "routine", "lifestyle", "wellness", "fitness",
	"suggest", "recommend", "what should", "what can", "should i",
}

var healthContextWords = []string{
	"eat", "food", "diet", "exercise", "manage", "prevent", "care",
	"meal", "breakfast", "lunch", "dinner", "snack", "sugar", "honey",
	"sweet", "carbohydrate", "protein", "workout", "activity", "activities",
	"sleep", "rest", "routine", "lifestyle", "wellness", "fitness",
}

var followUpPatterns = []string{
	"yes", "please", "sure", "okay", "that sounds good", "tell me more", "go ahead",
}

var whatShouldQueries = []string{
	"what should i do", "what should i", "what do i need to do", "what do i do", "how should i",
}

var conditionTerms = []string{
	"diabetes", "hypertension", "arthritis", "copd", "dementia",
	"depression", "stroke", "parkinson",
}

// ShouldQuery reports whether a user message warrants a knowledge base
// lookup. lastAssistantMsg is the most recent assistant turn, used to
// catch follow-ups like "yes, please" after a lifestyle suggestion.
// currentActivity is the activity in progress, if any.
func ShouldQuery(message, condition, lastAssistantMsg, currentActivity string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return false
	}
	hasCondition := strings.TrimSpace(condition) != ""

	// "What should I do?" during a lifestyle activity.
	if currentActivity != "" && hasCondition {
		activity := strings.ToLower(currentActivity)
		lifestyleActivity := containsAny(activity,
			"exercise", "workout", "breakfast", "lunch", "dinner", "meal", "sleep", "rest", "activity")
		if lifestyleActivity && containsAny(msg, whatShouldQueries...) {
			return true
		}
	}

	// Device and schedule commands never hit the knowledge base.
	if containsAny(msg, controlKeywords...) {
		return false
	}

	if containsAny(msg, healthKeywords...) {
		return true
	}

	if containsAny(msg, healthQuestionPatterns...) {
		if hasCondition {
			return true
		}
		if containsAny(msg, healthContextWords...) {
			return true
		}
	}

	if hasCondition {
		if containsAny(msg, lifestyleKeywords...) {
			return true
		}
		if containsAny(msg, "what", "how", "why", "when", "where", "which", "should", "can", "could") {
			return true
		}
	}

	// Follow-ups to a lifestyle suggestion.
	if hasCondition && lastAssistantMsg != "" && containsAny(msg, followUpPatterns...) {
		last := strings.ToLower(lastAssistantMsg)
		if containsAny(last, append(lifestyleKeywords, "oatmeal", "nutrition", "diet")...) {
			return true
		}
	}

	return false
}

// EnhanceQuery folds the user's condition into a retrieval query so
// matches favor condition-appropriate content.
func EnhanceQuery(query, condition string) string {
	query = strings.TrimSpace(query)
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return query
	}

	queryLower := strings.ToLower(query)
	conditionLower := strings.ToLower(condition)

	exerciseQuery := containsAny(queryLower,
		"exercise", "activity", "workout", "physical", "fitness", "movement")
	wheelchair := strings.Contains(conditionLower, "wheelchair")

	if exerciseQuery && wheelchair {
		return query + " wheelchair exercises wheelchair users seated exercises"
	}

	var terms []string
	if wheelchair {
		terms = append(terms, "wheelchair")
	}
	if strings.Contains(conditionLower, "mobility") {
		terms = append(terms, "mobility")
	}
	for _, t := range conditionTerms {
		if strings.Contains(conditionLower, t) {
			terms = append(terms, t)
			break
		}
	}

	if len(terms) > 0 {
		return query + " " + strings.Join(terms, " ") + " " + condition
	}
	return query + " " + condition
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
