package ai

import (
	"fmt"
	"strings"
)

// Intent selects the system prompt and sampling parameters.
type Intent string

const (
	IntentItinerary Intent = "itinerary"
	IntentQuestion  Intent = "question"
	IntentRecommend Intent = "recommend"
)

const (
	// user content is clipped to bound payload size
	maxPromptChars = 10000
	// generous enough that itineraries rarely truncate
	answerTokenBudget = 2000
)

const (
	itinerarySystemPrompt = "You are a professional travel planner. Respond strictly in JSON with the full trip itinerary and a budget breakdown."
	questionSystemPrompt  = "You are a professional travel planning assistant. Give detailed, practical travel advice tailored to the user's needs."
	recommendSystemPrompt = "You are a travel destination expert. Recommend destinations that match the user's stated preferences and constraints."
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the OpenAI-compatible chat completion payload.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

// Preferences is the structured input for destination recommendation.
type Preferences struct {
	TravelType []string `json:"travelType"`
	Budget     string   `json:"budget"`
	Duration   string   `json:"duration"`
	Season     string   `json:"season"`
	Interests  []string `json:"interests"`
	Other      string   `json:"other"`
}

func (p Preferences) IsZero() bool {
	return len(p.TravelType) == 0 && p.Budget == "" && p.Duration == "" &&
		p.Season == "" && len(p.Interests) == 0 && p.Other == ""
}

func NewItineraryRequest(model, content string) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: itinerarySystemPrompt},
			{Role: "user", Content: clipPrompt(content)},
		},
		Temperature:    0.5,
		MaxTokens:      answerTokenBudget,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
}

func NewQuestionRequest(model, query, context string) ChatRequest {
	prompt := "Answer the following travel question:\n" + query

	if context != "" {
		prompt = context + "\n\nFollow-up question: " + query
	}

	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: questionSystemPrompt},
			{Role: "user", Content: clipPrompt(prompt)},
		},
		Temperature: 0.7,
		MaxTokens:   answerTokenBudget,
	}
}

func NewRecommendationRequest(model string, prefs Preferences) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: recommendSystemPrompt},
			{Role: "user", Content: clipPrompt(prefs.prompt())},
		},
		Temperature: 0.8,
		MaxTokens:   answerTokenBudget,
	}
}

func (p Preferences) prompt() string {
	return fmt.Sprintf(
		"Based on the travel preferences below, recommend 3-5 suitable destinations with a short reason for each:\n"+
			"- Travel type: %s\n"+
			"- Budget: %s\n"+
			"- Duration: %s\n"+
			"- Season: %s\n"+
			"- Interests: %s\n"+
			"- Other preferences: %s",
		orAny(strings.Join(p.TravelType, ", ")),
		orAny(p.Budget),
		orAny(p.Duration),
		orAny(p.Season),
		orAny(strings.Join(p.Interests, ", ")),
		orNone(p.Other),
	)
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func clipPrompt(s string) string {
	s = strings.TrimSpace(s)

	if len(s) <= maxPromptChars {
		return s
	}

	// clip on a rune boundary
	runes := []rune(s)
	if len(runes) > maxPromptChars {
		runes = runes[:maxPromptChars]
	}
	return string(runes)
}
