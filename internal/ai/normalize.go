package ai

import (
	"encoding/json"
	"net/http"
	"strings"
)

const finishReasonLength = "length"

// Normalize turns a raw vendor response into a Result, decided once here
// and never re-inspected by callers. Retries are already exhausted by the
// time a response reaches this layer.
func Normalize(resp ChatResponse) (Result, error) {
	if resp.Error != nil {
		return Result{}, normalizeVendorError(resp.Error)
	}

	if len(resp.Choices) == 0 {
		return Result{}, &Failure{Kind: KindUnknown, Message: "response contained no choices"}
	}

	content := resp.Choices[0].Message.Content
	finishReason := resp.Choices[0].FinishReason

	var parsed any

	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return Result{Data: parsed, Raw: content}, nil
	}

	// Truncated output is worth a repair attempt; partial data still has
	// user value for itinerary planning.
	if finishReason == finishReasonLength {
		repaired := repairTruncatedJSON(content)

		if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
			return Result{Data: parsed, Raw: content, Incomplete: true}, nil
		}

		return Result{Raw: content, Incomplete: true}, nil
	}

	// plain text answer (Q&A and recommendations usually land here)
	return Result{Raw: content}, nil
}

func normalizeVendorError(ve *VendorError) *Failure {
	code := ve.Code

	if code == "" {
		code = ve.Type
	}

	status := ve.Status

	if status == 0 {
		status = http.StatusInternalServerError
	}

	switch code {
	case "invalid_request_error":
		return &Failure{
			Kind:    KindInvalidRequest,
			Status:  status,
			Message: "invalid request: " + ve.Message + ". Check the request parameters.",
		}
	case "authentication_error":
		return &Failure{
			Kind:    KindAuth,
			Status:  status,
			Message: "authentication failed: " + ve.Message + ". Check that the API key is correct.",
		}
	case "rate_limit_error":
		return &Failure{
			Kind:    KindRateLimit,
			Status:  status,
			Message: "rate limit exceeded: " + ve.Message + ". Try again shortly.",
		}
	default:
		return &Failure{Kind: KindUnknown, Status: status, Message: ve.Message}
	}
}

// repairTruncatedJSON closes whatever a token-limit cut left open: an
// unterminated string first, then the open braces/brackets in reverse
// nesting order. Heuristic — balanced output is not guaranteed to be the
// JSON the model meant to finish.
func repairTruncatedJSON(s string) string {
	var stack []byte

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder

	b.WriteString(s)

	if inString {
		b.WriteByte('"')
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}

	return b.String()
}
