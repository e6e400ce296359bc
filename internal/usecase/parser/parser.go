// Package parser extracts structured output from raw generation text.
package parser

import (
	"fmt"
	"strings"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Shape selects the expected structure of a generation.
type Shape int

// Expected shapes.
const (
	ShapePlainText Shape = iota
	ShapeDayPlan
	ShapeChatReply
)

func (s Shape) String() string {
	switch s {
	case ShapeDayPlan:
		return "day_plan"
	case ShapeChatReply:
		return "chat_reply"
	default:
		return "plain_text"
	}
}

// Result holds the parsed output; only the field matching the requested shape is set.
type Result struct {
	Shape Shape
	Plan  []domain.PlanItem
	Chat  domain.ChatReply
	Text  string
}

// Parse dispatches raw text to the parser for shape. Only ShapeDayPlan can fail.
func Parse(raw string, shape Shape) (Result, error) {
	switch shape {
	case ShapeDayPlan:
		plan, err := ParseDayPlan(raw)
		if err != nil {
			return Result{Shape: shape}, err
		}
		return Result{Shape: shape, Plan: plan}, nil
	case ShapeChatReply:
		return Result{Shape: shape, Chat: ParseChatReply(raw)}, nil
	case ShapePlainText:
		return Result{Shape: shape, Text: strings.TrimSpace(raw)}, nil
	default:
		return Result{}, fmt.Errorf("unknown shape %d: %w", shape, domain.ErrInvalidRequest)
	}
}

// balanced returns every substring of s that starts at an open rune and ends at its matching close,
// skipping brackets inside JSON strings. Substrings are returned in order of their start.
func balanced(s string, open, closing byte) []string {
	var out []string
	for start := strings.IndexByte(s, open); start >= 0; {
		if end := matchClose(s, start, open, closing); end > start {
			out = append(out, s[start:end+1])
		}
		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

func matchClose(s string, start int, open, closing byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
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
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		start := strings.Index(s, "```")
		if start < 0 {
			return s, false
		}
		s = s[start:]
	}
	body := strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return s, false
	}
	return strings.TrimSpace(body[:end]), true
}
