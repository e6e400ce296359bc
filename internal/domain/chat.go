package domain

import (
	"fmt"
	"strings"
)

// Role is the author of a chat turn.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalizes a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// ActionType is the closed set of follow-up actions the assistant may request.
type ActionType string

// Assistant actions.
const (
	ActionShowPosts   ActionType = "show_posts"
	ActionShowReviews ActionType = "show_reviews"
)

// Action is a structured follow-up attached to an assistant reply.
type Action struct {
	Type  ActionType `json:"type"`
	Query string     `json:"query,omitempty"`
	Place string     `json:"place,omitempty"`
}

// Valid reports whether the action carries the identifying field its type requires.
func (a Action) Valid() bool {
	switch a.Type {
	case ActionShowPosts:
		return strings.TrimSpace(a.Query) != ""
	case ActionShowReviews:
		return strings.TrimSpace(a.Place) != ""
	default:
		return false
	}
}

// ChatTurn is one message of a conversation.
type ChatTurn struct {
	Role    Role     `json:"role"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// ChatReply is the parsed assistant answer.
type ChatReply struct {
	Reply   string   `json:"reply"`
	Actions []Action `json:"actions"`
}
