package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// MaxActions bounds the actions attached to one reply.
const MaxActions = 1

type rawChatReply struct {
	Reply   *string         `json:"reply"`
	Actions json.RawMessage `json:"actions"`
}

type rawAction struct {
	Type  string `json:"type"`
	Query string `json:"query"`
	Place string `json:"place"`
}

// ParseChatReply reads {"reply", "actions"} from the whole text, a fenced block or an object
// embedded in prose. It never fails: unparseable text becomes the reply with no actions.
func ParseChatReply(raw string) domain.ChatReply {
	text := strings.TrimSpace(raw)

	attempts := []string{text}
	if unfenced, ok := stripFence(text); ok {
		attempts = append(attempts, unfenced)
	}
	attempts = append(attempts, balanced(text, '{', '}')...)

	for _, attempt := range attempts {
		var parsed rawChatReply
		if err := json.Unmarshal([]byte(attempt), &parsed); err != nil {
			continue
		}
		if parsed.Reply == nil && len(parsed.Actions) == 0 {
			continue
		}
		reply := domain.ChatReply{Actions: parseActions(parsed.Actions)}
		if parsed.Reply != nil {
			reply.Reply = strings.TrimSpace(*parsed.Reply)
		}
		if reply.Reply == "" && len(reply.Actions) == 0 {
			reply.Reply = text
		}
		return reply
	}
	return domain.ChatReply{Reply: text, Actions: []domain.Action{}}
}

// parseActions keeps valid actions in order, up to MaxActions. A single object is accepted as a list of one.
func parseActions(raw json.RawMessage) []domain.Action {
	out := []domain.Action{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}
	if raw[0] == '{' {
		raw = append(append([]byte{'['}, raw...), ']')
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		var ra rawAction
		if err := json.Unmarshal(item, &ra); err != nil {
			continue
		}
		a := domain.Action{
			Type:  domain.ActionType(strings.ToLower(strings.TrimSpace(ra.Type))),
			Query: strings.TrimSpace(ra.Query),
			Place: strings.TrimSpace(ra.Place),
		}
		if !a.Valid() {
			continue
		}
		if a.Type == domain.ActionShowPosts {
			a.Place = ""
		} else {
			a.Query = ""
		}
		out = append(out, a)
		if len(out) == MaxActions {
			break
		}
	}
	return out
}
