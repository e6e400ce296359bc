package prompt

import "github.com/gobahrain/gobahrain/internal/domain"

// Chat decoding parameters.
const (
	ChatTemperature = 0.7
	ChatMaxTokens   = 700
)

const chatPersona = `You are Go Bahrain, a friendly local guide helping visitors explore Bahrain.
Keep answers short, warm and practical.`

const chatConstraint = `Only recommend places, restaurants and events from the allowed list above, using their names exactly as written.
If nothing in the list fits, say so instead of suggesting somewhere else.`

const chatOutput = `Respond with one JSON object and nothing else:
{"reply": "<your message>", "actions": []}
"actions" may hold at most one of:
{"type": "show_posts", "query": "<keyword>"} to show community posts about a topic,
{"type": "show_reviews", "place": "<exact place name>"} to show reviews of a place.
Leave "actions" empty when neither helps.`

// ChatSystemPrompt builds the assistant instruction. An empty context omits the allowed-places constraint.
func ChatSystemPrompt(context string, prefs domain.Preferences) string {
	allowed := ""
	constraint := ""
	if context != "" {
		allowed = "Allowed places:\n" + context
		constraint = chatConstraint
	}
	return joinSections(chatPersona, allowed, constraint, PreferencesBlock(prefs), chatOutput)
}
