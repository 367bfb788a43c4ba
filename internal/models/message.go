package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the three accepted roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single turn inside a session. Once appended it is immutable
// except for bulk eviction during summarization.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Metadata keys attached to messages.
const (
	MetaIntent = "intent"
	MetaSource = "source"
	MetaType   = "type"
)

// Intent labels form a closed set; anything a classifier emits outside this
// set is coerced before use.
type Intent string

const (
	IntentGeneral    Intent = "general"
	IntentKnowledge  Intent = "knowledge"
	IntentWeather    Intent = "weather"
	IntentNews       Intent = "news"
	IntentTime       Intent = "time"
	IntentCountry    Intent = "country"
	IntentSearch     Intent = "search"
	IntentGreeting   Intent = "greeting"
	IntentExpand     Intent = "expand"
	IntentConclude   Intent = "conclude"
	IntentSummarize  Intent = "summarize"
	IntentExplain    Intent = "explain"
	IntentShort      Intent = "short"
	IntentCompare    Intent = "compare"
	IntentAnalyze    Intent = "analyze"
	IntentPhilosophy Intent = "philosophy"
)

// ExtendedIntents widen the trailing context window because the user is
// asking for continuation or depth rather than a fresh topic.
var ExtendedIntents = map[Intent]bool{
	IntentExpand:    true,
	IntentConclude:  true,
	IntentSummarize: true,
	IntentExplain:   true,
	IntentKnowledge: true,
	IntentShort:     true,
	IntentCompare:   true,
	IntentAnalyze:   true,
}
