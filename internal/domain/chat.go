package domain

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry of a client-side chat transcript.
type ChatMessage struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Exchange is one completed request/reply round trip through the chat endpoint.
type Exchange struct {
	ID                  string
	Message             string
	Reply               string
	IncludedCompany     bool
	Attempts            int
	UsedMaxOutputTokens int
	CreatedAt           string
	TTL                 int64
}
