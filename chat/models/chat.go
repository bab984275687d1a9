package models

// ChangeType is the kind of file change the assistant proposes.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// FileChange is one proposed modification to the project tree.
type FileChange struct {
	Type        ChangeType `json:"type"`
	FilePath    string     `json:"file_path"`
	Content     string     `json:"content"`
	Description string     `json:"description"`

	// OriginalContent is filled from disk before the change is shown.
	OriginalContent string `json:"-"`
}

// ProposedChanges is the payload of a PROPOSE_CHANGES reply.
type ProposedChanges struct {
	Changes     []FileChange `json:"changes"`
	Explanation string       `json:"explanation"`
}

// Actions the assistant can take, one per reply.
const (
	ActionRequestFunctionDetails = "request_function_details"
	ActionProposeChanges         = "propose_changes"
	ActionClarificationNeeded    = "clarification_needed"
	ActionComplete               = "complete"
)

// ParsedResponse is the classified form of an assistant reply.
type ParsedResponse struct {
	Action      string
	FunctionIDs []string
	Proposed    *ProposedChanges
	Message     string
}

// Message is one turn of the conversation history.
type Message struct {
	Role    string
	Content string
}

// ConversationContext accumulates state across one user request.
type ConversationContext struct {
	UserRequest        string
	RequestedFunctions []string
	FunctionDetails    map[string]string
	History            []Message
}

// NewConversationContext starts a fresh context for one request.
func NewConversationContext(userRequest string) *ConversationContext {
	return &ConversationContext{
		UserRequest:     userRequest,
		FunctionDetails: make(map[string]string),
	}
}
