package models

// Role identifies who authored a chat message.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleSelf      Role = "self"
	RoleSystem    Role = "system"
	// RoleUnknown marks items without a known author class. They are logged
	// but never shown to the model.
	RoleUnknown Role = "unknown"
)

// ChatMessage is one extracted entry of the chat thread. It is rebuilt from the
// page every time the thread changes and is never persisted.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
	// ID is the page's own message id (data-mid)
	ID string `json:"id,omitempty"`
}

// Decision is the model's verdict on the unanswered recruiter questions.
type Decision struct {
	CanAnswer bool   `json:"can_answer"`
	Reply     string `json:"reply"`
}

// Label is how the role is written in transcripts shown to the model.
func (r Role) Label() string {
	switch r {
	case RoleRecruiter:
		return "HR"
	case RoleSelf:
		return "Me"
	case RoleSystem:
		return "System"
	}
	return "Unknown"
}
