package conversation

import "time"

// Role tags a buffer entry with who produced it.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single role-tagged message in a conversation buffer. Entries are never
// modified after they are appended.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserEntry builds a user entry stamped with the given time.
func UserEntry(content string, at time.Time) Entry {
	return Entry{Role: RoleUser, Content: content, Timestamp: at}
}

// AssistantEntry builds an assistant entry stamped with the given time.
func AssistantEntry(content string, at time.Time) Entry {
	return Entry{Role: RoleAssistant, Content: content, Timestamp: at}
}

// Kind classifies an inbound message by its payload.
type Kind string

const (
	KindText  Kind = "text"
	KindVoice Kind = "voice"
	KindImage Kind = "image"
	KindMedia Kind = "media"
)

// CanonicalMessage is the platform-independent form of an inbound user message.
// It lives only for the duration of one handler invocation.
type CanonicalMessage struct {
	SenderID   string
	To         string
	Text       string
	MediaRef   string
	MediaType  string
	Kind       Kind
	ReceivedAt time.Time
}

// HasMedia reports whether the message carries a media reference.
func (m CanonicalMessage) HasMedia() bool {
	return m.MediaRef != ""
}
