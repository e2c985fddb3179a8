package types

// Sender tags which party produced an EncryptedMessageRecord.
type Sender string

const (
	SenderA Sender = PartyA
	SenderB Sender = PartyB
)

// Role is the display role of a ChatMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Ciphertext is what encryption hands back: opaque bytes and their type tag.
type Ciphertext struct {
	Bytes []byte
	Type  MessageType
}

// EncryptedMessageRecord is one persisted message. Immutable once appended.
type EncryptedMessageRecord struct {
	ID          string      `json:"id"`
	Sender      Sender      `json:"sender"`
	Ciphertext  []byte      `json:"ciphertext"`
	MessageType MessageType `json:"messageType"`
	Timestamp   int64       `json:"timestamp"`
}

// ChatMessage is a decrypted message for display. Never persisted.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ChatTurn is one history entry handed to the inference service.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
