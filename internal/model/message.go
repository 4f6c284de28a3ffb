package model

// MessageType tells whether the current user sent or received a message.
type MessageType string

const (
	// MessageSent is a message authored by the current user.
	MessageSent MessageType = "sent"
	// MessageReceived is a message addressed to the current user.
	MessageReceived MessageType = "received"
)

// Message is one entry in the inbox.
type Message struct {
	ID          int64       `json:"id"`
	Sender      string      `json:"sender"`
	Recipient   string      `json:"recipient,omitempty"`
	Message     string      `json:"message"`
	Timestamp   Timestamp   `json:"timestamp"`
	IsRead      bool        `json:"is_read"`
	IsBroadcast bool        `json:"is_broadcast"`
	MessageType MessageType `json:"message_type"`
}

// IsUnread reports whether the message should carry the unread marker.
// Only received messages can be unread.
func (m Message) IsUnread() bool {
	return !m.IsRead && m.MessageType == MessageReceived
}

// MessageList is the reply of the message listing endpoint.
type MessageList struct {
	Envelope
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unread_count"`
}

// SendMessageRequest posts a new message. Recipient is nil for broadcasts.
type SendMessageRequest struct {
	Message     string  `json:"message"`
	Recipient   *string `json:"recipient"`
	IsBroadcast bool    `json:"is_broadcast"`
}

// SendMessageResponse is the reply of the send endpoint.
type SendMessageResponse struct {
	Envelope
	MessageID int64 `json:"message_id,omitempty"`
}

// MarkReadRequest marks one message as read.
type MarkReadRequest struct {
	MessageID int64 `json:"message_id"`
}
