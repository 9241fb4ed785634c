package firestream

// TextKey is the body field carrying a text message's content.
const TextKey = "text"

// Message wraps the shared cached sendable instance; a mutation applied to
// the cache is visible through every typed view.
type Message struct {
	*Sendable
}

func NewMessage(body map[string]any) *Message {
	return &Message{newSendable(SendableTypeMessage, body)}
}

func NewTextMessage(text string) *Message {
	return NewMessage(map[string]any{
		TextKey: text,
	})
}

func (self *Message) Text() string {
	if text, ok := self.Body[TextKey].(string); ok {
		return text
	}
	return ""
}

func MessageFromSendable(sendable *Sendable) *Message {
	return &Message{sendable}
}
