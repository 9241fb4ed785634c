package firestream

// TypingState signals that the sender started or stopped typing. These
// sendables are transient and are always deleted after observation.
type TypingState struct {
	*Sendable
}

func NewTypingState(typingStateType TypingStateType) *TypingState {
	typingState := &TypingState{newSendable(SendableTypeTypingState, nil)}
	typingState.setBodyType(string(typingStateType))
	return typingState
}

func (self *TypingState) TypingStateType() TypingStateType {
	return TypingStateType(self.BodyType())
}

func TypingStateFromSendable(sendable *Sendable) *TypingState {
	return &TypingState{sendable}
}
