package firestream

// InvitationChatIdKey is the body field carrying the chat the recipient is
// invited to.
const InvitationChatIdKey = "id"

type Invitation struct {
	*Sendable
}

func NewInvitation(invitationType InvitationType, chatId string) *Invitation {
	invitation := &Invitation{newSendable(SendableTypeInvitation, nil)}
	invitation.setBodyType(string(invitationType))
	invitation.Body[InvitationChatIdKey] = chatId
	return invitation
}

func (self *Invitation) InvitationType() InvitationType {
	return InvitationType(self.BodyType())
}

func (self *Invitation) ChatId() (string, error) {
	return self.BodyString(InvitationChatIdKey)
}

func InvitationFromSendable(sendable *Sendable) *Invitation {
	return &Invitation{sendable}
}
