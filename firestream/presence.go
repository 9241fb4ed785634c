package firestream

// Presence carries the sender's availability. Transient, always deleted after
// observation.
type Presence struct {
	*Sendable
}

func NewPresence(presenceType PresenceType) *Presence {
	presence := &Presence{newSendable(SendableTypePresence, nil)}
	presence.setBodyType(string(presenceType))
	return presence
}

func (self *Presence) PresenceType() PresenceType {
	return PresenceType(self.BodyType())
}

func PresenceFromSendable(sendable *Sendable) *Presence {
	return &Presence{sendable}
}
