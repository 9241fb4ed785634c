package firestream

import (
	"github.com/firestream/firestream-go/firestream/rx"
)

// Events exposes a chat's sendable streams. The generic Sendables stream
// carries every inbound sendable; the typed streams carry the per-type
// projections the ingestion pipeline dispatches to.
type Events struct {
	messages         *rx.MultiQueueSubject[Event[*Message]]
	deliveryReceipts *rx.MultiQueueSubject[Event[*DeliveryReceipt]]
	typingStates     *rx.MultiQueueSubject[Event[*TypingState]]
	presences        *rx.MultiQueueSubject[Event[*Presence]]
	invitations      *rx.MultiQueueSubject[Event[*Invitation]]
	sendables        *rx.MultiQueueSubject[Event[*Sendable]]

	errors *rx.Subject[error]
}

func newEvents() *Events {
	return &Events{
		messages:         rx.NewMultiQueueSubject[Event[*Message]](),
		deliveryReceipts: rx.NewMultiQueueSubject[Event[*DeliveryReceipt]](),
		typingStates:     rx.NewMultiQueueSubject[Event[*TypingState]](),
		presences:        rx.NewMultiQueueSubject[Event[*Presence]](),
		invitations:      rx.NewMultiQueueSubject[Event[*Invitation]](),
		sendables:        rx.NewMultiQueueSubject[Event[*Sendable]](),
		errors:           rx.NewSubject[error](),
	}
}

func (self *Events) Messages() *rx.MultiQueueSubject[Event[*Message]] {
	return self.messages
}

func (self *Events) DeliveryReceipts() *rx.MultiQueueSubject[Event[*DeliveryReceipt]] {
	return self.deliveryReceipts
}

func (self *Events) TypingStates() *rx.MultiQueueSubject[Event[*TypingState]] {
	return self.typingStates
}

func (self *Events) Presences() *rx.MultiQueueSubject[Event[*Presence]] {
	return self.presences
}

func (self *Events) Invitations() *rx.MultiQueueSubject[Event[*Invitation]] {
	return self.invitations
}

func (self *Events) Sendables() *rx.MultiQueueSubject[Event[*Sendable]] {
	return self.sendables
}

// Errors surfaces listener errors as values. The stream itself is not
// terminated by an error - the generic Sendables stream is (see publishError).
func (self *Events) Errors() *rx.Stream[error] {
	return self.errors.Observable()
}

// publishError pushes a listener error to subscribers and permanently
// terminates the generic sendables stream it interrupted. The typed per-type
// streams are left alive: an error on one path must not tear down the others.
func (self *Events) publishError(err error) {
	self.errors.Next(err)
	self.sendables.Error(err)
}

// publish routes a reconstructed sendable event to the generic stream and to
// the typed stream matching its type tag. An unrecognized type only reaches
// the generic stream, as an opaque sendable.
func (self *Events) publish(event Event[*Sendable]) {
	self.sendables.Next(event)

	sendable := event.Get()
	switch sendable.Type() {
	case SendableTypeMessage:
		self.messages.Next(EventTo(event, MessageFromSendable(sendable)))
	case SendableTypeDeliveryReceipt:
		self.deliveryReceipts.Next(EventTo(event, DeliveryReceiptFromSendable(sendable)))
	case SendableTypeTypingState:
		self.typingStates.Next(EventTo(event, TypingStateFromSendable(sendable)))
	case SendableTypePresence:
		self.presences.Next(EventTo(event, PresenceFromSendable(sendable)))
	case SendableTypeInvitation:
		self.invitations.Next(EventTo(event, InvitationFromSendable(sendable)))
	}
}
