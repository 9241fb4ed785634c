package firestream

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestSendableFromListData(t *testing.T) {
	date := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	sendable := SendableFromListData("m1", map[string]any{
		KeyType: "message",
		KeyFrom: "alice",
		KeyDate: date,
		KeyBody: map[string]any{
			TextKey: "hello",
		},
	})

	assert.Equal(t, "m1", sendable.Id)
	assert.Equal(t, "alice", sendable.From)
	assert.Equal(t, date, sendable.Date)
	assert.Equal(t, true, sendable.TypeIs(SendableTypeMessage))

	message := MessageFromSendable(sendable)
	assert.Equal(t, "hello", message.Text())
}

func TestSendableFromListDataMillis(t *testing.T) {
	// wire formats may carry the date as epoch millis
	sendable := SendableFromListData("m1", map[string]any{
		KeyType: "message",
		KeyFrom: "alice",
		KeyDate: float64(1709640000000),
	})
	assert.Equal(t, int64(1709640000000), sendable.Date.UnixMilli())
}

func TestSendableOpaqueFallback(t *testing.T) {
	// undecodable data still yields a sendable carrying the raw payload
	sendable := SendableFromListData("m1", map[string]any{
		KeyType: []int{1, 2, 3},
	})
	assert.Equal(t, "m1", sendable.Id)
}

func TestSendableUpdateFrom(t *testing.T) {
	sendable := SendableFromListData("m1", map[string]any{
		KeyType: "message",
		KeyFrom: "alice",
	})
	next := SendableFromListData("m2", map[string]any{
		KeyType: "message",
		KeyFrom: "bob",
		KeyBody: map[string]any{
			TextKey: "edited",
		},
	})

	sendable.UpdateFrom(next)
	// the id never changes in place
	assert.Equal(t, "m1", sendable.Id)
	assert.Equal(t, "bob", sendable.From)
	assert.Equal(t, "edited", MessageFromSendable(sendable).Text())
}

func TestSendableToData(t *testing.T) {
	message := NewTextMessage("hi")
	data := message.ToData("alice", "sentinel")

	assert.Equal(t, "alice", data[KeyFrom])
	assert.Equal(t, "sentinel", data[KeyDate])
	assert.Equal(t, "message", data[KeyType])
	body := data[KeyBody].(map[string]any)
	assert.Equal(t, "hi", body[TextKey])
}

func TestTypedSendables(t *testing.T) {
	invitation := NewInvitation(InvitationTypeChat, "c1")
	assert.Equal(t, InvitationTypeChat, invitation.InvitationType())
	chatId, err := invitation.ChatId()
	assert.Equal(t, nil, err)
	assert.Equal(t, "c1", chatId)

	receipt := NewDeliveryReceipt(DeliveryReceiptTypeRead, "m1")
	assert.Equal(t, DeliveryReceiptTypeRead, receipt.ReceiptType())
	messageId, err := receipt.MessageId()
	assert.Equal(t, nil, err)
	assert.Equal(t, "m1", messageId)

	typing := NewTypingState(TypingStateTypeTyping)
	assert.Equal(t, TypingStateTypeTyping, typing.TypingStateType())

	presence := NewPresence(PresenceTypeBusy)
	assert.Equal(t, PresenceTypeBusy, presence.PresenceType())
}
