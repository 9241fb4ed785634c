package firestream

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"
)

// Sendable is the envelope shared by every payload transmitted through a
// message channel. The id is assigned by the backend at creation and is
// immutable afterwards; the date is a server timestamp and is the sole
// ordering key for message history.
type Sendable struct {
	Id       string
	From     string         `json:"from"`
	Date     time.Time      `json:"date"`
	SendType string         `json:"type"`
	Body     map[string]any `json:"body"`
}

func newSendable(sendType SendableType, body map[string]any) *Sendable {
	if body == nil {
		body = map[string]any{}
	}
	return &Sendable{
		SendType: string(sendType),
		Body:     body,
	}
}

// SendableFromListData reconstructs a sendable from a backend snapshot. A
// document that fails to decode, or carries an unrecognized type, still comes
// back as an opaque sendable the caller can inspect by id/from/date - one bad
// document must not halt the stream.
func SendableFromListData(id string, data map[string]any) *Sendable {
	sendable := &Sendable{}
	if err := decodeRawMap(data, sendable); err != nil {
		return &Sendable{Id: id}
	}
	sendable.Id = id
	if sendable.Body == nil {
		sendable.Body = map[string]any{}
	}
	return sendable
}

// GetFrom satisfies the sender constraint the stream predicates select on.
func (self *Sendable) GetFrom() string {
	return self.From
}

func (self *Sendable) Type() SendableType {
	return SendableType(self.SendType)
}

func (self *Sendable) TypeIs(sendType SendableType) bool {
	return self.SendType == string(sendType)
}

// BodyType returns the type tag nested inside the body, which sub-classifies
// typing/presence/invitation/receipt sendables.
func (self *Sendable) BodyType() string {
	if value, ok := self.Body[KeyType].(string); ok {
		return value
	}
	return ""
}

func (self *Sendable) setBodyType(bodyType string) {
	self.Body[KeyType] = bodyType
}

func (self *Sendable) BodyString(key string) (string, error) {
	if value, ok := self.Body[key].(string); ok {
		return value, nil
	}
	return "", fmt.Errorf("body does not contain key: %s", key)
}

// UpdateFrom copies the mutable fields of a newer snapshot onto this cached
// instance in place, so consumers holding a reference observe the change. The
// id never changes.
func (self *Sendable) UpdateFrom(sendable *Sendable) {
	self.From = sendable.From
	self.Date = sendable.Date
	self.SendType = sendable.SendType
	self.Body = sendable.Body
}

// ToData serializes for a write. The sender is stamped here and the date is
// the server-timestamp sentinel - the client clock is never trusted for
// ordering.
func (self *Sendable) ToData(from string, timestamp any) map[string]any {
	return map[string]any{
		KeyFrom: from,
		KeyBody: maps.Clone(self.Body),
		KeyDate: timestamp,
		KeyType: self.SendType,
	}
}
