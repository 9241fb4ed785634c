package firestream

// EventType is the kind of change reported by a backend listener.
type EventType int

const (
	EventTypeNone EventType = iota
	EventTypeAdded
	EventTypeModified
	EventTypeRemoved
)

func (self EventType) String() string {
	switch self {
	case EventTypeAdded:
		return "added"
	case EventTypeModified:
		return "modified"
	case EventTypeRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Event wraps a payload with the change kind that produced it. Events are
// immutable and produced only by the synchronization layer.
type Event[T any] struct {
	payload   T
	eventType EventType
}

func NewEvent[T any](eventType EventType, payload T) Event[T] {
	return Event[T]{
		payload:   payload,
		eventType: eventType,
	}
}

func AddedEvent[T any](payload T) Event[T] {
	return NewEvent(EventTypeAdded, payload)
}

func ModifiedEvent[T any](payload T) Event[T] {
	return NewEvent(EventTypeModified, payload)
}

func RemovedEvent[T any](payload T) Event[T] {
	return NewEvent(EventTypeRemoved, payload)
}

func (self Event[T]) Get() T {
	return self.payload
}

func (self Event[T]) Type() EventType {
	return self.eventType
}

func (self Event[T]) TypeIs(eventType EventType) bool {
	return self.eventType == eventType
}

// EventTo replaces the payload while preserving the change kind.
func EventTo[T any, S any](event Event[T], payload S) Event[S] {
	return Event[S]{
		payload:   payload,
		eventType: event.eventType,
	}
}

// ListData is a generic keyed payload: a document id plus its raw attribute
// map.
type ListData struct {
	Id   string
	Data map[string]any
}

func NewListData(id string, data map[string]any) *ListData {
	return &ListData{
		Id:   id,
		Data: data,
	}
}

func (self *ListData) Get(key string) any {
	if self.Data == nil {
		return nil
	}
	return self.Data[key]
}

func (self *ListData) GetString(key string) (string, bool) {
	value, ok := self.Get(key).(string)
	return value, ok
}

// ListEvent is a generic path-change notification from the backend.
type ListEvent struct {
	Id        string
	Data      map[string]any
	EventType EventType
}

func NewListEvent(id string, data map[string]any, eventType EventType) *ListEvent {
	return &ListEvent{
		Id:        id,
		Data:      data,
		EventType: eventType,
	}
}

func (self *ListEvent) Get(key string) any {
	if self.Data == nil {
		return nil
	}
	return self.Data[key]
}

func (self *ListEvent) ListData() *ListData {
	return NewListData(self.Id, self.Data)
}

// ConnectionEventType tracks the session connection lifecycle.
type ConnectionEventType int

const (
	ConnectionEventTypeWillConnect ConnectionEventType = iota
	ConnectionEventTypeDidConnect
	ConnectionEventTypeWillDisconnect
	ConnectionEventTypeDidDisconnect
)

type ConnectionEvent struct {
	eventType ConnectionEventType
}

func (self ConnectionEvent) Type() ConnectionEventType {
	return self.eventType
}

func connectionEvent(eventType ConnectionEventType) ConnectionEvent {
	return ConnectionEvent{
		eventType: eventType,
	}
}
