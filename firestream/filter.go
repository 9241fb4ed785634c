package firestream

// Composable predicates used to shape sendable event streams declaratively.

type Predicate[T any] func(value T) bool

func BySendableType(types ...SendableType) Predicate[Event[*Sendable]] {
	return func(event Event[*Sendable]) bool {
		for _, sendableType := range types {
			if event.Get().TypeIs(sendableType) {
				return true
			}
		}
		return false
	}
}

func ByEventType[T any](types ...EventType) Predicate[Event[T]] {
	return func(event Event[T]) bool {
		for _, eventType := range types {
			if event.TypeIs(eventType) {
				return true
			}
		}
		return false
	}
}

// NotFromMe passes events whose sendable was authored by someone else.
func NotFromMe[T interface{ GetFrom() string }](userId string) Predicate[Event[T]] {
	return func(event Event[T]) bool {
		return event.Get().GetFrom() != userId
	}
}

// MarkReceived gates the automatic delivery-receipt pipeline on the session
// policy toggles.
func MarkReceived[T any](config *Config) Predicate[T] {
	return func(T) bool {
		return config.DeliveryReceiptsEnabled && config.AutoMarkReceived
	}
}

func CombineFilters[T any](predicates ...Predicate[T]) Predicate[T] {
	return func(value T) bool {
		for _, predicate := range predicates {
			if !predicate(value) {
				return false
			}
		}
		return true
	}
}
