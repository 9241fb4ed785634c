package rx

// MultiQueueSubject fans one logical event source out to arbitrarily many
// subscribers with three temporal views:
//
//   - NewEvents: values emitted after subscribing
//   - AllEvents: every value ever emitted, in emission order
//   - SinceLastEvent: the most recent value, then subsequent ones
//
// Errors and completion are terminal and propagate to all three views.
type MultiQueueSubject[T any] struct {
	subject         *Subject[T]
	replaySubject   *ReplaySubject[T]
	behaviorSubject *BehaviorSubject[T]
}

func NewMultiQueueSubject[T any]() *MultiQueueSubject[T] {
	return &MultiQueueSubject[T]{
		subject:         NewSubject[T](),
		replaySubject:   NewReplaySubject[T](),
		behaviorSubject: NewBehaviorSubject[T](),
	}
}

func (self *MultiQueueSubject[T]) Next(value T) {
	self.subject.Next(value)
	self.replaySubject.Next(value)
	self.behaviorSubject.Next(value)
}

func (self *MultiQueueSubject[T]) Error(err error) {
	self.subject.Error(err)
	self.replaySubject.Error(err)
	self.behaviorSubject.Error(err)
}

func (self *MultiQueueSubject[T]) Complete() {
	self.subject.Complete()
	self.replaySubject.Complete()
	self.behaviorSubject.Complete()
}

func (self *MultiQueueSubject[T]) NewEvents() *Stream[T] {
	return self.subject.Observable()
}

func (self *MultiQueueSubject[T]) AllEvents() *Stream[T] {
	return self.replaySubject.Observable()
}

func (self *MultiQueueSubject[T]) SinceLastEvent() *Stream[T] {
	return self.behaviorSubject.Observable()
}

// Map derives a typed projection of a multi-queue subject. Buffered history is
// replayed through the transform, so a late subscriber to the derived
// subject's AllEvents view sees the full mapped history.
func Map[T any, S any](subject *MultiQueueSubject[T], transform func(T) S) *MultiQueueSubject[S] {
	out := NewMultiQueueSubject[S]()
	subject.AllEvents().SubscribeWith(
		func(value T) {
			out.Next(transform(value))
		},
		out.Error,
		out.Complete,
	)
	return out
}
