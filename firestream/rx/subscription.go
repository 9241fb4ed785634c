package rx

import (
	"sync"
)

// A handle to an active observer. Unsubscribe is idempotent.
type Subscription struct {
	stateLock sync.Mutex
	cancel    func()
}

func NewSubscription(cancel func()) *Subscription {
	return &Subscription{
		cancel: cancel,
	}
}

func (self *Subscription) Unsubscribe() {
	self.stateLock.Lock()
	cancel := self.cancel
	self.cancel = nil
	self.stateLock.Unlock()

	if cancel != nil {
		cancel()
	}
}

type observer[T any] struct {
	next     func(T)
	err      func(error)
	complete func()
}

func (self *observer[T]) onNext(value T) {
	if self.next != nil {
		self.next(value)
	}
}

func (self *observer[T]) onError(err error) {
	if self.err != nil {
		self.err(err)
	}
}

func (self *observer[T]) onComplete() {
	if self.complete != nil {
		self.complete()
	}
}

// A read-only view over an event source. Streams are cheap to derive and
// hold no state of their own - all buffering lives in the owning subject.
type Stream[T any] struct {
	subscribe func(ob *observer[T]) *Subscription
}

func newStream[T any](subscribe func(ob *observer[T]) *Subscription) *Stream[T] {
	return &Stream[T]{
		subscribe: subscribe,
	}
}

func (self *Stream[T]) Subscribe(next func(T)) *Subscription {
	return self.subscribe(&observer[T]{
		next: next,
	})
}

func (self *Stream[T]) SubscribeWith(next func(T), err func(error), complete func()) *Subscription {
	return self.subscribe(&observer[T]{
		next:     next,
		err:      err,
		complete: complete,
	})
}

func (self *Stream[T]) Filter(test func(T) bool) *Stream[T] {
	return newStream[T](func(ob *observer[T]) *Subscription {
		return self.subscribe(&observer[T]{
			next: func(value T) {
				if test(value) {
					ob.onNext(value)
				}
			},
			err:      ob.onError,
			complete: ob.onComplete,
		})
	})
}

// WithTeardown runs teardown when a subscription to the stream is
// unsubscribed, so the event source can release per-listener resources.
func (self *Stream[T]) WithTeardown(teardown func()) *Stream[T] {
	return newStream[T](func(ob *observer[T]) *Subscription {
		subscription := self.subscribe(ob)
		return NewSubscription(func() {
			subscription.Unsubscribe()
			teardown()
		})
	})
}

func MapStream[T any, S any](stream *Stream[T], transform func(T) S) *Stream[S] {
	return newStream[S](func(ob *observer[S]) *Subscription {
		return stream.subscribe(&observer[T]{
			next: func(value T) {
				ob.onNext(transform(value))
			},
			err:      ob.onError,
			complete: ob.onComplete,
		})
	})
}
