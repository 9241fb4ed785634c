package rx

import (
	"slices"
	"sync"
)

// observerList makes a copy of the list on update, so that an emission in
// flight operates on a stable snapshot. A subscriber added during an emission
// does not receive the in-flight value, only subsequent ones.
type observerList[T any] struct {
	stateLock sync.Mutex
	observers []*observer[T]
	err       error
	done      bool
}

func (self *observerList[T]) add(ob *observer[T]) {
	nextObservers := slices.Clone(self.observers)
	nextObservers = append(nextObservers, ob)
	self.observers = nextObservers
}

func (self *observerList[T]) remove(ob *observer[T]) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	i := slices.Index(self.observers, ob)
	if i < 0 {
		// not present
		return
	}
	nextObservers := slices.Clone(self.observers)
	nextObservers = slices.Delete(nextObservers, i, i+1)
	self.observers = nextObservers
}

// snapshot returns the current observers if the subject is still live
func (self *observerList[T]) snapshot() ([]*observer[T], bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.done || self.err != nil {
		return nil, false
	}
	return self.observers, true
}

// Subject emits values to current subscribers only. An error or completion is
// terminal: later Next calls are dropped and later subscribers are notified of
// the terminal state immediately.
type Subject[T any] struct {
	observerList[T]
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

func (self *Subject[T]) Next(value T) {
	observers, live := self.snapshot()
	if !live {
		return
	}
	for _, ob := range observers {
		ob.onNext(value)
	}
}

func (self *Subject[T]) Error(err error) {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.err = err
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onError(err)
	}
}

func (self *Subject[T]) Complete() {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.done = true
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onComplete()
	}
}

func (self *Subject[T]) Observable() *Stream[T] {
	return newStream[T](func(ob *observer[T]) *Subscription {
		self.stateLock.Lock()
		err := self.err
		done := self.done
		if err == nil && !done {
			self.add(ob)
		}
		self.stateLock.Unlock()

		if err != nil {
			ob.onError(err)
			return NewSubscription(func() {})
		}
		if done {
			ob.onComplete()
			return NewSubscription(func() {})
		}
		return NewSubscription(func() {
			self.remove(ob)
		})
	})
}

// ReplaySubject emits every value ever emitted, in emission order, to each
// subscriber regardless of subscribe time.
type ReplaySubject[T any] struct {
	observerList[T]
	history []T
}

func NewReplaySubject[T any]() *ReplaySubject[T] {
	return &ReplaySubject[T]{}
}

func (self *ReplaySubject[T]) Next(value T) {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.history = append(self.history, value)
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onNext(value)
	}
}

func (self *ReplaySubject[T]) Error(err error) {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.err = err
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onError(err)
	}
}

func (self *ReplaySubject[T]) Complete() {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.done = true
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onComplete()
	}
}

func (self *ReplaySubject[T]) Observable() *Stream[T] {
	return newStream[T](func(ob *observer[T]) *Subscription {
		self.stateLock.Lock()
		history := slices.Clone(self.history)
		err := self.err
		done := self.done
		if err == nil && !done {
			self.add(ob)
		}
		self.stateLock.Unlock()

		for _, value := range history {
			ob.onNext(value)
		}
		if err != nil {
			ob.onError(err)
			return NewSubscription(func() {})
		}
		if done {
			ob.onComplete()
			return NewSubscription(func() {})
		}
		return NewSubscription(func() {
			self.remove(ob)
		})
	})
}

// BehaviorSubject emits the most recently emitted value to each new
// subscriber, then subsequent ones. Before the first emission subscribers
// receive nothing.
type BehaviorSubject[T any] struct {
	observerList[T]
	last    T
	hasLast bool
}

func NewBehaviorSubject[T any]() *BehaviorSubject[T] {
	return &BehaviorSubject[T]{}
}

func (self *BehaviorSubject[T]) Next(value T) {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.last = value
	self.hasLast = true
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onNext(value)
	}
}

func (self *BehaviorSubject[T]) Error(err error) {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.err = err
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onError(err)
	}
}

func (self *BehaviorSubject[T]) Complete() {
	self.stateLock.Lock()
	if self.done || self.err != nil {
		self.stateLock.Unlock()
		return
	}
	self.done = true
	observers := self.observers
	self.stateLock.Unlock()

	for _, ob := range observers {
		ob.onComplete()
	}
}

func (self *BehaviorSubject[T]) Value() (T, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.last, self.hasLast
}

func (self *BehaviorSubject[T]) Observable() *Stream[T] {
	return newStream[T](func(ob *observer[T]) *Subscription {
		self.stateLock.Lock()
		last := self.last
		hasLast := self.hasLast
		err := self.err
		done := self.done
		if err == nil && !done {
			self.add(ob)
		}
		self.stateLock.Unlock()

		if hasLast {
			ob.onNext(last)
		}
		if err != nil {
			ob.onError(err)
			return NewSubscription(func() {})
		}
		if done {
			ob.onComplete()
			return NewSubscription(func() {})
		}
		return NewSubscription(func() {
			self.remove(ob)
		})
	})
}
