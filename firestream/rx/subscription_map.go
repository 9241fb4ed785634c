package rx

import (
	"slices"
	"sync"
)

type DisposableList struct {
	stateLock     sync.Mutex
	subscriptions []*Subscription
}

func NewDisposableList() *DisposableList {
	return &DisposableList{}
}

func (self *DisposableList) Add(subscription *Subscription) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.subscriptions = append(self.subscriptions, subscription)
}

func (self *DisposableList) Remove(subscription *Subscription) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	i := slices.Index(self.subscriptions, subscription)
	if i < 0 {
		return
	}
	self.subscriptions = slices.Delete(slices.Clone(self.subscriptions), i, i+1)
}

func (self *DisposableList) Dispose() {
	self.stateLock.Lock()
	subscriptions := self.subscriptions
	self.subscriptions = nil
	self.stateLock.Unlock()

	for _, subscription := range subscriptions {
		subscription.Unsubscribe()
	}
}

const subscriptionMapDefaultKey = "def"

// SubscriptionMap scopes groups of subscriptions to a lifecycle key, so that
// all the listeners registered during a connect can be torn down together on
// disconnect.
type SubscriptionMap struct {
	stateLock sync.Mutex
	lists     map[string]*DisposableList
}

func NewSubscriptionMap() *SubscriptionMap {
	return &SubscriptionMap{
		lists: map[string]*DisposableList{},
	}
}

func (self *SubscriptionMap) list(key string) *DisposableList {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	list, ok := self.lists[key]
	if !ok {
		list = NewDisposableList()
		self.lists[key] = list
	}
	return list
}

func (self *SubscriptionMap) Put(key string, subscription *Subscription) {
	self.list(key).Add(subscription)
}

func (self *SubscriptionMap) Add(subscription *Subscription) {
	self.Put(subscriptionMapDefaultKey, subscription)
}

func (self *SubscriptionMap) Unsubscribe(key string) {
	self.list(key).Dispose()
}

func (self *SubscriptionMap) UnsubscribeAll() {
	self.stateLock.Lock()
	lists := []*DisposableList{}
	for _, list := range self.lists {
		lists = append(lists, list)
	}
	self.stateLock.Unlock()

	for _, list := range lists {
		list.Dispose()
	}
}
