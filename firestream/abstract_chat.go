package firestream

import (
	"slices"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/firestream/firestream-go/firestream/rx"
)

type connectionState int

const (
	connectionStateDisconnected connectionState = iota
	connectionStateConnecting
	connectionStateConnected
)

// AbstractChat drives one message path: it owns the event hub, the sendable
// cache and the listen -> decode -> cache -> fan-out pipeline, plus the
// path-scoped batched user writes. Chat and FireStream embed it and bind the
// two closures below.
type AbstractChat struct {
	store  *Store
	events *Events
	sm     *rx.SubscriptionMap

	// resolves the message collection this chat listens on
	messagesPath func() (*Path, error)
	// resolves the date after which the message listener begins
	listenSince func(path *Path) (time.Time, error)

	cacheLock sync.Mutex
	sendables []*Sendable
	state     connectionState
}

func newAbstractChat(store *Store) AbstractChat {
	return AbstractChat{
		store:  store,
		events: newEvents(),
		sm:     rx.NewSubscriptionMap(),
	}
}

// Connect determines the watermark, opens the message listener and starts the
// ingestion pipeline. Calling Connect while connected first tears down the
// prior subscriptions, so there is never more than one listener per path.
func (self *AbstractChat) Connect() error {
	self.prepareConnect()

	path, err := self.messagesPath()
	if err != nil {
		self.Disconnect()
		return err
	}

	since, err := self.listenSince(path)
	if err != nil {
		self.Disconnect()
		return errors.Wrap(err, "resolve watermark")
	}

	glog.V(2).Infof("[chat]listen %s since %s\n", path, since)

	query := NewQuery()
	query.From = since
	query.Limit = self.store.Config().MessageHistoryLimit
	subscription := self.store.Service().ListenOnPath(path, query).SubscribeWith(
		self.onSendableListEvent,
		func(err error) {
			glog.Infof("[chat]listener error on %s = %s\n", path, err)
			self.events.publishError(err)
		},
		nil,
	)
	self.sm.Add(subscription)

	self.setState(connectionStateConnected)
	return nil
}

// prepareConnect tears down a prior connection and enters the connecting
// state. An embedding type's Connect calls this before registering its own
// listeners and then delegates to Connect, which sees the connecting state and
// does not tear down again - the teardown must run before any listener of the
// new connection is registered.
func (self *AbstractChat) prepareConnect() {
	self.cacheLock.Lock()
	state := self.state
	self.cacheLock.Unlock()

	if state == connectionStateConnecting {
		return
	}
	if state == connectionStateConnected {
		self.Disconnect()
	}
	self.setState(connectionStateConnecting)
}

// Disconnect synchronously unsubscribes every listener registered since
// Connect. Idempotent.
func (self *AbstractChat) Disconnect() {
	self.cacheLock.Lock()
	if self.state == connectionStateDisconnected {
		self.cacheLock.Unlock()
		return
	}
	self.state = connectionStateDisconnected
	self.cacheLock.Unlock()

	self.sm.UnsubscribeAll()
}

func (self *AbstractChat) IsConnected() bool {
	self.cacheLock.Lock()
	defer self.cacheLock.Unlock()

	return self.state == connectionStateConnected
}

func (self *AbstractChat) setState(state connectionState) {
	self.cacheLock.Lock()
	defer self.cacheLock.Unlock()

	self.state = state
}

// watermarkDate queries the date of the last sendable this party wrote to the
// path - the last message we sent or the last delivery receipt we issued.
// Listening strictly after it makes each remote message observed exactly once
// across reconnects.
func (self *AbstractChat) watermarkDate(path *Path) (time.Time, error) {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return time.Time{}, err
	}

	query := NewQuery().Where(KeyFrom, userId)
	query.Descending = true
	query.Limit = 1
	results, err := self.store.Service().QueryOnce(self.store.Ctx(), path, query)
	if err != nil {
		return time.Time{}, err
	}
	if len(results) > 0 {
		sendable := SendableFromListData(results[0].Id, results[0].Data)
		if !sendable.Date.IsZero() {
			return sendable.Date, nil
		}
	}
	return self.horizonDate(), nil
}

// horizonDate is the fallback watermark when no prior send exists: epoch, or
// the configured retention horizon.
func (self *AbstractChat) horizonDate() time.Time {
	if horizon := self.store.Config().ListenSinceHorizon; 0 < horizon {
		return time.Now().Add(-horizon)
	}
	return time.Time{}
}

// onSendableListEvent reconstructs a typed sendable from a generic path
// change, reconciles the cache and fans the event out. A Modified or Removed
// for an id not in the cache is tolerated - near-simultaneous live updates
// may arrive out of order.
func (self *AbstractChat) onSendableListEvent(listEvent *ListEvent) {
	sendable := SendableFromListData(listEvent.Id, listEvent.Data)

	self.cacheLock.Lock()
	switch listEvent.EventType {
	case EventTypeAdded:
		if cached := self.findSendable(sendable.Id); cached != nil {
			// re-adding an existing id is an update, not a duplicate
			cached.UpdateFrom(sendable)
			sendable = cached
		} else {
			self.sendables = append(self.sendables, sendable)
		}
	case EventTypeModified:
		if cached := self.findSendable(sendable.Id); cached != nil {
			cached.UpdateFrom(sendable)
			sendable = cached
		}
	case EventTypeRemoved:
		if i := slices.IndexFunc(self.sendables, func(cached *Sendable) bool {
			return cached.Id == sendable.Id
		}); 0 <= i {
			sendable = self.sendables[i]
			self.sendables = slices.Delete(self.sendables, i, i+1)
		}
	default:
		self.cacheLock.Unlock()
		return
	}
	self.cacheLock.Unlock()

	glog.V(2).Infof("[chat]%s sendable %s type=%s\n", listEvent.EventType, sendable.Id, sendable.SendType)
	self.events.publish(NewEvent(listEvent.EventType, sendable))
}

// caller must hold cacheLock
func (self *AbstractChat) findSendable(id string) *Sendable {
	for _, sendable := range self.sendables {
		if sendable.Id == id {
			return sendable
		}
	}
	return nil
}

func (self *AbstractChat) GetSendables() []*Sendable {
	self.cacheLock.Lock()
	defer self.cacheLock.Unlock()

	return slices.Clone(self.sendables)
}

func (self *AbstractChat) GetSendablesOfType(sendableType SendableType) []*Sendable {
	self.cacheLock.Lock()
	defer self.cacheLock.Unlock()

	matching := []*Sendable{}
	for _, sendable := range self.sendables {
		if sendable.TypeIs(sendableType) {
			matching = append(matching, sendable)
		}
	}
	return matching
}

func (self *AbstractChat) GetSendable(id string) *Sendable {
	self.cacheLock.Lock()
	defer self.cacheLock.Unlock()

	return self.findSendable(id)
}

// SendableEvents exposes the chat's event streams.
func (self *AbstractChat) SendableEvents() *Events {
	return self.events
}

// Manage scopes a subscription to this chat's connect/disconnect lifecycle.
func (self *AbstractChat) Manage(subscription *rx.Subscription) {
	self.sm.Add(subscription)
}

func (self *AbstractChat) GetSubscriptionMap() *rx.SubscriptionMap {
	return self.sm
}

// LoadMoreMessages reads a batch of historic sendables: date in (from, to],
// ascending, up to limit.
func (self *AbstractChat) LoadMoreMessages(from time.Time, to time.Time, limit int) ([]*Sendable, error) {
	path, err := self.messagesPath()
	if err != nil {
		return nil, err
	}

	query := NewQuery()
	query.From = from
	query.To = to
	query.Limit = limit
	results, err := self.store.Service().QueryOnce(self.store.Ctx(), path, query)
	if err != nil {
		return nil, errors.Wrap(err, "load more messages")
	}

	sendables := []*Sendable{}
	for _, result := range results {
		sendables = append(sendables, SendableFromListData(result.Id, result.Data))
	}
	return sendables, nil
}

func (self *AbstractChat) LoadMoreMessagesFrom(from time.Time, limit int) ([]*Sendable, error) {
	return self.LoadMoreMessages(from, time.Time{}, limit)
}

func (self *AbstractChat) LoadMoreMessagesTo(to time.Time, limit int) ([]*Sendable, error) {
	return self.LoadMoreMessages(time.Time{}, to, limit)
}

func (self *AbstractChat) LoadMoreMessagesBefore(before time.Time, limit int) ([]*Sendable, error) {
	return self.LoadMoreMessages(time.Time{}, before.Add(-time.Nanosecond), limit)
}

// sendToPath translates the sendable to its raw map and writes it. The cache
// is never touched here - it is populated by the event path only, keeping a
// single writer into chat state.
func (self *AbstractChat) sendToPath(path *Path, sendable *Sendable) (string, error) {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return "", err
	}

	data := sendable.ToData(userId, self.store.Timestamp())
	messageId, err := self.store.Service().WriteDocument(self.store.Ctx(), path, data, "")
	if err != nil {
		return "", errors.Wrap(err, "send")
	}
	if messageId == "" {
		return "", ErrNullMessageId
	}
	return messageId, nil
}

func (self *AbstractChat) deleteSendableAtPath(path *Path) error {
	return self.store.Service().DeleteDocument(self.store.Ctx(), path)
}

// AddUsersAtPath writes one document per user in a single atomic batch.
func (self *AbstractChat) AddUsersAtPath(path *Path, dataProvider UserDataProvider, users []*User) error {
	ops := []*WriteOp{}
	for _, user := range users {
		ops = append(ops, &WriteOp{
			Path: path.Child(user.Id),
			Op:   WriteOpSet,
			Data: dataProvider(user),
		})
	}
	return self.store.Service().BatchWrite(self.store.Ctx(), ops)
}

func (self *AbstractChat) UpdateUsersAtPath(path *Path, dataProvider UserDataProvider, users []*User) error {
	ops := []*WriteOp{}
	for _, user := range users {
		ops = append(ops, &WriteOp{
			Path: path.Child(user.Id),
			Op:   WriteOpUpdate,
			Data: dataProvider(user),
		})
	}
	return self.store.Service().BatchWrite(self.store.Ctx(), ops)
}

func (self *AbstractChat) RemoveUsersAtPath(path *Path, users []*User) error {
	ops := []*WriteOp{}
	for _, user := range users {
		ops = append(ops, &WriteOp{
			Path: path.Child(user.Id),
			Op:   WriteOpDelete,
		})
	}
	return self.store.Service().BatchWrite(self.store.Ctx(), ops)
}

// listChangeOn opens a roster-style listener and hands each generic change to
// the handler; listener errors go to the error stream and terminate the given
// subject when one is provided.
func (self *AbstractChat) listChangeOn(path *Path, next func(listEvent *ListEvent), onError func(err error)) {
	subscription := self.store.Service().ListenOnPath(path, nil).SubscribeWith(
		next,
		func(err error) {
			glog.Infof("[chat]list listener error on %s = %s\n", path, err)
			onError(err)
		},
		nil,
	)
	self.sm.Add(subscription)
}
