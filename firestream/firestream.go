package firestream

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/firestream/firestream-go/firestream/rx"
)

// FireStream is the per-user session: the inbox pipeline from AbstractChat
// plus the contacts, blocked, muted and chats lists and the configured inbox
// policies.
type FireStream struct {
	AbstractChat

	sessionLock sync.Mutex
	contacts    []*User
	blocked     []*User
	muted       map[string]time.Time
	chats       []*Chat

	chatEvents       *rx.MultiQueueSubject[Event[*Chat]]
	contactEvents    *rx.MultiQueueSubject[Event[*User]]
	blockedEvents    *rx.MultiQueueSubject[Event[*User]]
	connectionEvents *rx.BehaviorSubject[ConnectionEvent]
}

func NewFireStream(ctx context.Context, config *Config, service Service, auth Auth) *FireStream {
	fs := &FireStream{
		AbstractChat:     newAbstractChat(NewStore(ctx, config, service, auth)),
		muted:            map[string]time.Time{},
		chatEvents:       rx.NewMultiQueueSubject[Event[*Chat]](),
		contactEvents:    rx.NewMultiQueueSubject[Event[*User]](),
		blockedEvents:    rx.NewMultiQueueSubject[Event[*User]](),
		connectionEvents: rx.NewBehaviorSubject[ConnectionEvent](),
	}
	fs.messagesPath = func() (*Path, error) {
		userId, err := fs.store.CurrentUserId()
		if err != nil {
			return nil, err
		}
		return fs.store.Paths().MessagesPath(userId), nil
	}
	// when receipts empty the inbox there is no watermark to resume from
	fs.listenSince = func(path *Path) (time.Time, error) {
		if fs.store.Config().DeleteMessagesOnReceipt {
			return fs.horizonDate(), nil
		}
		return fs.watermarkDate(path)
	}
	return fs
}

func NewFireStreamWithDefaults(ctx context.Context, service Service, auth Auth) *FireStream {
	return NewFireStream(ctx, DefaultConfig(), service, auth)
}

// Connect wires the inbox policies and the session list listeners, then opens
// the inbox pipeline. Requires an authenticated user.
func (self *FireStream) Connect() error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}

	// a re-entrant connect is a full session restart: the previous listeners
	// and connected chats come down before any new listener is registered
	if self.IsConnected() {
		self.Disconnect()
	}

	glog.V(2).Infof("[fs]connect %s\n", userId)
	self.connectionEvents.Next(connectionEvent(ConnectionEventTypeWillConnect))

	self.connectDeletionPipeline()
	self.connectReceiptPipeline(userId)
	self.connectInvitationPipeline()

	self.listChangeOn(
		self.store.Paths().ContactsPath(userId),
		func(listEvent *ListEvent) {
			self.onListMemberEvent(&self.contacts, self.contactEvents, listEvent)
		},
		func(err error) {
			self.events.errors.Next(err)
			self.contactEvents.Error(err)
		},
	)

	self.listChangeOn(
		self.store.Paths().BlockedPath(userId),
		func(listEvent *ListEvent) {
			self.onListMemberEvent(&self.blocked, self.blockedEvents, listEvent)
		},
		func(err error) {
			self.events.errors.Next(err)
			self.blockedEvents.Error(err)
		},
	)

	self.listChangeOn(
		self.store.Paths().MutedPath(userId),
		self.onMutedListEvent,
		func(err error) {
			self.events.errors.Next(err)
		},
	)

	self.listChangeOn(
		self.store.Paths().UserChatsPath(userId),
		self.onChatListEvent,
		func(err error) {
			self.events.errors.Next(err)
			self.chatEvents.Error(err)
		},
	)

	if err := self.AbstractChat.Connect(); err != nil {
		self.connectionEvents.Next(connectionEvent(ConnectionEventTypeDidDisconnect))
		return err
	}

	self.connectionEvents.Next(connectionEvent(ConnectionEventTypeDidConnect))
	return nil
}

// Disconnect tears down the session listeners and every connected chat.
func (self *FireStream) Disconnect() {
	self.connectionEvents.Next(connectionEvent(ConnectionEventTypeWillDisconnect))

	self.sessionLock.Lock()
	chats := slices.Clone(self.chats)
	self.chats = nil
	self.contacts = nil
	self.blocked = nil
	self.muted = map[string]time.Time{}
	self.sessionLock.Unlock()

	for _, chat := range chats {
		chat.Disconnect()
	}
	self.AbstractChat.Disconnect()

	self.connectionEvents.Next(connectionEvent(ConnectionEventTypeDidDisconnect))
}

// connectDeletionPipeline deletes observed inbox sendables. Transient types
// are always deleted once seen; messages, receipts and invitations only when
// the config says the inbox is consume-and-delete.
func (self *FireStream) connectDeletionPipeline() {
	stream := self.events.Sendables().AllEvents().Filter(ByEventType[*Sendable](EventTypeAdded))
	if !self.store.Config().DeleteMessagesOnReceipt {
		stream = stream.Filter(BySendableType(SendableTypeTypingState, SendableTypePresence))
	}
	subscription := stream.Subscribe(func(event Event[*Sendable]) {
		if err := self.DeleteSendable(event.Get()); err != nil {
			self.events.errors.Next(errors.Wrap(err, "delete observed sendable"))
		}
	})
	self.sm.Add(subscription)
}

// connectReceiptPipeline acknowledges inbound messages. The receipt to the
// sender implements delivery tracking; the receipt to our own inbox advances
// the watermark when messages are kept.
func (self *FireStream) connectReceiptPipeline(userId string) {
	receive := CombineFilters(
		ByEventType[*Message](EventTypeAdded),
		NotFromMe[*Message](userId),
	)
	subscription := self.events.Messages().AllEvents().Filter(receive).Subscribe(func(event Event[*Message]) {
		message := event.Get()
		if self.store.Config().DeliveryReceiptsEnabled && self.store.Config().AutoMarkReceived {
			if err := self.MarkReceived(message); err != nil {
				self.events.errors.Next(errors.Wrap(err, "mark received"))
			}
		}
		if !self.store.Config().DeleteMessagesOnReceipt {
			_, err := self.SendDeliveryReceipt(userId, DeliveryReceiptTypeReceived, message.Id)
			if err != nil {
				self.events.errors.Next(errors.Wrap(err, "watermark receipt"))
			}
		}
	})
	self.sm.Add(subscription)
}

func (self *FireStream) connectInvitationPipeline() {
	if !self.store.Config().AutoAcceptChatInvite {
		return
	}
	subscription := self.events.Invitations().AllEvents().
		Filter(ByEventType[*Invitation](EventTypeAdded)).
		Subscribe(func(event Event[*Invitation]) {
			if err := self.AcceptInvitation(event.Get()); err != nil {
				self.events.errors.Next(errors.Wrap(err, "accept invitation"))
			}
		})
	self.sm.Add(subscription)
}

// onListMemberEvent reconciles a user list (contacts or blocked) and
// republishes the change.
func (self *FireStream) onListMemberEvent(list *[]*User, subject *rx.MultiQueueSubject[Event[*User]], listEvent *ListEvent) {
	userEvent := UserFromListEvent(listEvent)
	user := userEvent.Get()

	self.sessionLock.Lock()
	switch userEvent.Type() {
	case EventTypeAdded, EventTypeModified:
		if i := slices.IndexFunc(*list, user.Equals); 0 <= i {
			(*list)[i] = user
		} else {
			*list = append(*list, user)
		}
	case EventTypeRemoved:
		*list = slices.DeleteFunc(*list, user.Equals)
	}
	self.sessionLock.Unlock()

	subject.Next(userEvent)
}

func (self *FireStream) onMutedListEvent(listEvent *ListEvent) {
	entry := &struct {
		Date time.Time `json:"date"`
	}{}
	if err := decodeRawMap(listEvent.Data, entry); err != nil {
		self.events.errors.Next(errors.Wrap(err, "decode mute entry"))
		return
	}

	self.sessionLock.Lock()
	switch listEvent.EventType {
	case EventTypeAdded, EventTypeModified:
		self.muted[listEvent.Id] = entry.Date
	case EventTypeRemoved:
		delete(self.muted, listEvent.Id)
	}
	self.sessionLock.Unlock()
}

// onChatListEvent keeps the connected chats in step with the user's chats
// list. A new entry is connected immediately; a removed entry leaves the
// corresponding chat.
func (self *FireStream) onChatListEvent(listEvent *ListEvent) {
	chatEvent := ChatFromListEvent(self.store, listEvent)

	switch chatEvent.Type() {
	case EventTypeAdded:
		self.sessionLock.Lock()
		if self.findChat(listEvent.Id) != nil {
			self.sessionLock.Unlock()
			return
		}
		chat := chatEvent.Get()
		self.chats = append(self.chats, chat)
		self.sessionLock.Unlock()

		if err := chat.Connect(); err != nil {
			self.events.errors.Next(errors.Wrap(err, "connect chat"))
		}
		self.chatEvents.Next(AddedEvent(chat))
	case EventTypeRemoved:
		self.sessionLock.Lock()
		chat := self.findChat(listEvent.Id)
		self.chats = slices.DeleteFunc(self.chats, func(cached *Chat) bool {
			return cached.Id() == listEvent.Id
		})
		self.sessionLock.Unlock()

		if chat == nil {
			return
		}
		if err := chat.Leave(); err != nil {
			self.events.errors.Next(errors.Wrap(err, "leave chat"))
			chat.Disconnect()
		}
		self.chatEvents.Next(RemovedEvent(chat))
	case EventTypeModified:
		self.sessionLock.Lock()
		chat := self.findChat(listEvent.Id)
		self.sessionLock.Unlock()
		if chat != nil {
			self.chatEvents.Next(ModifiedEvent(chat))
		}
	}
}

// caller must hold sessionLock
func (self *FireStream) findChat(chatId string) *Chat {
	for _, chat := range self.chats {
		if chat.Id() == chatId {
			return chat
		}
	}
	return nil
}

func (self *FireStream) CurrentUserId() (string, error) {
	return self.store.CurrentUserId()
}

func (self *FireStream) CurrentUser() (*User, error) {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return nil, err
	}
	return NewUser(userId), nil
}

// CreateChat creates the chat with the current user as owner and joins it.
// The connected session copy is published on ChatEvents once the chats list
// reflects the join.
func (self *FireStream) CreateChat(name string, imageURL string, customData map[string]any, users []*User) (*Chat, error) {
	chat, err := CreateChat(self.store, name, imageURL, customData, users)
	if err != nil {
		return nil, err
	}
	if err := self.JoinChat(chat.Id()); err != nil {
		return nil, errors.Wrap(err, "join created chat")
	}
	return chat, nil
}

// GetChat returns the session's connected chat for the id, or nil.
func (self *FireStream) GetChat(chatId string) *Chat {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	return self.findChat(chatId)
}

func (self *FireStream) GetChats() []*Chat {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	return slices.Clone(self.chats)
}

// JoinChat adds the chat to the user's chats list, which in turn connects it.
func (self *FireStream) JoinChat(chatId string) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	_, err = self.store.Service().WriteDocument(
		self.store.Ctx(),
		self.store.Paths().UserChatsPath(userId),
		DateDataProvider(self.store)(NewUser(userId)),
		chatId,
	)
	return errors.Wrap(err, "join chat")
}

// LeaveChat removes the chat from the user's chats list. The chats list
// mirrors the backend, so an id the session does not know is not a membership.
func (self *FireStream) LeaveChat(chatId string) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	if self.GetChat(chatId) == nil {
		return ErrChatNotFound
	}
	err = self.store.Service().DeleteDocument(self.store.Ctx(), self.store.Paths().UserChatPath(userId, chatId))
	return errors.Wrap(err, "leave chat")
}

func (self *FireStream) AcceptInvitation(invitation *Invitation) error {
	if invitation.InvitationType() != InvitationTypeChat {
		return nil
	}
	chatId, err := invitation.ChatId()
	if err != nil {
		return err
	}
	return self.JoinChat(chatId)
}

// Send writes a sendable to another user's inbox.
func (self *FireStream) Send(toUserId string, sendable *Sendable) (string, error) {
	return self.sendToPath(self.store.Paths().MessagesPath(toUserId), sendable)
}

func (self *FireStream) SendMessageWithText(toUserId string, text string) (string, error) {
	return self.Send(toUserId, NewTextMessage(text).Sendable)
}

func (self *FireStream) SendMessageWithBody(toUserId string, body map[string]any) (string, error) {
	return self.Send(toUserId, NewMessage(body).Sendable)
}

func (self *FireStream) SendTypingIndicator(toUserId string, typingState TypingStateType) (string, error) {
	return self.Send(toUserId, NewTypingState(typingState).Sendable)
}

func (self *FireStream) SendPresence(toUserId string, presenceType PresenceType) (string, error) {
	return self.Send(toUserId, NewPresence(presenceType).Sendable)
}

func (self *FireStream) SendInvitation(toUserId string, invitationType InvitationType, chatId string) (string, error) {
	return self.Send(toUserId, NewInvitation(invitationType, chatId).Sendable)
}

func (self *FireStream) SendDeliveryReceipt(toUserId string, receiptType DeliveryReceiptType, messageId string) (string, error) {
	return self.Send(toUserId, NewDeliveryReceipt(receiptType, messageId).Sendable)
}

// MarkReceived acknowledges delivery to the message's sender.
func (self *FireStream) MarkReceived(message *Message) error {
	_, err := self.SendDeliveryReceipt(message.From, DeliveryReceiptTypeReceived, message.Id)
	return err
}

func (self *FireStream) MarkRead(message *Message) error {
	_, err := self.SendDeliveryReceipt(message.From, DeliveryReceiptTypeRead, message.Id)
	return err
}

// DeleteSendable removes a sendable from the current user's own inbox.
func (self *FireStream) DeleteSendable(sendable *Sendable) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	return self.deleteSendableAtPath(self.store.Paths().MessagePath(userId, sendable.Id))
}

func (self *FireStream) AddContact(user *User, contactType ContactType) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	user.Contact = contactType
	return self.AddUsersAtPath(self.store.Paths().ContactsPath(userId), ContactDataProvider(), []*User{user})
}

func (self *FireStream) RemoveContact(user *User) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	return self.RemoveUsersAtPath(self.store.Paths().ContactsPath(userId), []*User{user})
}

func (self *FireStream) GetContacts() []*User {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	return slices.Clone(self.contacts)
}

func (self *FireStream) Block(user *User) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	return self.AddUsersAtPath(self.store.Paths().BlockedPath(userId), DateDataProvider(self.store), []*User{user})
}

func (self *FireStream) Unblock(user *User) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	return self.RemoveUsersAtPath(self.store.Paths().BlockedPath(userId), []*User{user})
}

func (self *FireStream) GetBlocked() []*User {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	return slices.Clone(self.blocked)
}

func (self *FireStream) IsBlocked(user *User) bool {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	return 0 <= slices.IndexFunc(self.blocked, user.Equals)
}

// Mute silences notifications for a user until the given time. The zero time
// mutes indefinitely.
func (self *FireStream) Mute(user *User, until time.Time) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	data := map[string]any{}
	if until.IsZero() {
		data[KeyDate] = distantFuture
	} else {
		data[KeyDate] = until
	}
	_, err = self.store.Service().WriteDocument(
		self.store.Ctx(),
		self.store.Paths().MutedPath(userId),
		data,
		user.Id,
	)
	return errors.Wrap(err, "mute")
}

func (self *FireStream) Unmute(user *User) error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	err = self.store.Service().DeleteDocument(self.store.Ctx(), self.store.Paths().MutedUserPath(userId, user.Id))
	return errors.Wrap(err, "unmute")
}

func (self *FireStream) IsMuted(user *User) bool {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	until, ok := self.muted[user.Id]
	return ok && time.Now().Before(until)
}

// MutedUntil returns the end of the user's mute window, or false when the
// user is not muted.
func (self *FireStream) MutedUntil(user *User) (time.Time, bool) {
	self.sessionLock.Lock()
	defer self.sessionLock.Unlock()

	until, ok := self.muted[user.Id]
	return until, ok
}

func (self *FireStream) ChatEvents() *rx.MultiQueueSubject[Event[*Chat]] {
	return self.chatEvents
}

func (self *FireStream) ContactEvents() *rx.MultiQueueSubject[Event[*User]] {
	return self.contactEvents
}

func (self *FireStream) BlockedEvents() *rx.MultiQueueSubject[Event[*User]] {
	return self.blockedEvents
}

func (self *FireStream) ConnectionEvents() *rx.Stream[ConnectionEvent] {
	return self.connectionEvents.Observable()
}

// far enough out to behave as "forever" for a mute window
var distantFuture = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)
