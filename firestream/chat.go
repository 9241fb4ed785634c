package firestream

import (
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/firestream/firestream-go/firestream/rx"
)

// Chat is a connected view of one group chat: the message pipeline from
// AbstractChat plus a live roster and reconciled metadata.
type Chat struct {
	AbstractChat

	id     string
	joined time.Time

	rosterLock sync.Mutex
	users      []*User
	meta       *Meta

	userEvents       *rx.MultiQueueSubject[Event[*User]]
	nameEvents       *rx.BehaviorSubject[string]
	imageURLEvents   *rx.BehaviorSubject[string]
	customDataEvents *rx.BehaviorSubject[map[string]any]
}

func NewChat(store *Store, id string) *Chat {
	return NewChatWithJoined(store, id, time.Time{})
}

func NewChatWithJoined(store *Store, id string, joined time.Time) *Chat {
	chat := &Chat{
		AbstractChat:     newAbstractChat(store),
		id:               id,
		joined:           joined,
		meta:             &Meta{},
		userEvents:       rx.NewMultiQueueSubject[Event[*User]](),
		nameEvents:       rx.NewBehaviorSubject[string](),
		imageURLEvents:   rx.NewBehaviorSubject[string](),
		customDataEvents: rx.NewBehaviorSubject[map[string]any](),
	}
	chat.messagesPath = func() (*Path, error) {
		return store.Paths().ChatMessagesPath(id), nil
	}
	chat.listenSince = chat.watermarkDate
	return chat
}

// ChatFromListEvent reconstructs a chat from a change on the user's chats
// list. The joined date is taken from the entry when present.
func ChatFromListEvent(store *Store, listEvent *ListEvent) Event[*Chat] {
	joined := time.Time{}
	entry := &struct {
		Date time.Time `json:"date"`
	}{}
	if err := decodeRawMap(listEvent.Data, entry); err == nil {
		joined = entry.Date
	}
	return NewEvent(listEvent.EventType, NewChatWithJoined(store, listEvent.Id, joined))
}

// CreateChat writes the chat document and adds the initial members in one
// batch, with the caller as owner. If adding members fails after the document
// write, the error is returned and the orphaned document is left behind; a
// retry creates a fresh chat.
func CreateChat(store *Store, name string, imageURL string, customData map[string]any, users []*User) (*Chat, error) {
	userId, err := store.CurrentUserId()
	if err != nil {
		return nil, err
	}

	meta := NewMeta(name, imageURL, customData)
	chatId, err := store.Service().WriteDocument(
		store.Ctx(),
		store.Paths().ChatsPath(),
		meta.ToData(store.Timestamp(), true),
		"",
	)
	if err != nil {
		return nil, errors.Wrap(err, "create chat")
	}

	glog.V(2).Infof("[chat]created %s\n", chatId)

	chat := NewChat(store, chatId)
	chat.meta = meta.Copy()

	members := []*User{NewUserWithRole(userId, RoleTypeOwner)}
	for _, user := range users {
		if user.Id != userId {
			members = append(members, user)
		}
	}
	if err := chat.AddUsers(true, members); err != nil {
		return nil, errors.Wrap(err, "add members")
	}
	return chat, nil
}

// Connect starts the roster listener, the meta listener and the automatic
// delivery receipts, then opens the message pipeline.
func (self *Chat) Connect() error {
	glog.V(2).Infof("[chat]connect %s\n", self.id)

	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}

	// tear down a prior connection before wiring the roster, meta and receipt
	// listeners, or a re-entrant connect would wipe them
	self.prepareConnect()

	self.listChangeOn(
		self.store.Paths().ChatUsersPath(self.id),
		self.onUserListEvent,
		func(err error) {
			self.events.errors.Next(err)
			self.userEvents.Error(err)
		},
	)

	self.listChangeOn(
		self.store.Paths().ChatPath(self.id),
		self.onMetaListEvent,
		func(err error) {
			self.events.errors.Next(err)
		},
	)

	if self.store.Config().DeliveryReceiptsEnabled {
		receive := CombineFilters(
			ByEventType[*Message](EventTypeAdded),
			NotFromMe[*Message](userId),
			MarkReceived[Event[*Message]](self.store.Config()),
		)
		subscription := self.events.Messages().AllEvents().Filter(receive).Subscribe(func(event Event[*Message]) {
			if err := self.MarkReceived(event.Get()); err != nil {
				self.events.errors.Next(err)
			}
		})
		self.sm.Add(subscription)
	}

	return self.AbstractChat.Connect()
}

// onUserListEvent reconciles the roster. Added upserts by id so a replayed
// add never duplicates an entry, Modified updates the role in place, Removed
// filters the entry out.
func (self *Chat) onUserListEvent(listEvent *ListEvent) {
	userEvent := UserFromListEvent(listEvent)
	user := userEvent.Get()

	self.rosterLock.Lock()
	switch userEvent.Type() {
	case EventTypeAdded, EventTypeModified:
		if i := slices.IndexFunc(self.users, user.Equals); 0 <= i {
			self.users[i].Role = user.Role
		} else {
			self.users = append(self.users, user)
		}
	case EventTypeRemoved:
		self.users = slices.DeleteFunc(self.users, user.Equals)
	}
	self.rosterLock.Unlock()

	self.userEvents.Next(userEvent)
}

// onMetaListEvent reconciles chat metadata field by field, so a backend write
// that changes only the name fires only the name stream. An identical value
// is never republished.
func (self *Chat) onMetaListEvent(listEvent *ListEvent) {
	if listEvent.EventType == EventTypeRemoved {
		return
	}
	next := MetaFromDocument(listEvent.Data)

	self.rosterLock.Lock()
	nameChanged := next.Name != "" && next.Name != self.meta.Name
	if nameChanged {
		self.meta.Name = next.Name
	}
	imageURLChanged := next.ImageURL != "" && next.ImageURL != self.meta.ImageURL
	if imageURLChanged {
		self.meta.ImageURL = next.ImageURL
	}
	customDataChanged := next.Data != nil && !reflect.DeepEqual(next.Data, self.meta.Data)
	if customDataChanged {
		self.meta.Data = next.Data
	}
	if self.meta.Created.IsZero() {
		self.meta.Created = next.Created
	}
	meta := self.meta.Copy()
	self.rosterLock.Unlock()

	if nameChanged {
		self.nameEvents.Next(meta.Name)
	}
	if imageURLChanged {
		self.imageURLEvents.Next(meta.ImageURL)
	}
	if customDataChanged {
		self.customDataEvents.Next(meta.Data)
	}
}

func (self *Chat) Id() string {
	return self.id
}

func (self *Chat) Joined() time.Time {
	return self.joined
}

func (self *Chat) GetName() string {
	self.rosterLock.Lock()
	defer self.rosterLock.Unlock()

	return self.meta.Name
}

func (self *Chat) GetImageURL() string {
	self.rosterLock.Lock()
	defer self.rosterLock.Unlock()

	return self.meta.ImageURL
}

func (self *Chat) GetCustomData() map[string]any {
	self.rosterLock.Lock()
	defer self.rosterLock.Unlock()

	return self.meta.Copy().Data
}

// SetName writes the new name. Admin permission. Setting the current name is
// a no-op.
func (self *Chat) SetName(name string) error {
	if err := self.testPermission(RoleTypeAdmin); err != nil {
		return err
	}
	if self.GetName() == name {
		return nil
	}
	err := self.store.Service().UpdateDocument(
		self.store.Ctx(),
		self.store.Paths().ChatPath(self.id),
		map[string]any{KeyMeta: map[string]any{KeyName: name}},
	)
	if err != nil {
		return errors.Wrap(err, "set name")
	}
	self.rosterLock.Lock()
	self.meta.Name = name
	self.rosterLock.Unlock()
	return nil
}

func (self *Chat) SetImageURL(imageURL string) error {
	if err := self.testPermission(RoleTypeAdmin); err != nil {
		return err
	}
	if self.GetImageURL() == imageURL {
		return nil
	}
	err := self.store.Service().UpdateDocument(
		self.store.Ctx(),
		self.store.Paths().ChatPath(self.id),
		map[string]any{KeyMeta: map[string]any{KeyImageURL: imageURL}},
	)
	if err != nil {
		return errors.Wrap(err, "set image url")
	}
	self.rosterLock.Lock()
	self.meta.ImageURL = imageURL
	self.rosterLock.Unlock()
	return nil
}

func (self *Chat) SetCustomData(data map[string]any) error {
	if err := self.testPermission(RoleTypeAdmin); err != nil {
		return err
	}
	err := self.store.Service().UpdateDocument(
		self.store.Ctx(),
		self.store.Paths().ChatPath(self.id),
		map[string]any{KeyMeta: map[string]any{KeyData: data}},
	)
	if err != nil {
		return errors.Wrap(err, "set custom data")
	}
	self.rosterLock.Lock()
	self.meta.Data = data
	self.rosterLock.Unlock()
	return nil
}

func (self *Chat) GetUsers() []*User {
	self.rosterLock.Lock()
	defer self.rosterLock.Unlock()

	return slices.Clone(self.users)
}

func (self *Chat) GetUsersForRoleType(role RoleType) []*User {
	matching := []*User{}
	for _, user := range self.GetUsers() {
		if user.Role == role {
			matching = append(matching, user)
		}
	}
	return matching
}

// GetRoleType reads the user's role from the live roster.
func (self *Chat) GetRoleType(user *User) RoleType {
	self.rosterLock.Lock()
	defer self.rosterLock.Unlock()

	if i := slices.IndexFunc(self.users, user.Equals); 0 <= i {
		return self.users[i].Role
	}
	return RoleTypeNone
}

func (self *Chat) GetMyRoleType() (RoleType, error) {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return RoleTypeNone, err
	}
	return self.GetRoleType(NewUser(userId)), nil
}

// GetAvailableRoles lists the roles the current user may assign to the given
// user. Only an owner can grant ownership.
func (self *Chat) GetAvailableRoles(user *User) []RoleType {
	myRole, err := self.GetMyRoleType()
	if err != nil {
		return []RoleType{}
	}
	if myRole == RoleTypeOwner && !self.isMe(user) {
		return AllRolesExcluding()
	}
	if myRole == RoleTypeAdmin && !self.isMe(user) && !RoleTypeAdmin.Test(self.GetRoleType(user)) {
		return AllRolesExcluding(RoleTypeOwner)
	}
	return []RoleType{}
}

// SetRole reassigns a user's role. Granting or revoking ownership requires
// owner, everything else admin. A user cannot change their own role.
func (self *Chat) SetRole(user *User, role RoleType) error {
	if self.isMe(user) {
		return adminPermissionRequired()
	}
	required := RoleTypeAdmin
	if role == RoleTypeOwner || self.GetRoleType(user) == RoleTypeOwner {
		required = RoleTypeOwner
	}
	if err := self.testPermission(required); err != nil {
		return err
	}
	user.Role = role
	return self.UpdateUser(user)
}

func (self *Chat) AddUser(sendInvite bool, user *User) error {
	return self.AddUsers(sendInvite, []*User{user})
}

// AddUsers writes the roster entries in one batch and optionally invites the
// new members.
func (self *Chat) AddUsers(sendInvite bool, users []*User) error {
	err := self.AddUsersAtPath(self.store.Paths().ChatUsersPath(self.id), RoleDataProvider(), users)
	if err != nil {
		return err
	}
	if sendInvite {
		return self.InviteUsers(users)
	}
	return nil
}

func (self *Chat) UpdateUser(user *User) error {
	return self.UpdateUsers([]*User{user})
}

func (self *Chat) UpdateUsers(users []*User) error {
	return self.UpdateUsersAtPath(self.store.Paths().ChatUsersPath(self.id), RoleDataProvider(), users)
}

func (self *Chat) RemoveUser(user *User) error {
	return self.RemoveUsers([]*User{user})
}

func (self *Chat) RemoveUsers(users []*User) error {
	return self.RemoveUsersAtPath(self.store.Paths().ChatUsersPath(self.id), users)
}

// InviteUsers sends a chat invitation to each user's inbox. The current user
// never invites themselves.
func (self *Chat) InviteUsers(users []*User) error {
	for _, user := range users {
		if self.isMe(user) {
			continue
		}
		invitation := NewInvitation(InvitationTypeChat, self.id)
		_, err := self.sendToPath(self.store.Paths().MessagesPath(user.Id), invitation.Sendable)
		if err != nil {
			return errors.Wrap(err, "invite")
		}
	}
	return nil
}

// Send writes a sendable to the chat's message collection. Member permission.
func (self *Chat) Send(sendable *Sendable) (string, error) {
	if err := self.testPermission(RoleTypeMember); err != nil {
		return "", err
	}
	return self.sendToPath(self.store.Paths().ChatMessagesPath(self.id), sendable)
}

func (self *Chat) SendMessageWithText(text string) (string, error) {
	return self.Send(NewTextMessage(text).Sendable)
}

func (self *Chat) SendMessageWithBody(body map[string]any) (string, error) {
	return self.Send(NewMessage(body).Sendable)
}

func (self *Chat) SendTypingIndicator(typingState TypingStateType) (string, error) {
	return self.Send(NewTypingState(typingState).Sendable)
}

func (self *Chat) SendDeliveryReceipt(receiptType DeliveryReceiptType, messageId string) (string, error) {
	return self.Send(NewDeliveryReceipt(receiptType, messageId).Sendable)
}

func (self *Chat) MarkReceived(message *Message) error {
	_, err := self.SendDeliveryReceipt(DeliveryReceiptTypeReceived, message.Id)
	return err
}

func (self *Chat) MarkRead(message *Message) error {
	_, err := self.SendDeliveryReceipt(DeliveryReceiptTypeRead, message.Id)
	return err
}

// DeleteSendable removes a sendable from the chat's message collection.
func (self *Chat) DeleteSendable(sendable *Sendable) error {
	return self.deleteSendableAtPath(self.store.Paths().ChatMessagePath(self.id, sendable.Id))
}

// Leave removes the current user from the roster and disconnects. An owner
// can only leave an otherwise empty chat, in which case the chat document is
// deleted.
func (self *Chat) Leave() error {
	userId, err := self.store.CurrentUserId()
	if err != nil {
		return err
	}
	myRole := self.GetRoleType(NewUser(userId))
	if myRole == RoleTypeOwner {
		if 1 < len(self.GetUsers()) {
			return ErrGroupNotEmpty
		}
		if err := self.Delete(); err != nil {
			return err
		}
		self.Disconnect()
		return nil
	}
	if err := self.RemoveUser(NewUser(userId)); err != nil {
		return err
	}
	self.Disconnect()
	return nil
}

// Delete removes the chat document. The roster and messages become orphaned
// subcollections cleaned up by the backend.
func (self *Chat) Delete() error {
	return self.store.Service().DeleteDocument(self.store.Ctx(), self.store.Paths().ChatPath(self.id))
}

func (self *Chat) UserEvents() *rx.MultiQueueSubject[Event[*User]] {
	return self.userEvents
}

func (self *Chat) NameEvents() *rx.Stream[string] {
	return self.nameEvents.Observable()
}

func (self *Chat) ImageURLEvents() *rx.Stream[string] {
	return self.imageURLEvents.Observable()
}

func (self *Chat) CustomDataEvents() *rx.Stream[map[string]any] {
	return self.customDataEvents.Observable()
}

func (self *Chat) isMe(user *User) bool {
	userId, err := self.store.CurrentUserId()
	return err == nil && user.Id == userId
}

func (self *Chat) testPermission(required RoleType) error {
	myRole, err := self.GetMyRoleType()
	if err != nil {
		return err
	}
	if required.Test(myRole) {
		return nil
	}
	switch required {
	case RoleTypeOwner:
		return ownerPermissionRequired()
	case RoleTypeMember:
		return memberPermissionRequired()
	default:
		return adminPermissionRequired()
	}
}
