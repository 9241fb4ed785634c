package firestream_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/firestream/firestream-go/firestream"
	"github.com/firestream/firestream-go/firestream/memfire"
)

func connectSession(t *testing.T, fire *memfire.Fire, userId string) *firestream.FireStream {
	fs := firestream.NewFireStreamWithDefaults(
		context.Background(),
		fire,
		&firestream.StaticAuth{UserId: userId},
	)
	assert.Equal(t, nil, fs.Connect())
	return fs
}

func connectSessionWithConfig(t *testing.T, fire *memfire.Fire, userId string, config *firestream.Config) *firestream.FireStream {
	fs := firestream.NewFireStream(
		context.Background(),
		config,
		fire,
		&firestream.StaticAuth{UserId: userId},
	)
	assert.Equal(t, nil, fs.Connect())
	return fs
}

func TestConnectRequiresAuth(t *testing.T) {
	fire := memfire.New()
	fs := firestream.NewFireStreamWithDefaults(context.Background(), fire, &firestream.StaticAuth{})
	assert.Equal(t, firestream.ErrNotAuthenticated, fs.Connect())
}

func TestConnectionEvents(t *testing.T) {
	fire := memfire.New()
	fs := firestream.NewFireStreamWithDefaults(
		context.Background(),
		fire,
		&firestream.StaticAuth{UserId: "alice"},
	)

	observed := []firestream.ConnectionEventType{}
	fs.ConnectionEvents().Subscribe(func(event firestream.ConnectionEvent) {
		observed = append(observed, event.Type())
	})

	assert.Equal(t, nil, fs.Connect())
	fs.Disconnect()

	assert.Equal(t, []firestream.ConnectionEventType{
		firestream.ConnectionEventTypeWillConnect,
		firestream.ConnectionEventTypeDidConnect,
		firestream.ConnectionEventTypeWillDisconnect,
		firestream.ConnectionEventTypeDidDisconnect,
	}, observed)
}

func TestCreateChatRoster(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat(
		"Test",
		"http://example.com/pic.png",
		map[string]any{"topic": "go"},
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)

	connected := alice.GetChat(chat.Id())
	assert.NotEqual(t, nil, connected)
	assert.Equal(t, "Test", connected.GetName())
	assert.Equal(t, "http://example.com/pic.png", connected.GetImageURL())
	assert.Equal(t, "go", connected.GetCustomData()["topic"])

	assert.Equal(t, 2, len(connected.GetUsers()))
	assert.Equal(t, firestream.RoleTypeOwner, connected.GetRoleType(firestream.NewUser("alice")))
	assert.Equal(t, firestream.RoleTypeMember, connected.GetRoleType(firestream.NewUser("bob")))
	assert.Equal(t, 1, len(connected.GetUsersForRoleType(firestream.RoleTypeOwner)))

	myRole, err := connected.GetMyRoleType()
	assert.Equal(t, nil, err)
	assert.Equal(t, firestream.RoleTypeOwner, myRole)

	// an owner can assign any role to another member
	assert.Equal(t, 5, len(connected.GetAvailableRoles(firestream.NewUser("bob"))))
	// but no role to themselves
	assert.Equal(t, 0, len(connected.GetAvailableRoles(firestream.NewUser("alice"))))
}

func TestSendMessageToChat(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())
	assert.NotEqual(t, nil, connected)

	observed := []*firestream.Message{}
	connected.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		observed = append(observed, event.Get())
	})

	messageId, err := connected.SendMessageWithText("Test")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", messageId)

	// listener dispatch is synchronous, so the cache already holds the
	// message when send returns
	sendables := connected.GetSendables()
	assert.Equal(t, 1, len(sendables))
	assert.Equal(t, messageId, sendables[0].Id)
	assert.Equal(t, "Test", firestream.MessageFromSendable(sendables[0]).Text())

	assert.Equal(t, 1, len(observed))
	assert.Equal(t, "Test", observed[0].Text())

	cached := connected.GetSendable(messageId)
	assert.NotEqual(t, nil, cached)
	assert.Equal(t, 1, len(connected.GetSendablesOfType(firestream.SendableTypeMessage)))
}

func TestRemoveAndReAddUser(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat(
		"Test",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	observed := []firestream.EventType{}
	connected.UserEvents().NewEvents().Subscribe(func(event firestream.Event[*firestream.User]) {
		if event.Get().Id == "bob" {
			observed = append(observed, event.Type())
		}
	})

	assert.Equal(t, nil, connected.RemoveUser(firestream.NewUser("bob")))
	assert.Equal(t, firestream.RoleTypeNone, connected.GetRoleType(firestream.NewUser("bob")))
	assert.Equal(t, 1, len(connected.GetUsers()))

	assert.Equal(t, nil, connected.AddUser(false, firestream.NewUserWithRole("bob", firestream.RoleTypeAdmin)))
	assert.Equal(t, firestream.RoleTypeAdmin, connected.GetRoleType(firestream.NewUser("bob")))
	assert.Equal(t, 2, len(connected.GetUsers()))

	assert.Equal(t, []firestream.EventType{
		firestream.EventTypeRemoved,
		firestream.EventTypeAdded,
	}, observed)
}

func TestRosterUpsertIdempotence(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	// re-adding an existing user must not duplicate the roster entry
	assert.Equal(t, nil, connected.AddUser(false, firestream.NewUserWithRole("bob", firestream.RoleTypeMember)))
	assert.Equal(t, nil, connected.AddUser(false, firestream.NewUserWithRole("bob", firestream.RoleTypeWatcher)))

	assert.Equal(t, 2, len(connected.GetUsers()))
	assert.Equal(t, firestream.RoleTypeWatcher, connected.GetRoleType(firestream.NewUser("bob")))
}

func TestMetaReconciliation(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	names := []string{}
	connected.NameEvents().Subscribe(func(name string) {
		names = append(names, name)
	})
	assert.Equal(t, []string{"Test"}, names)

	// setting the same name publishes nothing
	assert.Equal(t, nil, connected.SetName("Test"))
	assert.Equal(t, []string{"Test"}, names)

	assert.Equal(t, nil, connected.SetName("Other"))
	assert.Equal(t, "Other", connected.GetName())
	assert.Equal(t, []string{"Test", "Other"}, names)

	// a name-only update must not fire the image url stream
	imageURLs := []string{}
	connected.ImageURLEvents().Subscribe(func(imageURL string) {
		imageURLs = append(imageURLs, imageURL)
	})
	assert.Equal(t, nil, connected.SetName("Third"))
	assert.Equal(t, 0, len(imageURLs))

	assert.Equal(t, nil, connected.SetImageURL("http://example.com/pic.png"))
	assert.Equal(t, []string{"http://example.com/pic.png"}, imageURLs)

	assert.Equal(t, nil, connected.SetCustomData(map[string]any{"topic": "go"}))
	assert.Equal(t, "go", connected.GetCustomData()["topic"])
}

func TestInvitationAutoJoin(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	observed := []firestream.EventType{}
	bob.ChatEvents().NewEvents().Subscribe(func(event firestream.Event[*firestream.Chat]) {
		observed = append(observed, event.Type())
	})

	chat, err := alice.CreateChat(
		"Test",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)

	bobChat := bob.GetChat(chat.Id())
	assert.NotEqual(t, nil, bobChat)
	assert.Equal(t, "Test", bobChat.GetName())

	myRole, err := bobChat.GetMyRoleType()
	assert.Equal(t, nil, err)
	assert.Equal(t, firestream.RoleTypeMember, myRole)

	assert.Equal(t, []firestream.EventType{firestream.EventTypeAdded}, observed)
}

func TestChatMessagingBetweenSessions(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	chat, err := alice.CreateChat(
		"Test",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)

	bobChat := bob.GetChat(chat.Id())
	assert.NotEqual(t, nil, bobChat)

	bobMessages := []string{}
	bobChat.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		bobMessages = append(bobMessages, event.Get().Text())
	})

	aliceChat := alice.GetChat(chat.Id())
	_, err = aliceChat.SendMessageWithText("hello bob")
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"hello bob"}, bobMessages)

	// bob acknowledged automatically; alice observes the receipt
	receiptCount := 0
	aliceChat.SendableEvents().DeliveryReceipts().AllEvents().Subscribe(func(event firestream.Event[*firestream.DeliveryReceipt]) {
		if event.TypeIs(firestream.EventTypeAdded) && event.Get().From == "bob" {
			receiptCount += 1
		}
	})
	assert.Equal(t, 1, receiptCount)
}

func TestInboxPolicies(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	receipts := []*firestream.DeliveryReceipt{}
	alice.SendableEvents().DeliveryReceipts().AllEvents().Subscribe(func(event firestream.Event[*firestream.DeliveryReceipt]) {
		receipts = append(receipts, event.Get())
	})

	_, err := alice.SendTypingIndicator("bob", firestream.TypingStateTypeTyping)
	assert.Equal(t, nil, err)
	_, err = alice.SendPresence("bob", firestream.PresenceTypeAvailable)
	assert.Equal(t, nil, err)
	messageId, err := alice.SendMessageWithText("bob", "hello")
	assert.Equal(t, nil, err)

	// bob observed and acknowledged the message
	bobSendables := bob.GetSendablesOfType(firestream.SendableTypeMessage)
	assert.Equal(t, 1, len(bobSendables))
	assert.Equal(t, messageId, bobSendables[0].Id)

	assert.Equal(t, 1, len(receipts))
	assert.Equal(t, "bob", receipts[0].From)
	acknowledgedId, err := receipts[0].MessageId()
	assert.Equal(t, nil, err)
	assert.Equal(t, messageId, acknowledgedId)

	// transient sendables are deleted from the inbox once observed, messages
	// and receipts are kept
	config := firestream.DefaultConfig()
	paths := firestream.NewPath(config.Root, config.Sandbox, "users", "bob", "messages")
	docs, err := fire.QueryOnce(context.Background(), paths, nil)
	assert.Equal(t, nil, err)
	types := map[string]int{}
	for _, doc := range docs {
		docType, _ := doc.GetString(firestream.KeyType)
		types[docType] += 1
	}
	assert.Equal(t, 1, types["message"])
	assert.Equal(t, 0, types["typing"])
	assert.Equal(t, 0, types["presence"])
	// the self receipt that advances the watermark
	assert.Equal(t, 1, types["receipt"])
}

func TestDeleteMessagesOnReceipt(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	config := firestream.DefaultConfig()
	config.DeleteMessagesOnReceipt = true
	bob := connectSessionWithConfig(t, fire, "bob", config)
	defer bob.Disconnect()

	observed := []string{}
	bob.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		if event.TypeIs(firestream.EventTypeAdded) {
			observed = append(observed, event.Get().Text())
		}
	})

	_, err := alice.SendMessageWithText("bob", "ephemeral")
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"ephemeral"}, observed)

	// the inbox is consume-and-delete: nothing remains
	paths := firestream.NewPath(config.Root, config.Sandbox, "users", "bob", "messages")
	docs, err := fire.QueryOnce(context.Background(), paths, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(docs))
}

func TestWatermark(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	bob := connectSession(t, fire, "bob")
	_, err := alice.SendMessageWithText("bob", "before reconnect")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(bob.GetSendablesOfType(firestream.SendableTypeMessage)))
	bob.Disconnect()

	// a fresh session resumes after the watermark and does not re-observe the
	// acknowledged message
	bob2 := connectSession(t, fire, "bob")
	defer bob2.Disconnect()
	assert.Equal(t, 0, len(bob2.GetSendables()))

	_, err = alice.SendMessageWithText("bob", "after reconnect")
	assert.Equal(t, nil, err)
	messages := bob2.GetSendablesOfType(firestream.SendableTypeMessage)
	assert.Equal(t, 1, len(messages))
	assert.Equal(t, "after reconnect", firestream.MessageFromSendable(messages[0]).Text())
}

func TestPermissions(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	chat, err := alice.CreateChat(
		"Test",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)

	bobChat := bob.GetChat(chat.Id())
	assert.NotEqual(t, nil, bobChat)

	// a member cannot rename the chat
	err = bobChat.SetName("hijacked")
	permissionError, ok := err.(*firestream.PermissionError)
	assert.Equal(t, true, ok)
	assert.Equal(t, firestream.RoleTypeAdmin, permissionError.Required)

	// nobody changes their own role
	err = bobChat.SetRole(firestream.NewUser("bob"), firestream.RoleTypeOwner)
	_, ok = err.(*firestream.PermissionError)
	assert.Equal(t, true, ok)

	// a member cannot touch the owner's role
	err = bobChat.SetRole(firestream.NewUser("alice"), firestream.RoleTypeMember)
	_, ok = err.(*firestream.PermissionError)
	assert.Equal(t, true, ok)

	// demote bob to watcher; watchers cannot send
	aliceChat := alice.GetChat(chat.Id())
	assert.Equal(t, nil, aliceChat.SetRole(firestream.NewUser("bob"), firestream.RoleTypeWatcher))
	assert.Equal(t, firestream.RoleTypeWatcher, bobChat.GetRoleType(firestream.NewUser("bob")))

	_, err = bobChat.SendMessageWithText("blocked")
	permissionError, ok = err.(*firestream.PermissionError)
	assert.Equal(t, true, ok)
	assert.Equal(t, firestream.RoleTypeMember, permissionError.Required)
}

func TestLeaveChat(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	chat, err := alice.CreateChat(
		"Test",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	assert.Equal(t, nil, err)

	aliceChat := alice.GetChat(chat.Id())

	// an owner cannot leave while other members remain
	assert.Equal(t, firestream.ErrGroupNotEmpty, aliceChat.Leave())

	assert.Equal(t, nil, bob.LeaveChat(chat.Id()))
	assert.Equal(t, true, bob.GetChat(chat.Id()) == nil)
	assert.Equal(t, firestream.RoleTypeNone, aliceChat.GetRoleType(firestream.NewUser("bob")))

	// leaving again is not a membership
	assert.Equal(t, firestream.ErrChatNotFound, bob.LeaveChat(chat.Id()))

	// with bob gone the owner can leave, deleting the chat document
	assert.Equal(t, 1, len(aliceChat.GetUsers()))
	assert.Equal(t, nil, aliceChat.Leave())
}

func TestContactsAndBlocked(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	contactEvents := []firestream.EventType{}
	alice.ContactEvents().NewEvents().Subscribe(func(event firestream.Event[*firestream.User]) {
		contactEvents = append(contactEvents, event.Type())
	})

	assert.Equal(t, nil, alice.AddContact(firestream.NewUser("bob"), firestream.ContactTypeContact))
	contacts := alice.GetContacts()
	assert.Equal(t, 1, len(contacts))
	assert.Equal(t, "bob", contacts[0].Id)
	assert.Equal(t, firestream.ContactTypeContact, contacts[0].Contact)

	assert.Equal(t, nil, alice.RemoveContact(firestream.NewUser("bob")))
	assert.Equal(t, 0, len(alice.GetContacts()))
	assert.Equal(t, []firestream.EventType{
		firestream.EventTypeAdded,
		firestream.EventTypeRemoved,
	}, contactEvents)

	assert.Equal(t, false, alice.IsBlocked(firestream.NewUser("carol")))
	assert.Equal(t, nil, alice.Block(firestream.NewUser("carol")))
	assert.Equal(t, true, alice.IsBlocked(firestream.NewUser("carol")))
	assert.Equal(t, 1, len(alice.GetBlocked()))
	assert.Equal(t, nil, alice.Unblock(firestream.NewUser("carol")))
	assert.Equal(t, false, alice.IsBlocked(firestream.NewUser("carol")))
}

func TestMute(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	bob := firestream.NewUser("bob")
	assert.Equal(t, false, alice.IsMuted(bob))

	until := time.Now().Add(time.Hour)
	assert.Equal(t, nil, alice.Mute(bob, until))
	assert.Equal(t, true, alice.IsMuted(bob))
	mutedUntil, ok := alice.MutedUntil(bob)
	assert.Equal(t, true, ok)
	assert.Equal(t, until.Unix(), mutedUntil.Unix())

	assert.Equal(t, nil, alice.Unmute(bob))
	assert.Equal(t, false, alice.IsMuted(bob))

	// the zero time mutes indefinitely
	assert.Equal(t, nil, alice.Mute(bob, time.Time{}))
	assert.Equal(t, true, alice.IsMuted(bob))
}

func TestLoadMoreMessages(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	for _, text := range []string{"one", "two", "three"} {
		_, err := connected.SendMessageWithText(text)
		assert.Equal(t, nil, err)
	}

	// the limit keeps the most recent messages of the window, ascending
	sendables, err := connected.LoadMoreMessagesFrom(time.Time{}, 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(sendables))
	assert.Equal(t, "two", firestream.MessageFromSendable(sendables[0]).Text())
	assert.Equal(t, "three", firestream.MessageFromSendable(sendables[1]).Text())

	all, err := connected.LoadMoreMessagesFrom(time.Time{}, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(all))

	// the before variant excludes the pivot date
	before, err := connected.LoadMoreMessagesBefore(all[2].Date, 10)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(before))
}

func TestMessageReplayForLateSubscriber(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	_, err = connected.SendMessageWithText("early")
	assert.Equal(t, nil, err)

	// AllEvents replays history to a late subscriber
	replayed := []string{}
	connected.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		replayed = append(replayed, event.Get().Text())
	})
	assert.Equal(t, []string{"early"}, replayed)

	// NewEvents does not
	fresh := []string{}
	connected.SendableEvents().Messages().NewEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		fresh = append(fresh, event.Get().Text())
	})
	assert.Equal(t, 0, len(fresh))

	_, err = connected.SendMessageWithText("late")
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"early", "late"}, replayed)
	assert.Equal(t, []string{"late"}, fresh)
}

func TestReconnectChatKeepsRoster(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())
	assert.NotEqual(t, nil, connected)
	assert.Equal(t, 1, len(connected.GetUsers()))

	// connecting while connected replaces every listener rather than
	// dropping the ones registered before the message pipeline opens
	assert.Equal(t, nil, connected.Connect())
	assert.Equal(t, true, connected.IsConnected())

	err = connected.AddUser(false, firestream.NewUserWithRole("carol", firestream.RoleTypeMember))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(connected.GetUsers()))
	assert.Equal(t, firestream.RoleTypeMember, connected.GetRoleType(firestream.NewUser("carol")))

	// the message pipeline is alive too
	messageId, err := connected.SendMessageWithText("after reconnect")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, nil, connected.GetSendable(messageId))
}

func TestReconnectSessionKeepsListListeners(t *testing.T) {
	fire := memfire.New()
	bob := connectSession(t, fire, "bob")
	defer bob.Disconnect()

	assert.Equal(t, nil, bob.AddContact(firestream.NewUser("alice"), firestream.ContactTypeContact))
	assert.Equal(t, 1, len(bob.GetContacts()))

	// a re-entrant connect restarts the session: old listeners come down
	// first, then the replay repopulates the lists
	assert.Equal(t, nil, bob.Connect())
	assert.Equal(t, 1, len(bob.GetContacts()))

	assert.Equal(t, nil, bob.AddContact(firestream.NewUser("carol"), firestream.ContactTypeContact))
	assert.Equal(t, 2, len(bob.GetContacts()))

	assert.Equal(t, nil, bob.Block(firestream.NewUser("dave")))
	assert.Equal(t, true, bob.IsBlocked(firestream.NewUser("dave")))
}

func TestDeleteChatMessage(t *testing.T) {
	fire := memfire.New()
	alice := connectSession(t, fire, "alice")
	defer alice.Disconnect()

	chat, err := alice.CreateChat("Test", "", nil, nil)
	assert.Equal(t, nil, err)
	connected := alice.GetChat(chat.Id())

	messageId, err := connected.SendMessageWithText("Test")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(connected.GetSendables()))

	assert.Equal(t, nil, connected.DeleteSendable(connected.GetSendable(messageId)))
	assert.Equal(t, 0, len(connected.GetSendables()))
	assert.Equal(t, true, connected.GetSendable(messageId) == nil)
}
