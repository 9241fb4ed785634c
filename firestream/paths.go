package firestream

// Paths derives the well-known backend locations from the configured
// root/sandbox. Methods that address per-user state take the user id
// explicitly so the caller resolves authentication once per operation.
type Paths struct {
	root    string
	sandbox string
}

func newPaths(config *Config) *Paths {
	return &Paths{
		root:    config.Root,
		sandbox: config.Sandbox,
	}
}

func (self *Paths) Root() *Path {
	return NewPath(self.root, self.sandbox)
}

func (self *Paths) UsersPath() *Path {
	return self.Root().Child(KeyUsers)
}

func (self *Paths) UserPath(uid string) *Path {
	return self.UsersPath().Child(uid)
}

func (self *Paths) MessagesPath(uid string) *Path {
	return self.UserPath(uid).Child(KeyMessages)
}

func (self *Paths) MessagePath(uid string, messageId string) *Path {
	return self.MessagesPath(uid).Child(messageId)
}

func (self *Paths) ContactsPath(uid string) *Path {
	return self.UserPath(uid).Child(KeyContacts)
}

func (self *Paths) BlockedPath(uid string) *Path {
	return self.UserPath(uid).Child(KeyBlocked)
}

func (self *Paths) MutedPath(uid string) *Path {
	return self.UserPath(uid).Child(KeyMuted)
}

func (self *Paths) MutedUserPath(uid string, mutedUid string) *Path {
	return self.MutedPath(uid).Child(mutedUid)
}

func (self *Paths) UserChatsPath(uid string) *Path {
	return self.UserPath(uid).Child(KeyChats)
}

func (self *Paths) UserChatPath(uid string, chatId string) *Path {
	return self.UserChatsPath(uid).Child(chatId)
}

func (self *Paths) ChatsPath() *Path {
	return self.Root().Child(KeyChats)
}

func (self *Paths) ChatPath(chatId string) *Path {
	return self.ChatsPath().Child(chatId)
}

func (self *Paths) ChatMessagesPath(chatId string) *Path {
	return self.ChatPath(chatId).Child(KeyMessages)
}

func (self *Paths) ChatMessagePath(chatId string, messageId string) *Path {
	return self.ChatMessagesPath(chatId).Child(messageId)
}

func (self *Paths) ChatUsersPath(chatId string) *Path {
	return self.ChatPath(chatId).Child(KeyUsers)
}
