package firestream

// Stable backend-facing field and collection names.
const (
	KeyType     = "type"
	KeyFrom     = "from"
	KeyDate     = "date"
	KeyBody     = "body"
	KeyName     = "name"
	KeyImageURL = "image-url"
	KeyCreated  = "created"
	KeyRole     = "role"
	KeyData     = "data"

	KeyUsers    = "users"
	KeyMessages = "messages"
	KeyContacts = "contacts"
	KeyBlocked  = "blocked"
	KeyChats    = "chats"
	KeyMeta     = "meta"
	KeyMuted    = "muted"
)
