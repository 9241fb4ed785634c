package firestream

// SendableType tags the payload variant carried by a sendable document.
type SendableType string

const (
	SendableTypeMessage         SendableType = "message"
	SendableTypeDeliveryReceipt SendableType = "receipt"
	SendableTypeTypingState     SendableType = "typing"
	SendableTypePresence        SendableType = "presence"
	SendableTypeInvitation      SendableType = "invitation"
)

// RoleType is a total order over chat membership permission levels. A lower
// level is a stronger role.
type RoleType string

const (
	// full access rights, can add and remove admins
	RoleTypeOwner RoleType = "owner"
	// can change the status of any lower member
	RoleTypeAdmin RoleType = "admin"
	// standard member of the chat, has write access but can't change roles
	RoleTypeMember RoleType = "member"
	// read-only access
	RoleTypeWatcher RoleType = "watcher"
	// cannot access the chat, cannot be added
	RoleTypeBanned RoleType = "banned"
	RoleTypeNone   RoleType = ""
)

func (self RoleType) Level() int {
	switch self {
	case RoleTypeOwner:
		return 0
	case RoleTypeAdmin:
		return 1
	case RoleTypeMember:
		return 2
	case RoleTypeWatcher:
		return 3
	case RoleTypeBanned:
		return 4
	default:
		return 5
	}
}

// Test reports whether a subject holding `subject` meets the `self`
// requirement, i.e. whether the subject's level is at least as strong.
func (self RoleType) Test(subject RoleType) bool {
	return subject.Level() <= self.Level()
}

func (self RoleType) Data() map[string]any {
	return map[string]any{
		KeyRole: string(self),
	}
}

// AllRolesExcluding returns the assignable roles minus the excluded ones.
func AllRolesExcluding(excluded ...RoleType) []RoleType {
	all := []RoleType{
		RoleTypeOwner,
		RoleTypeAdmin,
		RoleTypeMember,
		RoleTypeWatcher,
		RoleTypeBanned,
	}
	roles := []RoleType{}
	for _, role := range all {
		keep := true
		for _, exclude := range excluded {
			if role == exclude {
				keep = false
				break
			}
		}
		if keep {
			roles = append(roles, role)
		}
	}
	return roles
}

// ContactType classifies an entry in the contacts list.
type ContactType string

const (
	ContactTypeContact ContactType = "contact"
	ContactTypeNone    ContactType = ""
)

func (self ContactType) Data() map[string]any {
	return map[string]any{
		KeyType: string(self),
	}
}

// DeliveryReceiptType is the body type of a delivery receipt sendable.
type DeliveryReceiptType string

const (
	DeliveryReceiptTypeReceived DeliveryReceiptType = "received"
	DeliveryReceiptTypeRead     DeliveryReceiptType = "read"
)

// PresenceType is the body type of a presence sendable.
type PresenceType string

const (
	PresenceTypeAvailable    PresenceType = "available"
	PresenceTypeBusy         PresenceType = "busy"
	PresenceTypeUnavailable  PresenceType = "unavailable"
	PresenceTypeExtendedAway PresenceType = "xa"
)

// InvitationType is the body type of an invitation sendable.
type InvitationType string

const (
	InvitationTypeChat InvitationType = "chat"
)

// TypingStateType is the body type of a typing state sendable.
type TypingStateType string

const (
	TypingStateTypeTyping TypingStateType = "typing"
	TypingStateTypeNone   TypingStateType = ""
)
