package firestream

// User identifies a chat participant. Identity is the id alone - role and
// contact type are attributes carried for the owning roster, not identity.
type User struct {
	Id      string
	Role    RoleType
	Contact ContactType
}

func NewUser(id string) *User {
	return &User{
		Id: id,
	}
}

func NewUserWithRole(id string, role RoleType) *User {
	return &User{
		Id:   id,
		Role: role,
	}
}

func NewUserWithContact(id string, contact ContactType) *User {
	return &User{
		Id:      id,
		Contact: contact,
	}
}

func (self *User) Equals(user *User) bool {
	return user != nil && self.Id == user.Id
}

// UserFromListEvent reconstructs a roster entry from a generic path change.
// The backend schema carries no explicit discriminator at this level, so the
// variant is decided by which field is present: a role field makes a role
// entry, a type field a contact entry, and neither falls back to a bare
// identity-only user.
func UserFromListEvent(listEvent *ListEvent) Event[*User] {
	if role, ok := listEvent.Get(KeyRole).(string); ok {
		return NewEvent(listEvent.EventType, NewUserWithRole(listEvent.Id, RoleType(role)))
	}
	if contact, ok := listEvent.Get(KeyType).(string); ok {
		return NewEvent(listEvent.EventType, NewUserWithContact(listEvent.Id, ContactType(contact)))
	}
	return NewEvent(listEvent.EventType, NewUser(listEvent.Id))
}

// UserDataProvider extracts the raw map to persist for a user, so one write
// helper can serve the roster, contacts and blocked collections.
type UserDataProvider func(user *User) map[string]any

func RoleDataProvider() UserDataProvider {
	return func(user *User) map[string]any {
		return user.Role.Data()
	}
}

func ContactDataProvider() UserDataProvider {
	return func(user *User) map[string]any {
		return user.Contact.Data()
	}
}

func DateDataProvider(store *Store) UserDataProvider {
	return func(user *User) map[string]any {
		return map[string]any{
			KeyDate: store.Timestamp(),
		}
	}
}
