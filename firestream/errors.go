package firestream

import (
	"errors"
	"fmt"
)

var (
	// no authenticated user when one is required
	ErrNotAuthenticated = errors.New("user is not authenticated")

	ErrInvalidPath = errors.New("path components may only contain letters, numbers and underscore")

	ErrChatNotFound = errors.New("chat not found")

	// an owner cannot leave while other members remain
	ErrGroupNotEmpty = errors.New("remove the other users before you can delete the group")

	ErrNullMessageId = errors.New("the backend did not return a message id")
)

// PermissionError reports a role-gated mutation attempted without a
// sufficient role. The check fails before any backend write.
type PermissionError struct {
	Required RoleType
}

func (self *PermissionError) Error() string {
	return fmt.Sprintf("%s permission required", self.Required)
}

func ownerPermissionRequired() error {
	return &PermissionError{Required: RoleTypeOwner}
}

func adminPermissionRequired() error {
	return &PermissionError{Required: RoleTypeAdmin}
}

func memberPermissionRequired() error {
	return &PermissionError{Required: RoleTypeMember}
}
