package firestream

import (
	"regexp"
	"time"
)

var pathPartRegex = regexp.MustCompile(`^[0-9A-Za-z_]+$`)

type Config struct {
	// send a delivery receipt automatically when a message is received
	DeliveryReceiptsEnabled bool

	// mark inbound messages received without an explicit call
	AutoMarkReceived bool

	// accept chat invitations automatically
	AutoAcceptChatInvite bool

	// delete every sendable from the inbound queue after it has been
	// observed. Even when disabled, typing state and presence sendables are
	// always deleted since they have no archival value.
	DeleteMessagesOnReceipt bool

	// how many historic messages to retrieve when a listener attaches
	MessageHistoryLimit int

	// when there is no watermark, listen this far back instead of from epoch.
	// Zero means epoch.
	ListenSinceHorizon time.Duration

	// the root of the backend tree, i.e. /{Root}/{Sandbox}/users
	Root    string
	Sandbox string

	DebugEnabled bool
}

func DefaultConfig() *Config {
	return &Config{
		DeliveryReceiptsEnabled: true,
		AutoMarkReceived:        true,
		AutoAcceptChatInvite:    true,
		DeleteMessagesOnReceipt: false,
		MessageHistoryLimit:     100,
		Root:                    "firestream",
		Sandbox:                 "prod",
	}
}

func (self *Config) SetRoot(root string) error {
	if !pathPartRegex.MatchString(root) {
		return ErrInvalidPath
	}
	self.Root = root
	return nil
}

func (self *Config) SetSandbox(sandbox string) error {
	if !pathPartRegex.MatchString(sandbox) {
		return ErrInvalidPath
	}
	self.Sandbox = sandbox
	return nil
}
