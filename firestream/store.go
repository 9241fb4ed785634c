package firestream

import (
	"context"
)

// Store is the explicit dependency context handed to every chat at creation
// time: configuration, the backend service and the auth provider. There are
// no package-level singletons; one Store per physical backend connection.
type Store struct {
	ctx    context.Context
	cancel context.CancelFunc

	config  *Config
	service Service
	auth    Auth
	paths   *Paths
}

func NewStore(ctx context.Context, config *Config, service Service, auth Auth) *Store {
	cancelCtx, cancel := context.WithCancel(ctx)
	return &Store{
		ctx:     cancelCtx,
		cancel:  cancel,
		config:  config,
		service: service,
		auth:    auth,
		paths:   newPaths(config),
	}
}

func NewStoreWithDefaults(ctx context.Context, service Service, auth Auth) *Store {
	return NewStore(ctx, DefaultConfig(), service, auth)
}

func (self *Store) Ctx() context.Context {
	return self.ctx
}

func (self *Store) Cancel() {
	self.cancel()
}

func (self *Store) Config() *Config {
	return self.config
}

func (self *Store) Service() Service {
	return self.service
}

func (self *Store) Paths() *Paths {
	return self.paths
}

func (self *Store) CurrentUserId() (string, error) {
	return self.auth.CurrentUserId()
}

// Timestamp returns the backend's server-timestamp sentinel.
func (self *Store) Timestamp() any {
	return self.service.ServerTimestamp()
}
