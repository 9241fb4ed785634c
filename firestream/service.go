package firestream

import (
	"context"
	"time"

	"github.com/firestream/firestream-go/firestream/rx"
)

// Query shapes a listen or a one-shot read over a collection. Documents are
// ordered by their date field; From is an exclusive lower bound and To an
// inclusive upper bound. Equals filters on exact field values.
type Query struct {
	Equals     map[string]any
	From       time.Time
	To         time.Time
	Limit      int
	Descending bool
}

func NewQuery() *Query {
	return &Query{
		Equals: map[string]any{},
	}
}

func (self *Query) Where(field string, value any) *Query {
	self.Equals[field] = value
	return self
}

type WriteOpType int

const (
	WriteOpSet WriteOpType = iota
	WriteOpUpdate
	WriteOpDelete
)

type WriteOp struct {
	Path *Path
	Op   WriteOpType
	Data map[string]any
}

// Service is the interface the core consumes from the remote document
// backend. Implementations: memfire (in-memory reference) and realtime
// (websocket adapter). The wire protocol, indexing and transaction mechanics
// behind these calls are the backend's concern.
type Service interface {
	// ListenOnPath opens a change listener on a collection. Matching existing
	// documents are delivered as Added events on subscribe, later changes as
	// they happen. The listener is torn down by unsubscribing from the
	// returned stream.
	ListenOnPath(path *Path, query *Query) *rx.Stream[*ListEvent]

	// QueryOnce reads a batch of documents matching the query.
	QueryOnce(ctx context.Context, path *Path, query *Query) ([]*ListData, error)

	// WriteDocument creates a document in a collection. An empty docId asks
	// the backend to assign one. Returns the document id.
	WriteDocument(ctx context.Context, path *Path, data map[string]any, docId string) (string, error)

	// UpdateDocument merges the given fields onto a document. Map values are
	// merged one level deep so nested meta fields can be set individually.
	UpdateDocument(ctx context.Context, path *Path, data map[string]any) error

	// BatchWrite applies all operations atomically.
	BatchWrite(ctx context.Context, ops []*WriteOp) error

	DeleteDocument(ctx context.Context, path *Path) error

	// ServerTimestamp returns an opaque sentinel resolved to the server time
	// at write.
	ServerTimestamp() any
}

// Auth provides the identity of the authenticated user.
type Auth interface {
	// returns ErrNotAuthenticated when no user is signed in
	CurrentUserId() (string, error)
}
