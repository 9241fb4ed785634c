// Package realtime adapts a websocket document gateway to the service
// interface the core consumes. The gateway speaks a small JSON op protocol:
// requests carry a uuid and are answered with a response frame bearing the
// same uuid, listener events arrive unsolicited tagged with their listener
// id.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/firestream/firestream-go/firestream"
	"github.com/firestream/firestream-go/firestream/rx"
)

var ErrClosed = errors.New("realtime connection closed")

type RealtimeSettings struct {
	WsHandshakeTimeout time.Duration
	RequestTimeout     time.Duration
	WriteTimeout       time.Duration
	PingTimeout        time.Duration
}

func DefaultRealtimeSettings() *RealtimeSettings {
	return &RealtimeSettings{
		WsHandshakeTimeout: 2 * time.Second,
		RequestTimeout:     10 * time.Second,
		WriteTimeout:       5 * time.Second,
		PingTimeout:        15 * time.Second,
	}
}

const (
	opListen   = "listen"
	opUnlisten = "unlisten"
	opQuery    = "query"
	opWrite    = "write"
	opUpdate   = "update"
	opBatch    = "batch"
	opDelete   = "delete"
)

// serverTimestampSentinel is the wire form of the server-timestamp sentinel.
func serverTimestampSentinel() map[string]any {
	return map[string]any{
		".sv": "timestamp",
	}
}

type queryMessage struct {
	Equals     map[string]any `json:"equals,omitempty"`
	From       *time.Time     `json:"from,omitempty"`
	To         *time.Time     `json:"to,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Descending bool           `json:"descending,omitempty"`
}

func toQueryMessage(query *firestream.Query) *queryMessage {
	if query == nil {
		return nil
	}
	message := &queryMessage{
		Equals:     query.Equals,
		Limit:      query.Limit,
		Descending: query.Descending,
	}
	if !query.From.IsZero() {
		from := query.From
		message.From = &from
	}
	if !query.To.IsZero() {
		to := query.To
		message.To = &to
	}
	return message
}

type batchOpMessage struct {
	Path string         `json:"path"`
	Op   string         `json:"op"`
	Data map[string]any `json:"data,omitempty"`
}

type requestMessage struct {
	Id         string            `json:"id"`
	Op         string            `json:"op"`
	Path       string            `json:"path,omitempty"`
	DocId      string            `json:"docId,omitempty"`
	Data       map[string]any    `json:"data,omitempty"`
	Query      *queryMessage     `json:"query,omitempty"`
	Ops        []*batchOpMessage `json:"ops,omitempty"`
	ListenerId string            `json:"listenerId,omitempty"`
}

type documentMessage struct {
	Id   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type serverMessage struct {
	Id         string             `json:"id,omitempty"`
	Error      string             `json:"error,omitempty"`
	DocId      string             `json:"docId,omitempty"`
	Documents  []*documentMessage `json:"documents,omitempty"`
	ListenerId string             `json:"listenerId,omitempty"`
	Event      *eventMessage      `json:"event,omitempty"`
}

type eventMessage struct {
	Id   string         `json:"id"`
	Data map[string]any `json:"data"`
	Type string         `json:"type"`
}

// Realtime is one authenticated gateway connection. All service calls
// multiplex over it.
type Realtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn *websocket.Conn

	settings *RealtimeSettings

	writeLock sync.Mutex

	stateLock sync.Mutex
	pending   map[string]chan *serverMessage
	listeners map[string]*rx.ReplaySubject[*firestream.ListEvent]
	closed    bool
}

func NewRealtimeWithDefaults(ctx context.Context, url string, authToken string) (*Realtime, error) {
	return NewRealtime(ctx, url, authToken, DefaultRealtimeSettings())
}

func NewRealtime(ctx context.Context, url string, authToken string, settings *RealtimeSettings) (*Realtime, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: settings.WsHandshakeTimeout,
	}
	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, errors.Wrap(err, "dial gateway")
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	realtime := &Realtime{
		ctx:       cancelCtx,
		cancel:    cancel,
		conn:      conn,
		settings:  settings,
		pending:   map[string]chan *serverMessage{},
		listeners: map[string]*rx.ReplaySubject[*firestream.ListEvent]{},
	}
	go realtime.readPump()
	go realtime.pingLoop()
	return realtime, nil
}

func (self *Realtime) readPump() {
	defer self.close(ErrClosed)

	for {
		message := &serverMessage{}
		if err := self.conn.ReadJSON(message); err != nil {
			glog.Infof("[realtime]read error = %s\n", err)
			self.close(errors.Wrap(err, "read"))
			return
		}

		switch {
		case message.Id != "":
			self.stateLock.Lock()
			response, ok := self.pending[message.Id]
			delete(self.pending, message.Id)
			self.stateLock.Unlock()
			if ok {
				response <- message
			}
		case message.ListenerId != "" && message.Event != nil:
			self.stateLock.Lock()
			subject, ok := self.listeners[message.ListenerId]
			self.stateLock.Unlock()
			if ok {
				subject.Next(firestream.NewListEvent(
					message.Event.Id,
					message.Event.Data,
					eventTypeFromWire(message.Event.Type),
				))
			}
		}
	}
}

func (self *Realtime) pingLoop() {
	for {
		select {
		case <-self.ctx.Done():
			return
		case <-time.After(self.settings.PingTimeout):
		}
		self.writeLock.Lock()
		self.conn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
		err := self.conn.WriteMessage(websocket.PingMessage, nil)
		self.writeLock.Unlock()
		if err != nil {
			self.close(errors.Wrap(err, "ping"))
			return
		}
	}
}

// close fails every pending request and terminates every listener stream.
// Idempotent.
func (self *Realtime) close(err error) {
	self.stateLock.Lock()
	if self.closed {
		self.stateLock.Unlock()
		return
	}
	self.closed = true
	pending := self.pending
	listeners := self.listeners
	self.pending = map[string]chan *serverMessage{}
	self.listeners = map[string]*rx.ReplaySubject[*firestream.ListEvent]{}
	self.stateLock.Unlock()

	self.cancel()
	self.conn.Close()
	for _, response := range pending {
		close(response)
	}
	for _, subject := range listeners {
		subject.Error(err)
	}
}

func (self *Realtime) Close() {
	self.close(ErrClosed)
}

func (self *Realtime) request(ctx context.Context, message *requestMessage) (*serverMessage, error) {
	message.Id = uuid.NewString()
	response := make(chan *serverMessage, 1)

	self.stateLock.Lock()
	if self.closed {
		self.stateLock.Unlock()
		return nil, ErrClosed
	}
	self.pending[message.Id] = response
	self.stateLock.Unlock()

	if err := self.send(message); err != nil {
		self.stateLock.Lock()
		delete(self.pending, message.Id)
		self.stateLock.Unlock()
		return nil, err
	}

	select {
	case result, ok := <-response:
		if !ok {
			return nil, ErrClosed
		}
		if result.Error != "" {
			return nil, errors.Errorf("%s: %s", message.Op, result.Error)
		}
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-self.ctx.Done():
		return nil, ErrClosed
	case <-time.After(self.settings.RequestTimeout):
		return nil, errors.Errorf("%s: request timeout", message.Op)
	}
}

func (self *Realtime) send(message *requestMessage) error {
	self.writeLock.Lock()
	defer self.writeLock.Unlock()

	self.conn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	if err := self.conn.WriteJSON(message); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

func (self *Realtime) ListenOnPath(path *firestream.Path, query *firestream.Query) *rx.Stream[*firestream.ListEvent] {
	listenerId := uuid.NewString()
	subject := rx.NewReplaySubject[*firestream.ListEvent]()

	self.stateLock.Lock()
	closed := self.closed
	if !closed {
		self.listeners[listenerId] = subject
	}
	self.stateLock.Unlock()
	if closed {
		subject.Error(ErrClosed)
		return subject.Observable()
	}

	_, err := self.request(self.ctx, &requestMessage{
		Op:         opListen,
		Path:       path.String(),
		Query:      toQueryMessage(query),
		ListenerId: listenerId,
	})
	if err != nil {
		self.stateLock.Lock()
		delete(self.listeners, listenerId)
		self.stateLock.Unlock()
		subject.Error(err)
		return subject.Observable()
	}

	return subject.Observable().WithTeardown(func() {
		self.stateLock.Lock()
		_, ok := self.listeners[listenerId]
		delete(self.listeners, listenerId)
		self.stateLock.Unlock()
		if ok {
			self.send(&requestMessage{
				Id:         uuid.NewString(),
				Op:         opUnlisten,
				ListenerId: listenerId,
			})
		}
	})
}

func (self *Realtime) QueryOnce(ctx context.Context, path *firestream.Path, query *firestream.Query) ([]*firestream.ListData, error) {
	response, err := self.request(ctx, &requestMessage{
		Op:    opQuery,
		Path:  path.String(),
		Query: toQueryMessage(query),
	})
	if err != nil {
		return nil, err
	}
	results := []*firestream.ListData{}
	for _, document := range response.Documents {
		results = append(results, firestream.NewListData(document.Id, document.Data))
	}
	return results, nil
}

func (self *Realtime) WriteDocument(ctx context.Context, path *firestream.Path, data map[string]any, docId string) (string, error) {
	response, err := self.request(ctx, &requestMessage{
		Op:    opWrite,
		Path:  path.String(),
		DocId: docId,
		Data:  data,
	})
	if err != nil {
		return "", err
	}
	return response.DocId, nil
}

func (self *Realtime) UpdateDocument(ctx context.Context, path *firestream.Path, data map[string]any) error {
	_, err := self.request(ctx, &requestMessage{
		Op:   opUpdate,
		Path: path.String(),
		Data: data,
	})
	return err
}

func (self *Realtime) BatchWrite(ctx context.Context, ops []*firestream.WriteOp) error {
	messages := []*batchOpMessage{}
	for _, op := range ops {
		messages = append(messages, &batchOpMessage{
			Path: op.Path.String(),
			Op:   opFromWriteOp(op.Op),
			Data: op.Data,
		})
	}
	_, err := self.request(ctx, &requestMessage{
		Op:  opBatch,
		Ops: messages,
	})
	return err
}

func (self *Realtime) DeleteDocument(ctx context.Context, path *firestream.Path) error {
	_, err := self.request(ctx, &requestMessage{
		Op:   opDelete,
		Path: path.String(),
	})
	return err
}

func (self *Realtime) ServerTimestamp() any {
	return serverTimestampSentinel()
}

func opFromWriteOp(op firestream.WriteOpType) string {
	switch op {
	case firestream.WriteOpUpdate:
		return opUpdate
	case firestream.WriteOpDelete:
		return opDelete
	default:
		return opWrite
	}
}

func eventTypeFromWire(eventType string) firestream.EventType {
	switch eventType {
	case "added":
		return firestream.EventTypeAdded
	case "modified":
		return firestream.EventTypeModified
	case "removed":
		return firestream.EventTypeRemoved
	default:
		return firestream.EventTypeNone
	}
}
