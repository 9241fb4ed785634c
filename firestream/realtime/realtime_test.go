package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"github.com/firestream/firestream-go/firestream"
)

// gateway is a scripted test server speaking the op protocol over one
// connection.
func gateway(t *testing.T, handle func(conn *websocket.Conn, message *requestMessage)) (*httptest.Server, string) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			message := &requestMessage{}
			if err := conn.ReadJSON(message); err != nil {
				return
			}
			handle(conn, message)
		}
	}))
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	return server, url
}

func TestWriteDocument(t *testing.T) {
	server, url := gateway(t, func(conn *websocket.Conn, message *requestMessage) {
		assert.Equal(t, opWrite, message.Op)
		assert.Equal(t, "root/test/items", message.Path)
		assert.Equal(t, "hello", message.Data["text"])
		conn.WriteJSON(&serverMessage{Id: message.Id, DocId: "doc1"})
	})
	defer server.Close()

	realtime, err := NewRealtimeWithDefaults(context.Background(), url, "test-token")
	assert.Equal(t, nil, err)
	defer realtime.Close()

	docId, err := realtime.WriteDocument(
		context.Background(),
		firestream.NewPath("root/test/items"),
		map[string]any{"text": "hello"},
		"",
	)
	assert.Equal(t, nil, err)
	assert.Equal(t, "doc1", docId)
}

func TestServerError(t *testing.T) {
	server, url := gateway(t, func(conn *websocket.Conn, message *requestMessage) {
		conn.WriteJSON(&serverMessage{Id: message.Id, Error: "permission denied"})
	})
	defer server.Close()

	realtime, err := NewRealtimeWithDefaults(context.Background(), url, "test-token")
	assert.Equal(t, nil, err)
	defer realtime.Close()

	err = realtime.UpdateDocument(
		context.Background(),
		firestream.NewPath("root/test/items/doc1"),
		map[string]any{"text": "nope"},
	)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, true, strings.Contains(err.Error(), "permission denied"))
}

func TestQueryOnce(t *testing.T) {
	server, url := gateway(t, func(conn *websocket.Conn, message *requestMessage) {
		assert.Equal(t, opQuery, message.Op)
		assert.Equal(t, "alice", message.Query.Equals["from"])
		assert.Equal(t, 10, message.Query.Limit)
		conn.WriteJSON(&serverMessage{
			Id: message.Id,
			Documents: []*documentMessage{
				{Id: "d1", Data: map[string]any{"from": "alice"}},
				{Id: "d2", Data: map[string]any{"from": "alice"}},
			},
		})
	})
	defer server.Close()

	realtime, err := NewRealtimeWithDefaults(context.Background(), url, "test-token")
	assert.Equal(t, nil, err)
	defer realtime.Close()

	query := firestream.NewQuery().Where("from", "alice")
	query.Limit = 10
	docs, err := realtime.QueryOnce(context.Background(), firestream.NewPath("root/test/items"), query)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(docs))
	assert.Equal(t, "d1", docs[0].Id)
	assert.Equal(t, "alice", docs[0].Data["from"])
}

func TestListenDeliversEvents(t *testing.T) {
	server, url := gateway(t, func(conn *websocket.Conn, message *requestMessage) {
		switch message.Op {
		case opListen:
			conn.WriteJSON(&serverMessage{Id: message.Id})
			conn.WriteJSON(&serverMessage{
				ListenerId: message.ListenerId,
				Event: &eventMessage{
					Id:   "m1",
					Data: map[string]any{"from": "alice", "type": "message"},
					Type: "added",
				},
			})
			conn.WriteJSON(&serverMessage{
				ListenerId: message.ListenerId,
				Event: &eventMessage{
					Id:   "m1",
					Data: map[string]any{"from": "alice", "type": "message"},
					Type: "removed",
				},
			})
		case opUnlisten:
		}
	})
	defer server.Close()

	realtime, err := NewRealtimeWithDefaults(context.Background(), url, "test-token")
	assert.Equal(t, nil, err)
	defer realtime.Close()

	events := make(chan *firestream.ListEvent, 16)
	subscription := realtime.ListenOnPath(firestream.NewPath("root/test/items"), nil).Subscribe(func(event *firestream.ListEvent) {
		events <- event
	})
	defer subscription.Unsubscribe()

	select {
	case event := <-events:
		assert.Equal(t, "m1", event.Id)
		assert.Equal(t, firestream.EventTypeAdded, event.EventType)
		assert.Equal(t, "alice", event.Get("from"))
	case <-time.After(5 * time.Second):
		t.FailNow()
	}

	select {
	case event := <-events:
		assert.Equal(t, firestream.EventTypeRemoved, event.EventType)
	case <-time.After(5 * time.Second):
		t.FailNow()
	}
}

func TestCloseFailsPending(t *testing.T) {
	server, url := gateway(t, func(conn *websocket.Conn, message *requestMessage) {
		// never answer
	})
	defer server.Close()

	realtime, err := NewRealtimeWithDefaults(context.Background(), url, "test-token")
	assert.Equal(t, nil, err)

	done := make(chan error, 1)
	go func() {
		_, err := realtime.WriteDocument(
			context.Background(),
			firestream.NewPath("root/test/items"),
			map[string]any{"text": "hello"},
			"",
		)
		done <- err
	}()

	// give the request time to register, then drop the connection
	time.Sleep(100 * time.Millisecond)
	realtime.Close()

	select {
	case err := <-done:
		assert.NotEqual(t, nil, err)
	case <-time.After(5 * time.Second):
		t.FailNow()
	}

	// calls after close fail fast
	_, err = realtime.WriteDocument(
		context.Background(),
		firestream.NewPath("root/test/items"),
		map[string]any{},
		"",
	)
	assert.Equal(t, ErrClosed, err)
}

func TestServerTimestampWireForm(t *testing.T) {
	sentinel := (&Realtime{}).ServerTimestamp().(map[string]any)
	assert.Equal(t, "timestamp", sentinel[".sv"])
}
