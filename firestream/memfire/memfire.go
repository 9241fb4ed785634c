// Package memfire is an in-memory document backend implementing the service
// interface the core consumes. Listener dispatch is synchronous, so a write
// returns only after every matching listener has observed it. It backs the
// test suite and the local demo.
package memfire

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/firestream/firestream-go/firestream"
	"github.com/firestream/firestream-go/firestream/rx"
)

var ErrDocumentNotFound = errors.New("document does not exist")

// serverTimestampSentinel marks a field to be stamped with the backend clock
// at write.
type serverTimestampSentinel struct{}

type listener struct {
	path  string
	query *firestream.Query
	// when set, only changes to this document are delivered
	docId   string
	subject *rx.ReplaySubject[*firestream.ListEvent]
}

// Fire holds the document tree. Collections are keyed by their full path
// string, documents by id within a collection.
type Fire struct {
	stateLock   sync.Mutex
	collections map[string]map[string]map[string]any
	listeners   map[*listener]bool
	lastNow     time.Time
}

func New() *Fire {
	return &Fire{
		collections: map[string]map[string]map[string]any{},
		listeners:   map[*listener]bool{},
	}
}

// ListenOnPath opens a listener on a collection, or on a single document when
// the path addresses one.
func (self *Fire) ListenOnPath(path *firestream.Path, query *firestream.Query) *rx.Stream[*firestream.ListEvent] {
	collectionPath := path.String()
	docId := ""
	if path.IsDocument() {
		collectionPath = path.Parent().String()
		docId = path.Last()
	}
	entry := &listener{
		path:    collectionPath,
		query:   query,
		docId:   docId,
		subject: rx.NewReplaySubject[*firestream.ListEvent](),
	}

	self.stateLock.Lock()
	existing := self.matchingDocuments(collectionPath, query)
	if docId != "" {
		existing = slices.DeleteFunc(existing, func(doc *firestream.ListData) bool {
			return doc.Id != docId
		})
	}
	self.listeners[entry] = true
	self.stateLock.Unlock()

	glog.V(2).Infof("[memfire]listen %s replay=%d\n", path, len(existing))
	for _, doc := range existing {
		entry.subject.Next(firestream.NewListEvent(doc.Id, doc.Data, firestream.EventTypeAdded))
	}

	return entry.subject.Observable().WithTeardown(func() {
		self.stateLock.Lock()
		delete(self.listeners, entry)
		self.stateLock.Unlock()
	})
}

func (self *Fire) QueryOnce(ctx context.Context, path *firestream.Path, query *firestream.Query) ([]*firestream.ListData, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.matchingDocuments(path.String(), query), nil
}

func (self *Fire) WriteDocument(ctx context.Context, path *firestream.Path, data map[string]any, docId string) (string, error) {
	if path.IsDocument() {
		return "", firestream.ErrInvalidPath
	}

	self.stateLock.Lock()
	if docId == "" {
		// ulids are ordered by create time
		docId = ulid.Make().String()
	}
	collection := self.collection(path.String())
	_, exists := collection[docId]
	resolved := self.resolveTimestamps(data)
	collection[docId] = resolved
	eventType := firestream.EventTypeAdded
	if exists {
		eventType = firestream.EventTypeModified
	}
	targets := self.listenersFor(path.String(), docId, resolved)
	self.stateLock.Unlock()

	self.dispatch(targets, docId, resolved, eventType)
	return docId, nil
}

func (self *Fire) UpdateDocument(ctx context.Context, path *firestream.Path, data map[string]any) error {
	if !path.IsDocument() {
		return firestream.ErrInvalidPath
	}
	collectionPath := path.Parent().String()
	docId := path.Last()

	self.stateLock.Lock()
	collection := self.collection(collectionPath)
	doc, exists := collection[docId]
	if !exists {
		self.stateLock.Unlock()
		return errors.Wrapf(ErrDocumentNotFound, "%s", path)
	}
	merged := mergeOneLevel(doc, self.resolveTimestamps(data))
	collection[docId] = merged
	targets := self.listenersFor(collectionPath, docId, merged)
	self.stateLock.Unlock()

	self.dispatch(targets, docId, merged, firestream.EventTypeModified)
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is a no-op,
// so consume-and-delete pipelines can re-observe without failing.
func (self *Fire) DeleteDocument(ctx context.Context, path *firestream.Path) error {
	if !path.IsDocument() {
		return firestream.ErrInvalidPath
	}
	collectionPath := path.Parent().String()
	docId := path.Last()

	self.stateLock.Lock()
	collection := self.collection(collectionPath)
	doc, exists := collection[docId]
	if !exists {
		self.stateLock.Unlock()
		return nil
	}
	delete(collection, docId)
	targets := self.listenersFor(collectionPath, docId, doc)
	self.stateLock.Unlock()

	self.dispatch(targets, docId, doc, firestream.EventTypeRemoved)
	return nil
}

// BatchWrite applies all operations atomically: every operation is validated
// before any document changes, and listeners observe the batch only after the
// whole tree mutation.
func (self *Fire) BatchWrite(ctx context.Context, ops []*firestream.WriteOp) error {
	type pending struct {
		targets   []*listener
		docId     string
		data      map[string]any
		eventType firestream.EventType
	}

	self.stateLock.Lock()
	for _, op := range ops {
		if !op.Path.IsDocument() {
			self.stateLock.Unlock()
			return firestream.ErrInvalidPath
		}
		if op.Op == firestream.WriteOpUpdate {
			if _, exists := self.collection(op.Path.Parent().String())[op.Path.Last()]; !exists {
				self.stateLock.Unlock()
				return errors.Wrapf(ErrDocumentNotFound, "%s", op.Path)
			}
		}
	}

	pendings := []*pending{}
	for _, op := range ops {
		collectionPath := op.Path.Parent().String()
		docId := op.Path.Last()
		collection := self.collection(collectionPath)
		switch op.Op {
		case firestream.WriteOpSet:
			_, exists := collection[docId]
			resolved := self.resolveTimestamps(op.Data)
			collection[docId] = resolved
			eventType := firestream.EventTypeAdded
			if exists {
				eventType = firestream.EventTypeModified
			}
			pendings = append(pendings, &pending{
				targets:   self.listenersFor(collectionPath, docId, resolved),
				docId:     docId,
				data:      resolved,
				eventType: eventType,
			})
		case firestream.WriteOpUpdate:
			merged := mergeOneLevel(collection[docId], self.resolveTimestamps(op.Data))
			collection[docId] = merged
			pendings = append(pendings, &pending{
				targets:   self.listenersFor(collectionPath, docId, merged),
				docId:     docId,
				data:      merged,
				eventType: firestream.EventTypeModified,
			})
		case firestream.WriteOpDelete:
			doc, exists := collection[docId]
			if !exists {
				continue
			}
			delete(collection, docId)
			pendings = append(pendings, &pending{
				targets:   self.listenersFor(collectionPath, docId, doc),
				docId:     docId,
				data:      doc,
				eventType: firestream.EventTypeRemoved,
			})
		}
	}
	self.stateLock.Unlock()

	for _, p := range pendings {
		self.dispatch(p.targets, p.docId, p.data, p.eventType)
	}
	return nil
}

func (self *Fire) ServerTimestamp() any {
	return serverTimestampSentinel{}
}

// caller must hold stateLock
func (self *Fire) collection(path string) map[string]map[string]any {
	collection, ok := self.collections[path]
	if !ok {
		collection = map[string]map[string]any{}
		self.collections[path] = collection
	}
	return collection
}

// caller must hold stateLock. Matching documents are returned ascending by
// date; a limit keeps the most recent entries of the window unless the query
// is descending, in which case the order is reversed and the limit keeps the
// head.
func (self *Fire) matchingDocuments(path string, query *firestream.Query) []*firestream.ListData {
	matching := []*firestream.ListData{}
	for docId, doc := range self.collections[path] {
		if matchesQuery(doc, query) {
			matching = append(matching, firestream.NewListData(docId, maps.Clone(doc)))
		}
	}
	sortByDate(matching)
	if query != nil && 0 < query.Limit && query.Limit < len(matching) {
		matching = matching[len(matching)-query.Limit:]
	}
	if query != nil && query.Descending {
		slices.Reverse(matching)
	}
	return matching
}

// caller must hold stateLock
func (self *Fire) listenersFor(path string, docId string, data map[string]any) []*listener {
	targets := []*listener{}
	for entry := range self.listeners {
		if entry.path != path {
			continue
		}
		if entry.docId != "" && entry.docId != docId {
			continue
		}
		if matchesQuery(data, entry.query) {
			targets = append(targets, entry)
		}
	}
	return targets
}

// dispatch runs outside stateLock. A handler is free to write back into the
// store; the nested dispatch completes before the outer one returns.
func (self *Fire) dispatch(targets []*listener, docId string, data map[string]any, eventType firestream.EventType) {
	for _, entry := range targets {
		entry.subject.Next(firestream.NewListEvent(docId, maps.Clone(data), eventType))
	}
}

// resolveTimestamps clones the document and replaces every server-timestamp
// sentinel with a strictly increasing backend time, recursing into nested
// maps. Strict monotonicity keeps the date ordering total even when writes
// land within one clock tick.
func (self *Fire) resolveTimestamps(data map[string]any) map[string]any {
	now := self.nextNow()
	return resolveTimestampsAt(data, now)
}

// caller must hold stateLock
func (self *Fire) nextNow() time.Time {
	now := time.Now()
	if !now.After(self.lastNow) {
		now = self.lastNow.Add(time.Microsecond)
	}
	self.lastNow = now
	return now
}

func resolveTimestampsAt(data map[string]any, now time.Time) map[string]any {
	resolved := map[string]any{}
	for key, value := range data {
		switch v := value.(type) {
		case serverTimestampSentinel:
			resolved[key] = now
		case map[string]any:
			resolved[key] = resolveTimestampsAt(v, now)
		default:
			resolved[key] = value
		}
	}
	return resolved
}

// mergeOneLevel merges update onto doc. Top-level map values merge key by
// key so nested meta fields can be set individually; everything else
// replaces.
func mergeOneLevel(doc map[string]any, update map[string]any) map[string]any {
	merged := maps.Clone(doc)
	for key, value := range update {
		nested, updateIsMap := value.(map[string]any)
		existing, docIsMap := merged[key].(map[string]any)
		if updateIsMap && docIsMap {
			combined := maps.Clone(existing)
			maps.Copy(combined, nested)
			merged[key] = combined
		} else {
			merged[key] = value
		}
	}
	return merged
}

func matchesQuery(doc map[string]any, query *firestream.Query) bool {
	if query == nil {
		return true
	}
	for field, value := range query.Equals {
		if doc[field] != value {
			return false
		}
	}
	if !query.From.IsZero() || !query.To.IsZero() {
		date, ok := doc[firestream.KeyDate].(time.Time)
		if !ok {
			return false
		}
		if !query.From.IsZero() && !date.After(query.From) {
			return false
		}
		if !query.To.IsZero() && date.After(query.To) {
			return false
		}
	}
	return true
}

// sortByDate orders ascending by the date field, ties broken by id. Ulid ids
// are ordered by create time, so dateless documents still sort sensibly.
func sortByDate(docs []*firestream.ListData) {
	date := func(doc *firestream.ListData) time.Time {
		if d, ok := doc.Get(firestream.KeyDate).(time.Time); ok {
			return d
		}
		return time.Time{}
	}
	slices.SortStableFunc(docs, func(a *firestream.ListData, b *firestream.ListData) int {
		if c := date(a).Compare(date(b)); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
}
