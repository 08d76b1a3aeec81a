// Package records implements synchronous CRUD over the structured
// entities (users, decks, themes, flashcards, study sessions, share
// codes) kept in the kvstore document, and coordinates the media
// migration work those records trigger.
//
// Operations that touch media enqueue the blob work on an internal
// wait group instead of racing silently: the entity returned by a
// create or update call may still carry its inline media form, and
// Flush blocks until every in-flight media job has landed, at which
// point re-reading the record observes the migrated reference.
package records

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/kvstore"
)

// Collection keys in the kvstore document.
const (
	ColUsers      = "users"
	ColDecks      = "decks"
	ColThemes     = "themes"
	ColFlashcards = "flashcards"
	ColSessions   = "studySessions"
	ColShareCodes = "shareCodes"
	keySession    = "sessionId"
)

var (
	// ErrNotFound is returned when a record id resolves to nothing.
	ErrNotFound = errors.New("records: not found")
	// ErrNotAuthenticated is returned by operations that need an
	// active session when there is none.
	ErrNotAuthenticated = errors.New("records: not authenticated")
)

// Notifier receives user-visible outcome messages. The store calls it
// and never depends on the result; the UI binds it to its toast sink.
type Notifier interface {
	Notify(level, message string)
}

// nopNotifier drops every message.
type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

// Store is the record store. All entity CRUD goes through it.
type Store struct {
	kv     *kvstore.Store
	media  *blobstore.MediaStore
	log    *zap.Logger
	notify Notifier
	jobs   sync.WaitGroup
}

// New constructs a Store over the given kv document and media store.
func New(kv *kvstore.Store, media *blobstore.MediaStore, log *zap.Logger) *Store {
	return &Store{kv: kv, media: media, log: log, notify: nopNotifier{}}
}

// SetNotifier installs the user-visible message sink.
func (s *Store) SetNotifier(n Notifier) {
	if n != nil {
		s.notify = n
	}
}

// Media exposes the underlying media store.
func (s *Store) Media() *blobstore.MediaStore { return s.media }

// Flush blocks until every media job enqueued by earlier create,
// update or delete calls has completed. Callers that need to observe
// migrated references call Flush before re-reading.
func (s *Store) Flush() { s.jobs.Wait() }

// DocumentSize reports the byte size of the persisted record document.
func (s *Store) DocumentSize() int64 { return s.kv.Size() }

// spawn runs fn on the job group. Failures inside fn are the job's own
// responsibility to log; spawn never propagates them.
func (s *Store) spawn(fn func(ctx context.Context)) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		fn(context.Background())
	}()
}

// newID returns a fresh record identifier.
func newID() string { return uuid.NewString() }

// now returns the current unix-millisecond timestamp.
func now() int64 { return time.Now().UnixMilli() }

// DeleteOutcome classifies the result of a delete.
type DeleteOutcome int

const (
	// DeleteNotFound means no record carried the id.
	DeleteNotFound DeleteOutcome = iota
	// Deleted means the record and all its media are gone.
	Deleted
	// DeletedMediaFailed means the record is gone but at least one
	// owned blob could not be removed; MediaErr holds the detail.
	DeletedMediaFailed
)

// DeleteResult reports how a delete went. The record removal itself is
// never rolled back on media failure; the caller decides whether a
// partial outcome needs surfacing.
type DeleteResult struct {
	Outcome  DeleteOutcome
	MediaErr error
}

// merge folds a media cleanup error into the result.
func (r *DeleteResult) merge(err error) {
	if err == nil {
		return
	}
	r.Outcome = DeletedMediaFailed
	r.MediaErr = errors.Join(r.MediaErr, err)
}
