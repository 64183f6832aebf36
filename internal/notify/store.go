// Package notify holds the console's transient user-facing messages.
//
// A single Store is created by the application root and handed to every
// component that needs to tell the operator something. Renderers subscribe to
// it and receive a snapshot of the list after every change.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an auto-expiring notification stays visible.
const DefaultTTL = 5 * time.Second

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// ParseKind maps a free-form string onto a Kind, defaulting to info.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return k
	default:
		return KindInfo
	}
}

// Notification is a single message shown to the operator.
type Notification struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message"`
	AutoExpire bool      `json:"auto_expire"`
	CreatedAt  time.Time `json:"created_at"`
}

// Option customizes a notification passed to Show.
type Option func(*Notification)

// WithTitle sets the notification title.
func WithTitle(title string) Option {
	return func(n *Notification) { n.Title = title }
}

// Sticky keeps the notification until it is dismissed explicitly.
func Sticky() Option {
	return func(n *Notification) { n.AutoExpire = false }
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Observer receives the current list after each change. Observers run
// synchronously and must not call back into the Store.
type Observer func([]Notification)

// Store is a concurrency-safe, insertion-ordered list of notifications.
type Store struct {
	// notifyMu serializes change+broadcast so observers see snapshots in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	items     []Notification
	timers    map[string]Timer
	observers map[int]Observer
	nextObs   int
	closed    bool

	ttl       time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	newID     func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the auto-expiry delay.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithAfterFunc replaces the timer source, mainly for tests.
func WithAfterFunc(fn AfterFunc) StoreOption {
	return func(s *Store) { s.afterFunc = fn }
}

// WithClock replaces the creation-time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		timers:    make(map[string]Timer),
		observers: make(map[int]Observer),
		ttl:       DefaultTTL,
		afterFunc: realAfterFunc,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show appends a notification and returns its id. Auto-expiring entries are
// removed after the store's TTL unless dismissed first.
func (s *Store) Show(kind Kind, message string, opts ...Option) string {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	n := Notification{
		ID:         s.newID(),
		Kind:       kind,
		Message:    message,
		AutoExpire: true,
		CreatedAt:  s.now(),
	}
	for _, opt := range opts {
		opt(&n)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Debug("Notification dropped after close", "kind", kind, "message", message)
		return n.ID
	}
	s.items = append(s.items, n)
	if n.AutoExpire {
		id := n.ID
		s.timers[id] = s.afterFunc(s.ttl, func() { s.expire(id) })
	}
	snapshot, observers := s.snapshotLocked()
	s.mu.Unlock()

	slog.Debug("Notification shown", "id", n.ID, "kind", n.Kind, "auto_expire", n.AutoExpire)
	broadcast(observers, snapshot)
	return n.ID
}

// Success is shorthand for Show(KindSuccess, ...).
func (s *Store) Success(message string, opts ...Option) string {
	return s.Show(KindSuccess, message, opts...)
}

// Error is shorthand for Show(KindError, ...).
func (s *Store) Error(message string, opts ...Option) string {
	return s.Show(KindError, message, opts...)
}

// Warning is shorthand for Show(KindWarning, ...).
func (s *Store) Warning(message string, opts ...Option) string {
	return s.Show(KindWarning, message, opts...)
}

// Info is shorthand for Show(KindInfo, ...).
func (s *Store) Info(message string, opts ...Option) string {
	return s.Show(KindInfo, message, opts...)
}

// Remove dismisses the notification with the given id. It reports whether
// anything was removed; removing an unknown id is a no-op.
func (s *Store) Remove(id string) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	removed := s.removeLocked(id)
	if !removed {
		s.mu.Unlock()
		return false
	}
	snapshot, observers := s.snapshotLocked()
	s.mu.Unlock()

	broadcast(observers, snapshot)
	return true
}

func (s *Store) expire(id string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	delete(s.timers, id)
	if !s.removeLocked(id) {
		s.mu.Unlock()
		return
	}
	snapshot, observers := s.snapshotLocked()
	s.mu.Unlock()

	slog.Debug("Notification expired", "id", id)
	broadcast(observers, snapshot)
}

// List returns a copy of the current notifications in insertion order.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Close cancels every pending expiry. Later calls to Show are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Store) removeLocked(id string) bool {
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) snapshotLocked() ([]Notification, []Observer) {
	if len(s.observers) == 0 {
		return nil, nil
	}
	snapshot := make([]Notification, len(s.items))
	copy(snapshot, s.items)
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	return snapshot, observers
}

func broadcast(observers []Observer, snapshot []Notification) {
	for _, fn := range observers {
		fn(snapshot)
	}
}
