package spotting

import (
	"slices"
	"sync"
	"time"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

// MergeResult describes what Merge did with a completed enrichment.
type MergeResult int

const (
	// Inserted means the flight was new and placed in distance order
	Inserted MergeResult = iota

	// Updated means the identifier was present and only its position changed
	Updated

	// Dropped means no reference location was available for ordering
	Dropped

	// Stale means the completion belonged to an earlier cycle and stale
	// discarding is enabled
	Stale
)

func (r MergeResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Dropped:
		return "dropped"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a mutation.
type Event struct {
	Generation uint64
	Len        int
	At         time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStaleGenerationDiscard makes Merge reject completions tagged with a
// generation older than the current one. Without it, late completions from a
// cleared cycle are merged into the current one.
func WithStaleGenerationDiscard() StoreOption {
	return func(s *Store) { s.discardStale = true }
}

// WithClock overrides time.Now for event and update timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store is the position-ordered collection of resolved flights together with
// the per-cycle seen-callsign set. Every mutation happens under one mutex;
// readers get deep copies.
type Store struct {
	mu          sync.Mutex
	flights     []ResolvedFlight
	seen        map[string]struct{}
	generation  uint64
	lastUpdated time.Time

	discardStale bool
	now          func() time.Time

	subscribers map[int]chan Event
	nextSub     int
}

// NewStore creates an empty store at generation 0.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		seen:        make(map[string]struct{}),
		now:         time.Now,
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkSeen records a callsign key for the current cycle. It returns false if
// the key was already seen.
func (s *Store) MarkSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// InsertOrdered places flight before the first entry farther from ref than
// it is, or appends. A nil ref or an identifier already present is a no-op.
func (s *Store) InsertOrdered(flight ResolvedFlight, ref *coordinates.Geographic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref == nil || s.indexLocked(flight.Identifier) >= 0 {
		return false
	}
	s.insertLocked(flight, *ref)
	return true
}

// UpdatePosition replaces only the position of identifier, keeping its index.
func (s *Store) UpdatePosition(identifier string, pos *coordinates.Geographic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(identifier)
	if i < 0 {
		return false
	}
	s.setPositionLocked(i, pos)
	return true
}

// Merge atomically inserts flight or, if its identifier is present, updates
// the existing entry's position. gen is the generation the enrichment was
// dispatched in.
func (s *Store) Merge(gen uint64, flight ResolvedFlight, ref *coordinates.Geographic) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discardStale && gen != s.generation {
		return Stale
	}
	if i := s.indexLocked(flight.Identifier); i >= 0 {
		s.setPositionLocked(i, flight.Position)
		return Updated
	}
	if ref == nil {
		return Dropped
	}
	s.insertLocked(flight, *ref)
	return Inserted
}

// RemoveAll clears the flights and the seen set and starts a new generation,
// which it returns.
func (s *Store) RemoveAll() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights = nil
	clear(s.seen)
	s.generation++
	s.notifyLocked()
	return s.generation
}

// Snapshot returns a deep copy of the ordered collection.
func (s *Store) Snapshot() []ResolvedFlight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ResolvedFlight, len(s.flights))
	for i, f := range s.flights {
		out[i] = f.Clone()
	}
	return out
}

// Get returns a copy of the flight with identifier.
func (s *Store) Get(identifier string) (ResolvedFlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(identifier)
	if i < 0 {
		return ResolvedFlight{}, false
	}
	return s.flights[i].Clone(), true
}

// Len returns the number of flights.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flights)
}

// Generation returns the current cycle number.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LastUpdated returns the time the last refresh or tracking cycle finished.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// MarkUpdated stamps the last-updated time. The fetcher calls it once per
// cycle regardless of feed outcome, so it records when the list was last
// rebuilt, not that the feed returned data.
func (s *Store) MarkUpdated(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdated = t
	s.notifyLocked()
}

// Subscribe returns a channel that receives an Event after mutations. The
// channel holds at most one pending event; a slow reader only sees the latest.
// cancel closes the channel.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 1)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) indexLocked(identifier string) int {
	return slices.IndexFunc(s.flights, func(f ResolvedFlight) bool {
		return f.Identifier == identifier
	})
}

func (s *Store) insertLocked(flight ResolvedFlight, ref coordinates.Geographic) {
	d := flight.DistanceFrom(ref)
	at := len(s.flights)
	for i, f := range s.flights {
		if f.DistanceFrom(ref) > d {
			at = i
			break
		}
	}
	s.flights = slices.Insert(s.flights, at, flight.Clone())
	s.notifyLocked()
}

// setPositionLocked keeps the old position when pos is nil.
func (s *Store) setPositionLocked(i int, pos *coordinates.Geographic) {
	if pos == nil {
		return
	}
	p := *pos
	s.flights[i].Position = &p
	s.notifyLocked()
}

func (s *Store) notifyLocked() {
	ev := Event{Generation: s.generation, Len: len(s.flights), At: s.now()}
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
