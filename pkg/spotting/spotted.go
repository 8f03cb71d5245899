package spotting

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// SpottedFlight is a flight the user bookmarked.
type SpottedFlight struct {
	ResolvedFlight
	SpottedAt time.Time `json:"spotted_at"`
}

// SpottedStore persists bookmarked flights, one per identifier.
type SpottedStore interface {
	Add(ctx context.Context, flight ResolvedFlight) error
	Remove(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]SpottedFlight, error)
	Clear(ctx context.Context) error
}

// MemorySpottedStore is a SpottedStore kept in process memory. List returns
// the most recently spotted first.
type MemorySpottedStore struct {
	mu      sync.Mutex
	flights map[string]SpottedFlight
	now     func() time.Time
}

// NewMemorySpottedStore creates an empty store.
func NewMemorySpottedStore() *MemorySpottedStore {
	return &MemorySpottedStore{
		flights: make(map[string]SpottedFlight),
		now:     time.Now,
	}
}

func (m *MemorySpottedStore) Add(_ context.Context, flight ResolvedFlight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := CanonicalIdentifier(flight.Identifier)
	f := flight.Clone()
	f.Identifier = id
	m.flights[id] = SpottedFlight{ResolvedFlight: f, SpottedAt: m.now()}
	return nil
}

func (m *MemorySpottedStore) Remove(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flights, CanonicalIdentifier(identifier))
	return nil
}

func (m *MemorySpottedStore) List(_ context.Context) ([]SpottedFlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SpottedFlight, 0, len(m.flights))
	for _, f := range m.flights {
		out = append(out, SpottedFlight{ResolvedFlight: f.Clone(), SpottedAt: f.SpottedAt})
	}
	slices.SortFunc(out, func(a, b SpottedFlight) int {
		if c := b.SpottedAt.Compare(a.SpottedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return out, nil
}

func (m *MemorySpottedStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.flights)
	return nil
}
