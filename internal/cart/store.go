// Package cart keeps per-session shopping carts and the rules for changing them.
package cart

import (
	"context" // Context for store operations
	"sort"    // Stable id ordering
	"strconv" // Session id formatting
	"sync"    // Guards the memory store
)

// Items maps product id to a positive quantity
type Items map[uint]int

// ProductIDs returns the product ids in ascending order
func (it Items) ProductIDs() []uint {
	ids := make([]uint, 0, len(it)) // Collected ids
	for id := range it {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] }) // Ascending
	return ids
}

// Count returns the total number of units
func (it Items) Count() int {
	n := 0 // Running total
	for _, qty := range it {
		n += qty
	}
	return n
}

func (it Items) clone() Items {
	out := make(Items, len(it))
	for id, qty := range it {
		out[id] = qty
	}
	return out
}

// Store persists carts keyed by session id. Get on an unknown session
// returns an empty cart, never nil.
type Store interface {
	Get(ctx context.Context, sessionID string) (Items, error)
	Put(ctx context.Context, sessionID string, items Items) error
	Delete(ctx context.Context, sessionID string) error
}

// UserSession returns the cart session id of a logged-in user
func UserSession(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// MemoryStore keeps carts in process memory. Carts are lost on restart and
// are not shared between server instances.
type MemoryStore struct {
	mu    sync.RWMutex     // Guards carts
	carts map[string]Items // Session id to cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Items)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Items, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.carts[sessionID]
	if !ok {
		return Items{}, nil // Unknown session is an empty cart
	}
	return items.clone(), nil // Callers never share the stored map
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, items Items) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(items) == 0 {
		delete(s.carts, sessionID) // Empty carts are not kept
		return nil
	}
	s.carts[sessionID] = items.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
