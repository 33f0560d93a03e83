package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"matchbot/internal/models"
)

// PendingStore holds posts awaiting a human decision. Absence of an id is a
// normal outcome (stale or duplicate decision control), not an error, so the
// read operations report presence with a bool instead of failing.
type PendingStore interface {
	Put(id string, post *models.PendingPost)
	Get(id string) (*models.PendingPost, bool)
	Remove(id string)
	// Take atomically removes and returns the post. It is the decision
	// handlers' synchronization point: of two concurrent decisions on the
	// same id, exactly one gets the post and the other gets ok=false.
	Take(id string) (*models.PendingPost, bool)
	Len() int
}

type memoryStore struct {
	mu    sync.Mutex
	posts map[string]*models.PendingPost
}

// NewMemoryStore creates the in-memory pending store. State is lost on
// process restart; pending posts have no expiry.
func NewMemoryStore() PendingStore {
	return &memoryStore{
		posts: make(map[string]*models.PendingPost),
	}
}

func (s *memoryStore) Put(id string, post *models.PendingPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[id] = post
}

func (s *memoryStore) Get(id string) (*models.PendingPost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	return post, ok
}

func (s *memoryStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
}

func (s *memoryStore) Take(id string) (*models.PendingPost, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if ok {
		delete(s.posts, id)
	}
	return post, ok
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

var lastID atomic.Int64

// NewID generates a time-ordered post id, unique for the process lifetime.
// Ids are clock-derived; a counter bump covers same-nanosecond calls.
func NewID() string {
	now := time.Now().UnixNano()
	for {
		last := lastID.Load()
		if now <= last {
			now = last + 1
		}
		if lastID.CompareAndSwap(last, now) {
			return fmt.Sprintf("post-%d", now)
		}
	}
}
