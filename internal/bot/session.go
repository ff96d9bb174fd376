package bot

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long an unfinished conversation is kept.
const DefaultSessionTTL = 10 * time.Minute

// Step is a subscriber's position in the add flow.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingReference
	StepAwaitingInterval
)

func (s Step) String() string {
	switch s {
	case StepAwaitingReference:
		return "awaiting-reference"
	case StepAwaitingInterval:
		return "awaiting-interval"
	default:
		return "idle"
	}
}

// Pending is a validated playlist waiting for an interval choice.
type Pending struct {
	ID    string
	Title string
}

// Session is one subscriber's conversation state.
type Session struct {
	Step      Step
	Pending   *Pending
	UpdatedAt time.Time
}

// Sessions holds per-subscriber conversation state. Entries expire after the TTL.
type Sessions struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[int64]Session
	now func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{ttl: ttl, m: make(map[int64]Session), now: time.Now}
}

// Get returns the live session for a subscriber, or an idle one.
func (s *Sessions) Get(subscriberID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[subscriberID]
	if !ok {
		return Session{Step: StepIdle}
	}
	if s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.m, subscriberID)
		return Session{Step: StepIdle}
	}
	return sess
}

// Set stores a session and drops expired ones.
func (s *Sessions) Set(subscriberID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess.UpdatedAt = now
	s.m[subscriberID] = sess
	for id, other := range s.m {
		if now.Sub(other.UpdatedAt) > s.ttl {
			delete(s.m, id)
		}
	}
}

// Clear resets a subscriber to idle.
func (s *Sessions) Clear(subscriberID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, subscriberID)
}

// Len is the number of stored sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
