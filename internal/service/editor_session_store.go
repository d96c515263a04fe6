package service

import (
	"sync"
	"time"

	"github.com/noah-isme/teacher-schedule-api/internal/grid"
)

// editorSession is the server-side editing state of one teacher's schedule.
type editorSession struct {
	// saveMu serialises saves; mu guards everything below it.
	saveMu sync.Mutex

	mu            sync.Mutex
	schedule      *grid.Schedule
	institutionID string
	lastSeen      time.Time
	lastSavedAt   *time.Time
}

// sessionStore keeps editing sessions keyed by teacher with an idle TTL.
type sessionStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*editorSession
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]*editorSession),
	}
}

// Get returns a live session and refreshes its idle timer.
func (s *sessionStore) Get(teacherID string) (*editorSession, bool) {
	s.mu.RLock()
	sess, ok := s.items[teacherID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := s.now()
	sess.mu.Lock()
	expired := now.Sub(sess.lastSeen) > s.ttl
	if !expired {
		sess.lastSeen = now
	}
	sess.mu.Unlock()
	if expired {
		s.deleteIf(teacherID, sess)
		return nil, false
	}
	return sess, true
}

// PutIfAbsent stores sess unless another live session for the teacher won the
// race, in which case that one is returned.
func (s *sessionStore) PutIfAbsent(teacherID string, sess *editorSession) *editorSession {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[teacherID]; ok {
		existing.mu.Lock()
		live := now.Sub(existing.lastSeen) <= s.ttl
		if live {
			existing.lastSeen = now
		}
		existing.mu.Unlock()
		if live {
			return existing
		}
	}
	sess.lastSeen = now
	s.items[teacherID] = sess
	return sess
}

// Sweep evicts idle sessions and returns the teachers whose unsaved edits were
// dropped.
func (s *sessionStore) Sweep() (evicted int, dirty []string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for teacherID, sess := range s.items {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen) > s.ttl
		isDirty := idle && sess.schedule.Dirty()
		sess.mu.Unlock()
		if !idle {
			continue
		}
		delete(s.items, teacherID)
		evicted++
		if isDirty {
			dirty = append(dirty, teacherID)
		}
	}
	return evicted, dirty
}

// Len returns the number of stored sessions, live or not yet swept.
func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *sessionStore) deleteIf(teacherID string, sess *editorSession) {
	s.mu.Lock()
	if current, ok := s.items[teacherID]; ok && current == sess {
		delete(s.items, teacherID)
	}
	s.mu.Unlock()
}
