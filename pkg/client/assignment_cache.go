package client

import (
	"sync"
	"time"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type assignmentEntry struct {
	items   []models.TutorAssignmentDetail
	expires time.Time
}

// AssignmentCache keeps recently fetched assignment lists per request.
// Every mutation touching a request's assignments drops its entry.
type AssignmentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]assignmentEntry
}

// NewAssignmentCache returns a cache whose entries live for ttl.
func NewAssignmentCache(ttl time.Duration) *AssignmentCache {
	return &AssignmentCache{ttl: ttl, now: time.Now, entries: make(map[string]assignmentEntry)}
}

// Get returns a copy of the fresh list for requestID.
func (c *AssignmentCache) Get(requestID string) ([]models.TutorAssignmentDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[requestID]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, requestID)
		return nil, false
	}
	return append([]models.TutorAssignmentDetail(nil), entry.items...), true
}

// Put stores items for requestID.
func (c *AssignmentCache) Put(requestID string, items []models.TutorAssignmentDetail) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[requestID] = assignmentEntry{
		items:   append([]models.TutorAssignmentDetail(nil), items...),
		expires: c.now().Add(c.ttl),
	}
}

// Invalidate drops the entry for requestID.
func (c *AssignmentCache) Invalidate(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, requestID)
}
