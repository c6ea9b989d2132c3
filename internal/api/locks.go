package api

import (
	"fmt"
	"sync"
)

// chatLocks serializes messages of the same chat. Entries are reference
// counted and dropped once the last holder leaves.
type chatLocks struct {
	mu    sync.Mutex
	locks map[string]*chatLock
}

type chatLock struct {
	sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[string]*chatLock)}
}

// chatKey names the chat a request addresses, or "" for a request that will
// open a new chat.
func chatKey(companyID int64, externalID, chatCode string) string {
	switch {
	case externalID != "":
		return fmt.Sprintf("%d/ext/%s", companyID, externalID)
	case chatCode != "":
		return fmt.Sprintf("%d/code/%s", companyID, chatCode)
	default:
		return ""
	}
}

// acquire locks key and returns the release func. An empty key is not locked.
func (c *chatLocks) acquire(key string) func() {
	if key == "" {
		return func() {}
	}

	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &chatLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

func (c *chatLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
