// Package presence tracks which users are online and where to reach them.
// Entries live only in memory and are lost on restart.
package presence

import (
	"net/netip"
	"sync"
)

// Table maps a logged-in username to the endpoint of its last LOGIN.
// It is safe for concurrent use; the zero value is not, use New.
type Table struct {
	mu    sync.RWMutex
	users map[string]netip.AddrPort
}

func New() *Table {
	return &Table{users: make(map[string]netip.AddrPort)}
}

// Login records endpoint for username, replacing any earlier one.
func (t *Table) Login(username string, endpoint netip.AddrPort) {
	t.mu.Lock()
	t.users[username] = endpoint
	t.mu.Unlock()
}

// Logout removes username. It reports whether an entry was present.
func (t *Table) Logout(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.users[username]; !ok {
		return false
	}
	delete(t.users, username)
	return true
}

// Lookup returns the current endpoint of username.
func (t *Table) Lookup(username string) (netip.AddrPort, bool) {
	t.mu.RLock()
	ep, ok := t.users[username]
	t.mu.RUnlock()
	return ep, ok
}

// Len returns the number of online users.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}
