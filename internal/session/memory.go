package session

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is the in-process fallback used while Redis is unreachable. Each
// entry carries its own expiry; expired entries are dropped when read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Set(key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(ttl)}
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Extend pushes the expiry of a live entry to ttl from now. Expired entries
// are removed instead of revived.
func (m *Memory) Extend(key string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return
	}
	now := m.now()
	if !now.Before(e.expiresAt) {
		delete(m.entries, key)
		return
	}
	e.expiresAt = now.Add(ttl)
	m.entries[key] = e
}

// Keys returns the live keys with the given prefix in sorted order.
func (m *Memory) Keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	keys := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && now.Before(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Entry is a live fallback entry with its remaining lifetime.
type Entry struct {
	Key  string
	Data []byte
	TTL  time.Duration
}

// Entries returns the live entries with the given prefix, sorted by key.
func (m *Memory) Entries(prefix string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var out []Entry
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && now.Before(e.expiresAt) {
			out = append(out, Entry{Key: k, Data: e.data, TTL: e.expiresAt.Sub(now)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CompareAndDelete removes key only while it still holds data.
func (m *Memory) CompareAndDelete(key string, data []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !bytes.Equal(e.data, data) {
		return false
	}
	delete(m.entries, key)
	return true
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
