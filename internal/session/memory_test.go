package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = clock.now
	return m, clock
}

func TestMemory_SetGet(t *testing.T) {
	m, _ := newTestMemory()

	m.Set("a", []byte("one"), time.Minute)

	got, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMemory_ExpiresEntries(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("a", []byte("one"), time.Minute)

	clock.advance(time.Minute)

	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "expired entry is dropped on read")
}

func TestMemory_Extend(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("a", []byte("one"), time.Minute)

	clock.advance(50 * time.Second)
	m.Extend("a", time.Minute)
	clock.advance(50 * time.Second)

	_, ok := m.Get("a")
	assert.True(t, ok)
}

func TestMemory_ExtendDoesNotReviveExpired(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("a", []byte("one"), time.Minute)

	clock.advance(2 * time.Minute)
	m.Extend("a", time.Hour)

	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_KeysAndSweep(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("cv:session:b", []byte("1"), time.Hour)
	m.Set("cv:session:a", []byte("1"), time.Hour)
	m.Set("cv:session:old", []byte("1"), time.Second)
	m.Set("other", []byte("1"), time.Hour)

	clock.advance(time.Minute)

	assert.Equal(t, []string{"cv:session:a", "cv:session:b"}, m.Keys("cv:session:"))
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 3, m.Len())
}

func TestMemory_Delete(t *testing.T) {
	m, _ := newTestMemory()
	m.Set("a", []byte("one"), time.Minute)

	m.Delete("a")
	m.Delete("never-there")

	assert.Equal(t, 0, m.Len())
}

func TestMemory_EntriesAndCompareAndDelete(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("p:b", []byte("two"), time.Hour)
	m.Set("p:a", []byte("one"), time.Minute)
	m.Set("other", []byte("x"), time.Hour)
	clock.advance(30 * time.Second)

	entries := m.Entries("p:")
	if assert.Len(t, entries, 2) {
		assert.Equal(t, Entry{Key: "p:a", Data: []byte("one"), TTL: 30 * time.Second}, entries[0])
		assert.Equal(t, "p:b", entries[1].Key)
	}

	m.Set("p:a", []byte("newer"), time.Minute)
	assert.False(t, m.CompareAndDelete("p:a", []byte("one")))
	assert.True(t, m.CompareAndDelete("p:b", []byte("two")))
	assert.Equal(t, 2, m.Len())
}
