package automation

import (
	"sync"
	"time"
)

// debouncer runs at most one pending task per key. A new Schedule for a key
// cancels the pending task and restarts the window.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	running sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, pending: make(map[string]*time.Timer)}
}

func (d *debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.pending[key]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A timer replaced after it already fired must not run.
		if d.pending[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.running.Add(1)
		d.mu.Unlock()

		defer d.running.Done()
		fn()
	})
	d.pending[key] = t
}

// Pending returns the number of scheduled tasks.
func (d *debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels pending tasks and blocks until running ones return. Later
// Schedule calls are ignored.
func (d *debouncer) Stop() {
	d.mu.Lock()
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
	d.stopped = true
	d.mu.Unlock()

	d.running.Wait()
}

// keyedMutex serializes work per key; distinct keys do not block each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
