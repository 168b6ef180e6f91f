package execution

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// keyLock is a one-slot semaphore shared by every turn waiting on a key.
type keyLock struct {
	slot chan struct{}
	refs int
}

// Manager serializes work per key. Turns for the same conversation wait for
// each other; different conversations run in parallel.
type Manager struct {
	locks map[string]*keyLock
	mutex sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		locks: make(map[string]*keyLock),
	}
}

// Acquire blocks until the key is free or ctx is done. The returned release
// func must be called exactly once; extra calls are ignored.
func (m *Manager) Acquire(ctx context.Context, key string) (func(), error) {
	l := m.ref(key)

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, l)
		log.Info().Str("key", key).Msg("Gave up waiting for previous execution")
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.slot
			m.unref(key, l)
		})
	}, nil
}

// Active returns how many keys currently have a holder or waiters.
func (m *Manager) Active() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.locks)
}

func (m *Manager) ref(key string) *keyLock {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l, exists := m.locks[key]
	if !exists {
		l = &keyLock{slot: make(chan struct{}, 1)}
		m.locks[key] = l
	} else {
		log.Debug().Str("key", key).Msg("Waiting for previous execution on key")
	}
	l.refs++
	return l
}

func (m *Manager) unref(key string, l *keyLock) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l.refs--
	if l.refs == 0 && m.locks[key] == l {
		delete(m.locks, key)
	}
}
