package memstore

import (
	"sync"

	"github.com/jrsteele09/agent-console/credentials"
)

var _ credentials.Swapper = (*MemStore)(nil)

// MemStore keeps the credential pair in process memory. It does not survive a
// restart and is used in tests and with CREDENTIAL_STORE=memory.
type MemStore struct {
	pair credentials.Pair
	set  bool
	lock sync.RWMutex
}

func New() *MemStore {
	return &MemStore{}
}

// NewWithPair returns a store already holding pair.
func NewWithPair(pair credentials.Pair) *MemStore {
	return &MemStore{pair: pair, set: pair.Valid()}
}

func (m *MemStore) Save(pair credentials.Pair) error {
	if err := credentials.CheckPair(pair); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()

	m.pair = pair
	m.set = true
	return nil
}

func (m *MemStore) Load() (credentials.Pair, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if !m.set {
		return credentials.Pair{}, false
	}
	return m.pair, true
}

func (m *MemStore) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.pair = credentials.Pair{}
	m.set = false
	return nil
}

func (m *MemStore) CompareAndSave(old, next credentials.Pair) (bool, error) {
	if err := credentials.CheckPair(next); err != nil {
		return false, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.set || m.pair != old {
		return false, nil
	}
	m.pair = next
	return true, nil
}

func (m *MemStore) CompareAndClear(old credentials.Pair) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.set || m.pair != old {
		return false, nil
	}
	m.pair = credentials.Pair{}
	m.set = false
	return true, nil
}
