package credentials

import (
	"sync"
)

// Swapper is a Store whose updates can be made conditional on what it holds.
// The renewal flow uses it so a renewal that settles after a logout or a new
// login cannot overwrite or clear the newer state.
type Swapper interface {
	Store
	// CompareAndSave stores next only if the store still holds old. It reports
	// whether next replaced old; err is set when persisting it failed.
	CompareAndSave(old, next Pair) (bool, error)
	// CompareAndClear empties the store only if it still holds old.
	CompareAndClear(old Pair) (bool, error)
}

// Guarded returns store as a Swapper, wrapping it in a Guard unless it already
// is one. Every component writing the credentials must share the result.
func Guarded(store Store) Swapper {
	if sw, ok := store.(Swapper); ok {
		return sw
	}
	return NewGuard(store)
}

var _ Swapper = (*Guard)(nil)

// Guard serializes access to a backend Store and keeps the current pair in
// memory. A pair swapped in by CompareAndSave stays in use for this process
// even if writing it to the backend fails, since the refresh credential it
// replaced has already been spent.
type Guard struct {
	backend Store

	lock   sync.Mutex
	pair   Pair
	set    bool
	loaded bool
}

func NewGuard(backend Store) *Guard {
	return &Guard{backend: backend}
}

func (g *Guard) loadLocked() {
	if !g.loaded {
		g.pair, g.set = g.backend.Load()
		g.loaded = true
	}
}

func (g *Guard) Load() (Pair, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.loadLocked()
	if !g.set {
		return Pair{}, false
	}
	return g.pair, true
}

// Save replaces the pair. The in-memory copy only changes once the backend
// accepted it.
func (g *Guard) Save(pair Pair) error {
	if err := CheckPair(pair); err != nil {
		return err
	}
	g.lock.Lock()
	defer g.lock.Unlock()

	if err := g.backend.Save(pair); err != nil {
		return err
	}
	g.pair, g.set, g.loaded = pair, true, true
	return nil
}

func (g *Guard) Clear() error {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.pair, g.set, g.loaded = Pair{}, false, true
	return g.backend.Clear()
}

func (g *Guard) CompareAndSave(old, next Pair) (bool, error) {
	if err := CheckPair(next); err != nil {
		return false, err
	}
	g.lock.Lock()
	defer g.lock.Unlock()

	g.loadLocked()
	if !g.set || g.pair != old {
		return false, nil
	}
	g.pair = next
	return true, g.backend.Save(next)
}

func (g *Guard) CompareAndClear(old Pair) (bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.loadLocked()
	if !g.set || g.pair != old {
		return false, nil
	}
	g.pair, g.set = Pair{}, false
	return true, g.backend.Clear()
}
