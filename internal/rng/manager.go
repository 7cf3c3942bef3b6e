package rng

import (
	"sync"

	"github.com/coder/quartz"
)

// Manager owns one Stream per goroutine. Each slot is created and seeded by
// its owning goroutine and never touched by any other, so the draw path
// needs no locking; the registry itself is a sync.Map keyed by goroutine ID,
// which stays lock-free for the read-mostly access pattern here.
//
// A slot also carries the single saved-state snapshot used by PushSeed and
// PopSeed: an external caller can redirect this goroutine's stream to a
// fixed seed and later resume the original sequence exactly where it
// stopped.
type Manager struct {
	clock quartz.Clock
	slots sync.Map // goroutine ID -> *slot
}

type slot struct {
	live   Stream
	seeded bool

	saved       Stream
	savedSeeded bool
	hasSaved    bool
}

// NewManager returns a Manager that reads the given clock when it needs
// wall-clock entropy for self-seeding. A nil clock means the real one.
func NewManager(clock quartz.Clock) *Manager {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Manager{clock: clock}
}

// current returns the calling goroutine's slot, creating it on first use.
func (m *Manager) current() *slot {
	id := goroutineID()
	if v, ok := m.slots.Load(id); ok {
		return v.(*slot)
	}
	s := &slot{}
	m.slots.Store(id, s)
	return s
}

// Prepare constructs the calling goroutine's slot without seeding it.
// Seeding stays lazy until the first draw so that configuration applied
// after backend init still takes effect.
func (m *Manager) Prepare() {
	m.current()
}

// Draw returns one uniform float64 in [0,1) from the calling goroutine's
// stream. On the first draw in a goroutine the stream is seeded: with seed
// when chooseSeed is set, otherwise from wall-clock nanoseconds mixed with
// the goroutine ID so concurrent first draws diverge. Redundant calls after
// initialization are cheap.
func (m *Manager) Draw(chooseSeed bool, seed uint64) float64 {
	s := m.current()
	if !s.seeded {
		if !chooseSeed {
			seed = uint64(m.clock.Now().UnixNano()) ^ mix(goroutineID())
		}
		s.live.Reseed(seed)
		s.seeded = true
	}
	return s.live.Float64()
}

// PushSeed snapshots the calling goroutine's stream into the saved slot,
// overwriting any previous snapshot, then reseeds the live stream
// deterministically.
func (m *Manager) PushSeed(seed uint64) {
	s := m.current()
	s.saved, s.savedSeeded, s.hasSaved = s.live, s.seeded, true
	s.live.Reseed(seed)
	s.seeded = true
}

// PopSeed restores the stream saved by the last PushSeed. Without a prior
// push it leaves the live stream untouched; pairing pushes and pops is the
// caller's responsibility.
func (m *Manager) PopSeed() {
	s := m.current()
	if !s.hasSaved {
		return
	}
	s.live, s.seeded = s.saved, s.savedSeeded
	s.hasSaved = false
}
