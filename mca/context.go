package mca

import "fmt"

// DefaultTolerance is the smallest cancellation, in bits, that triggers
// noise injection unless configured otherwise.
const DefaultTolerance = 1

// Context holds the tunables of one loaded backend instance. During an
// arithmetic call it is a read-only snapshot shared by every goroutine;
// mutate it only between calls (in practice: configure once, before the
// host program starts its workers). The backend takes no locks around it.
type Context struct {
	tolerance  int
	warning    bool
	seed       uint64
	chooseSeed bool
}

func newContext() *Context {
	return &Context{tolerance: DefaultTolerance}
}

// Tolerance returns the configured cancellation threshold in bits.
func (c *Context) Tolerance() int { return c.tolerance }

// Warning reports whether detected cancellations are logged.
func (c *Context) Warning() bool { return c.warning }

// Seed returns the fixed RNG seed and whether one was chosen. Without a
// chosen seed, streams self-seed from wall-clock entropy on first draw.
func (c *Context) Seed() (uint64, bool) { return c.seed, c.chooseSeed }

// SetTolerance sets the cancellation threshold. Negative values are
// rejected and the previous value kept.
func (c *Context) SetTolerance(tolerance int) error {
	if tolerance < 0 {
		return fmt.Errorf("tolerance must be a positive integer, got %d", tolerance)
	}
	c.tolerance = tolerance
	return nil
}

// SetWarning enables or disables the per-cancellation diagnostic.
func (c *Context) SetWarning(warning bool) {
	c.warning = warning
}

// SetSeed fixes the random generator seed. Every goroutine's stream is then
// seeded deterministically from this value on its first draw.
func (c *Context) SetSeed(seed uint64) {
	c.seed = seed
	c.chooseSeed = true
}

// Config is the programmatic equivalent of the command-line flags, for
// hosts that configure the backend without argument parsing.
type Config struct {
	Tolerance int
	Warning   bool
	// Seed, when non-nil, fixes the RNG seed.
	Seed *uint64
}

// Configure applies cfg in bulk. Invalid fields are reported and skipped;
// the remaining fields still apply.
func (b *Backend) Configure(cfg Config) {
	if err := b.ctx.SetTolerance(cfg.Tolerance); err != nil {
		b.log.Error("invalid tolerance ignored", "err", err)
	}
	b.ctx.SetWarning(cfg.Warning)
	if cfg.Seed != nil {
		b.ctx.SetSeed(*cfg.Seed)
	}
}
