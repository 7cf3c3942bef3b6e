// Package mca implements a Monte-Carlo Arithmetic backend that interposes
// floating-point add and subtract: when the operands cancel catastrophically
// it perturbs the result with pseudo-random noise at the scale of the lost
// bits, so that repeated runs expose the numerical sensitivity of the host
// program. Multiplication and division pass through untouched.
//
// The lifecycle mirrors what an instrumentation runtime expects: PreInit
// validates the host services and allocates the Context, the flags or
// Configure fill it in, and Init hands back the operation table.
package mca

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/floatscope/cancellation/internal/rng"
)

// PanicFunc is the host-supplied fatal-error handler. It must not return.
type PanicFunc func(msg string)

// Host is the set of primitive services the hosting environment supplies.
// PreInit refuses to continue when any of them is missing.
type Host struct {
	// Exit terminates the process with the given status.
	Exit func(code int)
	// Getenv looks up a process environment variable.
	Getenv func(key string) string
	// Clock supplies wall time, used as the entropy source when no fixed
	// seed is chosen.
	Clock quartz.Clock
}

// SystemHost returns a Host backed by the operating system.
func SystemHost() Host {
	return Host{Exit: os.Exit, Getenv: os.Getenv, Clock: quartz.NewReal()}
}

// Backend is one loaded instance of the cancellation backend: its Context,
// its diagnostic logger, and the per-goroutine noise streams.
type Backend struct {
	ctx  *Context
	log  *log.Logger
	host Host
	rng  *rng.Manager
}

// PreInit validates the host services, builds the diagnostic logger on
// stream, and returns a backend with a default Context. A missing service
// is fatal and reported through panicFn.
func PreInit(stream io.Writer, panicFn PanicFunc, host Host) *Backend {
	if panicFn == nil {
		panic("cancellation backend error: no panic handler supplied")
	}
	for _, svc := range []struct {
		name string
		ok   bool
	}{
		{"exit", host.Exit != nil},
		{"getenv", host.Getenv != nil},
		{"clock", host.Clock != nil},
	} {
		if !svc.ok {
			panicFn("cancellation backend error: " + svc.name + " not implemented")
			panic("cancellation backend error: panic handler returned")
		}
	}

	logger := log.NewWithOptions(stream, log.Options{Prefix: "cancellation"})
	if host.Getenv("CANCELLATION_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	return &Backend{
		ctx:  newContext(),
		log:  logger,
		host: host,
		rng:  rng.NewManager(host.Clock),
	}
}

// Context returns the backend's configuration handle.
func (b *Backend) Context() *Context { return b.ctx }

// Init logs the effective settings and returns the operation table for the
// host runtime. The calling goroutine's stream slot is constructed here;
// seeding stays lazy until the first draw so that late configuration still
// takes effect.
func (b *Backend) Init() Operations {
	b.log.Info("loaded cancellation backend", "tolerance", b.ctx.tolerance)
	b.rng.Prepare()
	return Operations{
		AddFloat32: b.AddFloat32,
		SubFloat32: b.SubFloat32,
		MulFloat32: b.MulFloat32,
		DivFloat32: b.DivFloat32,
		AddFloat64: b.AddFloat64,
		SubFloat64: b.SubFloat64,
		MulFloat64: b.MulFloat64,
		DivFloat64: b.DivFloat64,
		FMAFloat32: b.FMAFloat32,
		FMAFloat64: b.FMAFloat64,
		// Cmp and cast entries stay nil: this backend does not interpose
		// them and the host falls back to plain IEEE behavior.
	}
}

// PushSeed snapshots the calling goroutine's noise stream and redirects it
// to a deterministic seed. A cooperating instrumentation layer uses this to
// draw reproducible values without disturbing the program's stream.
func (b *Backend) PushSeed(seed uint64) {
	b.rng.PushSeed(seed)
}

// PopSeed resumes the stream saved by the last PushSeed, exactly where it
// left off. Calling it without a matching PushSeed is a caller bug; the
// stream is left untouched.
func (b *Backend) PopSeed() {
	b.rng.PopSeed()
}

// Operations is the function table handed to the host instrumentation
// runtime, one entry per interposed operation and width. Nil entries are
// not interposed; the host skips them.
type Operations struct {
	AddFloat32 func(a, b float32) float32
	SubFloat32 func(a, b float32) float32
	MulFloat32 func(a, b float32) float32
	DivFloat32 func(a, b float32) float32
	CmpFloat32 func(a, b float32) int

	AddFloat64 func(a, b float64) float64
	SubFloat64 func(a, b float64) float64
	MulFloat64 func(a, b float64) float64
	DivFloat64 func(a, b float64) float64
	CmpFloat64 func(a, b float64) int

	CastFloat64To32 func(a float64) float32

	FMAFloat32 func(a, b, c float32) float32
	FMAFloat64 func(a, b, c float64) float64
}
