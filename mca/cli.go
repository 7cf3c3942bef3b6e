package mca

import (
	"github.com/alecthomas/kong"
)

// backendFlags mirrors the options the backend accepts from the host's
// command line. Pointer fields distinguish "not given" from zero values so
// that absent flags never clobber earlier configuration.
type backendFlags struct {
	Tolerance *int    `help:"Select tolerance (TOLERANCE >= 0)." placeholder:"TOLERANCE"`
	Warning   bool    `help:"Enable warning for cancellations."`
	Seed      *uint64 `help:"Fix the random generator seed." placeholder:"SEED"`
}

// CLI parses backend arguments (--tolerance, --warning, --seed) into the
// Context. args carries the flags only, without a program name. Invalid
// values are reported through the logger and the corresponding field keeps
// its previous value; valid fields still apply.
func (b *Backend) CLI(args []string) {
	var flags backendFlags
	parser, err := kong.New(&flags,
		kong.Name("cancellation"),
		kong.Description("Monte-Carlo Arithmetic cancellation backend options"),
		kong.Exit(b.host.Exit),
	)
	if err != nil {
		b.log.Error("cannot build backend option parser", "err", err)
		return
	}
	if _, err := parser.Parse(args); err != nil {
		b.log.Error("invalid backend options ignored", "err", err)
		return
	}

	if flags.Tolerance != nil {
		if err := b.ctx.SetTolerance(*flags.Tolerance); err != nil {
			b.log.Error("--tolerance invalid value provided, must be a positive integer", "err", err)
		}
	}
	if flags.Warning {
		b.ctx.SetWarning(true)
	}
	if flags.Seed != nil {
		b.ctx.SetSeed(*flags.Seed)
	}
}
