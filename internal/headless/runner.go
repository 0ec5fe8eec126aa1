// Package headless runs the timer without a terminal UI: commands arrive as
// lines on an input stream and events are reported through the logger.
package headless

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/metrics"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/timer"
	"golang.org/x/sync/errgroup"
)

// TickSource delivers scheduler ticks tagged with their generation.
type TickSource interface {
	C() <-chan uint64
	Live(gen uint64) bool
}

// Runner is the single goroutine that owns the Machine in headless mode.
type Runner struct {
	machine  *timer.Machine
	settings *settings.Model
	ticks    TickSource
	in       io.Reader
	out      io.Writer
	log      zerolog.Logger
}

func NewRunner(m *timer.Machine, sm *settings.Model, ticks TickSource, in io.Reader, out io.Writer, logger zerolog.Logger) *Runner {
	return &Runner{
		machine:  m,
		settings: sm,
		ticks:    ticks,
		in:       in,
		out:      out,
		log:      logger.With().Str("component", "headless").Logger(),
	}
}

// Run processes ticks and commands until ctx is cancelled or a quit command
// is read. End of input does not stop the timer.
func (r *Runner) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	r.log.Info().Msg("Headless timer ready. Commands: start, pause, toggle, skip, reset, clear, status, set key=value, quit")
	r.machine.Publish()

	for {
		select {
		case <-ctx.Done():
			r.machine.Pause()
			return nil
		case gen := <-r.ticks.C():
			if r.ticks.Live(gen) {
				r.machine.Tick(ctx)
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if r.handle(ctx, line) {
				r.machine.Pause()
				return nil
			}
		}
	}
}

// handle runs one command and reports whether it was quit.
func (r *Runner) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		r.machine.Start()
	case "pause":
		r.machine.Pause()
	case "toggle", "t":
		r.machine.Toggle()
	case "skip", "n":
		r.machine.Skip(ctx)
	case "reset", "r":
		r.machine.Reset()
	case "clear":
		if err := r.machine.ClearStatistics(ctx); err != nil {
			r.log.Warn().Err(err).Msg("Statistics cleared in memory only")
		}
	case "status", "s":
		r.printStatus()
	case "set":
		r.set(ctx, fields[1:])
	case "quit", "q", "exit":
		return true
	default:
		r.log.Warn().Str("command", fields[0]).Msg("Unknown command")
	}
	return false
}

func (r *Runner) set(ctx context.Context, args []string) {
	p := settings.Patch{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			r.log.Warn().Str("arg", arg).Msg("Expected key=value")
			continue
		}
		p[k] = v
	}
	if len(p) == 0 {
		return
	}
	if err := p.Check(); err != nil {
		fmt.Fprintf(r.out, "rejected: %s\n", strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if _, err := r.settings.Update(ctx, p); err != nil {
		r.log.Warn().Err(err).Msg("Settings applied in memory only")
	}
}

func (r *Runner) printStatus() {
	st := r.machine.State()
	state := "paused"
	if st.Running {
		state = "running"
	}
	fmt.Fprintf(r.out, "%s %s %s, %d sessions today, %d until long break\n",
		st.Phase.Title(), st.Clock(), state,
		st.CompletedSessionsToday,
		r.machine.Settings().LongBreakInterval-st.SessionsUntilLongBreak)
}

// Serve runs r and, when srv is non-nil, the metrics server alongside it.
// Both stop when either returns.
func Serve(ctx context.Context, r *Runner, srv *metrics.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.Run(ctx)
	})
	if srv != nil {
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}
	return g.Wait()
}
