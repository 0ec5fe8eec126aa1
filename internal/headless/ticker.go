package headless

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ticker is a timer.Scheduler backed by a gocron duration job. Each Start
// begins a new generation; ticks from older generations are reported as
// stale by Live so a stopped schedule can never advance the timer.
type Ticker struct {
	scheduler gocron.Scheduler
	log       zerolog.Logger
	ticks     chan uint64

	mu    sync.Mutex
	gen   uint64
	job   uuid.UUID
	armed bool
}

func NewTicker(logger zerolog.Logger) (*Ticker, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s.Start()

	return &Ticker{
		scheduler: s,
		log:       logger.With().Str("component", "ticker").Logger(),
		ticks:     make(chan uint64, 1),
	}, nil
}

func (t *Ticker) Start(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked()
	t.gen++
	gen := t.gen

	// Drop a buffered tick of an earlier generation so it cannot crowd out
	// the first tick of this one.
	select {
	case <-t.ticks:
	default:
	}

	job, err := t.scheduler.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(t.fire, gen),
		gocron.WithName("timer-tick"),
	)
	if err != nil {
		t.log.Error().Err(err).Msg("Failed to schedule tick job")
		return
	}
	t.job = job.ID()
	t.armed = true
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked()
	t.gen++
}

func (t *Ticker) removeLocked() {
	if !t.armed {
		return
	}
	if err := t.scheduler.RemoveJob(t.job); err != nil {
		t.log.Debug().Err(err).Msg("Tick job already gone")
	}
	t.armed = false
}

// fire never blocks: a tick that finds the buffer full is dropped.
func (t *Ticker) fire(gen uint64) {
	select {
	case t.ticks <- gen:
	default:
	}
}

// C delivers the generation of each tick.
func (t *Ticker) C() <-chan uint64 {
	return t.ticks
}

// Live reports whether gen belongs to the running schedule.
func (t *Ticker) Live(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed && gen == t.gen
}

// Shutdown stops the underlying gocron scheduler.
func (t *Ticker) Shutdown() error {
	t.Stop()
	return t.scheduler.Shutdown()
}
