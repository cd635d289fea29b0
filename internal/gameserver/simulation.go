package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/replication"
)

var (
	// ErrUnknownFirearm is returned when a command addresses no spawned firearm.
	ErrUnknownFirearm = errors.New("gameserver: unknown firearm")
	// ErrUnknownCommand is returned for a nil command.
	ErrUnknownCommand = errors.New("gameserver: unknown command")
	// ErrQueueFull is returned when the command queue cannot accept more work
	// before the next tick.
	ErrQueueFull = errors.New("gameserver: command queue full")
)

// Broadcaster carries encoded snapshot payloads to every viewer.
type Broadcaster interface {
	Broadcast(payload []byte)
}

type request struct {
	id  uuid.UUID
	cmd Command
}

// Simulation owns the authoritative firearm states. Commands are queued by
// Submit from any goroutine and executed by Tick on the single simulation
// goroutine, which alone touches firearm state.
type Simulation struct {
	armory   *Armory
	ctrl     *fire.Controller
	codec    *replication.Codec
	exec     fire.Executor
	out      Broadcaster
	logger   *zap.Logger
	interval time.Duration

	queue  chan request
	resync atomic.Bool
	ticks  atomic.Uint64
}

// NewSimulation wires a Simulation.
//
// Precondition: interval must be > 0; buffer must be >= 1; every pointer and
// interface argument must be non-nil.
// Postcondition: Returns a Simulation ready to Start().
func NewSimulation(
	armory *Armory,
	ctrl *fire.Controller,
	codec *replication.Codec,
	exec fire.Executor,
	out Broadcaster,
	interval time.Duration,
	buffer int,
	logger *zap.Logger,
) *Simulation {
	if interval <= 0 {
		panic("gameserver.NewSimulation: interval must be > 0")
	}
	if buffer < 1 {
		panic("gameserver.NewSimulation: buffer must be >= 1")
	}
	if armory == nil || ctrl == nil || codec == nil || exec == nil || out == nil || logger == nil {
		panic("gameserver.NewSimulation: dependencies must not be nil")
	}
	return &Simulation{
		armory:   armory,
		ctrl:     ctrl,
		codec:    codec,
		exec:     exec,
		out:      out,
		logger:   logger,
		interval: interval,
		queue:    make(chan request, buffer),
	}
}

// Armory returns the firearm instances driven by this simulation.
func (s *Simulation) Armory() *Armory { return s.armory }

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() uint64 { return s.ticks.Load() }

// Submit queues cmd for firearm id. It never blocks.
//
// Postcondition: returns ErrUnknownFirearm, ErrUnknownCommand, ErrQueueFull
// or ctx.Err() without queueing; nil means cmd runs on the next tick.
func (s *Simulation) Submit(ctx context.Context, id uuid.UUID, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cmd == nil {
		return ErrUnknownCommand
	}
	if _, ok := s.armory.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFirearm, id)
	}
	select {
	case s.queue <- request{id: id, cmd: cmd}:
		return nil
	default:
		return ErrQueueFull
	}
}

// RequestResync asks the next tick to publish every firearm. Safe to call
// from any goroutine.
func (s *Simulation) RequestResync() {
	s.resync.Store(true)
}

// Tick executes the commands queued before it began, applies their effects
// and publishes one snapshot per firearm touched this tick. A pending resync
// publishes every firearm instead.
//
// Precondition: called only from the simulation goroutine.
// Postcondition: returns the number of commands executed.
func (s *Simulation) Tick() int {
	var (
		touched []*Firearm
		seen    = make(map[uuid.UUID]bool)
		n       int
	)
	for pending := len(s.queue); pending > 0; pending-- {
		req := <-s.queue
		f, ok := s.armory.Get(req.id)
		if !ok {
			continue
		}
		fx, accepted := execute(s.ctrl, f, req.cmd)
		fx.Apply(s.exec)
		n++
		s.logger.Debug("command executed",
			zap.Stringer("firearm", f.ID),
			zap.String("command", req.cmd.Name()),
			zap.Bool("accepted", accepted),
			zap.Uint32("shots_left", f.State.ShotsLeft()),
		)
		if !seen[f.ID] {
			seen[f.ID] = true
			touched = append(touched, f)
		}
	}

	if s.resync.Swap(false) {
		s.PublishAll()
	} else {
		for _, f := range touched {
			s.publish(f)
		}
	}
	s.ticks.Add(1)
	return n
}

// PublishAll captures and broadcasts every firearm.
//
// Precondition: called only from the simulation goroutine.
func (s *Simulation) PublishAll() {
	for _, id := range s.armory.IDs() {
		if f, ok := s.armory.Get(id); ok {
			s.publish(f)
		}
	}
}

func (s *Simulation) publish(f *Firearm) {
	snap := f.pub.Capture(f.State)
	s.out.Broadcast(s.codec.Marshal(snap))
}

// Start begins the tick loop. Runs until ctx is cancelled.
//
// Postcondition: Tick is invoked once per interval on a single goroutine.
func (s *Simulation) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}
