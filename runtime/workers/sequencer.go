package workers

import (
	"companion-hub/contract"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"context"
	"log/slog"
)

// Ensure *SequencerWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SequencerWorker)(nil)

// SequencerWorker is the single consumer of the command channel.
// It applies each command against the engine and forwards the resulting
// envelopes in the order they were produced.
type SequencerWorker struct {
	engine   contract.IEngine
	commands <-chan command.Command
	events   chan<- event.Envelope
	log      *slog.Logger
}

func NewSequencerWorker(
	engine contract.IEngine,
	commands <-chan command.Command,
	events chan<- event.Envelope,
	log *slog.Logger) *SequencerWorker {
	return &SequencerWorker{
		engine:   engine,
		commands: commands,
		events:   events,
		log:      log,
	}
}

func (w *SequencerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			for _, envelope := range w.engine.Apply(ctx, cmd) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case w.events <- envelope:
				}
			}
		}
	}
}
