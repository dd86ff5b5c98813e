package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vydaje/internal/worker"
)

// OutboxProcessor polls storage for unsynced transactions and pushes them
// through the sync worker. It is the replay path when AMQP is absent and
// the safety net when messages are lost.
type OutboxProcessor struct {
	worker   *worker.SyncWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOutboxProcessor(w *worker.SyncWorker, interval time.Duration) *OutboxProcessor {
	return &OutboxProcessor{
		worker:   w,
		interval: interval,
	}
}

// Start launches the polling loop. It errors if already running.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("outbox processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.run(ctx)

	slog.InfoContext(ctx, "outbox processor started", "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "outbox processor stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "outbox processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *OutboxProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *OutboxProcessor) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.process(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.process(ctx)
		}
	}
}

func (p *OutboxProcessor) process(ctx context.Context) {
	if err := p.worker.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "outbox batch failed", "error", err)
	}
}
