package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/internal/realtime"
	"github.com/mbeoliero/xchange/pkg/constant"
)

// Poller refreshes a Counter right away, then on every tick, and whenever one of its trigger events arrives
type Poller struct {
	counter  *Counter
	interval time.Duration
	sub      realtime.Subscriber
	triggers []string

	kick    chan struct{}
	stopCh  chan struct{}
	cancel  context.CancelFunc
	scope   *realtime.Scope
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	Interval time.Duration
	// TriggerEvents are channel events that cause an immediate refresh
	TriggerEvents []string
}

// NewPoller creates a poller. sub may be nil, in which case only the timer drives refreshes.
func NewPoller(counter *Counter, sub realtime.Subscriber, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = constant.DefaultPollTick
	}
	return &Poller{
		counter:  counter,
		interval: cfg.Interval,
		sub:      sub,
		triggers: cfg.TriggerEvents,
		kick:     make(chan struct{}, 1),
	}
}

// Start starts polling. Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	ctx, p.cancel = context.WithCancel(ctx)
	p.scope = realtime.NewScope()
	if p.sub != nil {
		for _, event := range p.triggers {
			p.scope.On(p.sub, event, p.onTrigger)
		}
	}
	stopCh := p.stopCh
	p.mu.Unlock()

	log.Info("notification poller started: interval=%s, triggers=%v", p.interval, p.triggers)

	p.wg.Add(1)
	go p.run(ctx, stopCh)
}

// Stop stops polling, detaches the trigger listeners and waits for an in-flight refresh
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, scope, stopCh := p.cancel, p.scope, p.stopCh
	p.mu.Unlock()

	scope.Dispose()
	if cancel != nil {
		cancel()
	}

	close(stopCh)
	p.wg.Wait()
	log.Info("notification poller stopped")
}

// Running reports whether the poller is started
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger asks for a refresh without waiting for the next tick. Requests made while one is pending are merged.
func (p *Poller) Trigger() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// onTrigger runs on the channel read loop, so the refresh itself is handed to the poll goroutine
func (p *Poller) onTrigger(_ context.Context, _ json.RawMessage) {
	p.Trigger()
}

func (p *Poller) run(ctx context.Context, stopCh chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.counter.Refresh(ctx)

	for {
		select {
		case <-ticker.C:
			p.counter.Refresh(ctx)
		case <-p.kick:
			p.counter.Refresh(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
