package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dshills/secretcode/internal/config"
	"github.com/dshills/secretcode/internal/event"
	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/plugin/lua"
	"github.com/dshills/secretcode/internal/sequence"
)

// code is one configured secret code and everything bound to it.
type code struct {
	def    config.CodeConfig
	mc     sequence.Config
	script *lua.Script
	log    *Logger

	count atomic.Uint64

	mu               sync.Mutex
	matcher          *sequence.Matcher
	subs             []*event.Subscription
	releaseRequested bool
	scriptSub        *event.Subscription

	// Script runs admitted to the bus queue. The script is closed only
	// once the code is retired and queued is back to zero.
	runMu   sync.Mutex
	queued  int
	retired bool
	idle    chan struct{}
}

// prepareCodes validates definitions and compiles their scripts without
// touching the running set.
func (app *Application) prepareCodes(defs []config.CodeConfig) ([]*code, error) {
	out := make([]*code, 0, len(defs))
	for i, def := range defs {
		mc, err := def.MatcherConfig()
		if err != nil {
			closeCodes(out)
			return nil, &config.CodeError{Index: i, Name: def.Name, Err: err}
		}

		c := &code{
			def:  def,
			mc:   mc,
			log:  app.logger.WithField("code", mc.ResolvedID()),
			idle: make(chan struct{}),
		}
		if def.Script != "" {
			scriptLog := c.log.WithComponent("lua")
			c.script, err = lua.Compile(mc.ResolvedID(), def.Script,
				lua.WithLogFunc(func(_, msg string) {
					scriptLog.Info("%s", msg)
				}))
			if err != nil {
				closeCodes(out)
				return nil, &config.CodeError{Index: i, Name: def.Name, Err: err}
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// activate subscribes the actions of each code and starts its matcher.
func (app *Application) activate(codes []*code) error {
	app.mu.Lock()
	in := app.input
	app.mu.Unlock()

	rollback := func(n int) {
		for _, done := range codes[:n] {
			done.deactivate(app.bus)
			app.retire(done)
		}
	}
	for i, c := range codes {
		if err := app.subscribeActions(c); err != nil {
			rollback(i + 1)
			return err
		}

		m, err := sequence.New(c.mc, in, app.notifier,
			sequence.WithScheduler(app.opts.Scheduler),
			sequence.WithMetrics(app.metrics),
		)
		if err != nil {
			rollback(i + 1)
			return err
		}
		c.setMatcher(m)
		c.log.Debug("armed: %s (timeout %v)", key.FormatCodes(c.mc.Target), c.mc.IdleTimeout)
	}

	app.mu.Lock()
	app.codes = append(app.codes, codes...)
	app.mu.Unlock()
	return nil
}

// subscribeActions binds the configured actions to the code's topic.
// Sync actions run in priority order: counting, message, then release.
// Scripts run on bus workers.
func (app *Application) subscribeActions(c *code) error {
	topic := event.MatchTopic(event.DefaultMatchPrefix, c.mc.ResolvedID())

	add := func(fn event.HandlerFunc, opts ...event.SubscriptionOption) (*event.Subscription, error) {
		sub, err := app.bus.SubscribeFunc(topic, fn, opts...)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.subs = append(c.subs, sub)
		c.mu.Unlock()
		return sub, nil
	}

	_, err := add(func(ctx context.Context, ev any) error {
		c.count.Add(1)
		app.stats.recordMatch()
		app.refreshDisplay()
		return nil
	}, event.WithPriority(event.PriorityCritical))
	if err != nil {
		return err
	}

	if c.def.Message != "" {
		_, err := add(func(ctx context.Context, ev any) error {
			app.show(c.def.Message)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if c.script != nil {
		// The filter runs just before the run is queued, so every admitted
		// run ends in runDone: after the handler or through the drop handler.
		sub, err := add(func(ctx context.Context, ev any) error {
			defer c.runDone()
			return app.runScript(ctx, c, ev)
		}, event.WithDeliveryMode(event.DeliveryAsync), event.WithFilter(c.admitRun))
		if err != nil {
			return err
		}
		c.scriptSub = sub
		app.scriptSubs.Store(sub.ID(), c)
	}

	if c.def.Once {
		_, err := add(func(ctx context.Context, ev any) error {
			c.release()
			c.log.Info("released after first match")
			app.refreshDisplay()
			return nil
		}, event.WithPriority(event.PriorityLow))
		if err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) runScript(ctx context.Context, c *code, ev any) error {
	m := lua.Match{
		ID:    c.mc.ResolvedID(),
		Keys:  c.mc.Target,
		Count: c.count.Load(),
	}
	if env, ok := ev.(event.Envelope); ok {
		if payload, ok := env.Payload.(event.Match); ok {
			m.At = payload.At
		}
	}

	timer := StartTimer()
	err := c.script.Run(ctx, m)
	app.stats.recordScript(err)
	c.log.Debug("script finished in %v", timer.Elapsed())
	return err
}

func (c *code) setMatcher(m *sequence.Matcher) {
	c.mu.Lock()
	c.matcher = m
	release := c.releaseRequested
	c.mu.Unlock()

	if release {
		m.Release()
	}
}

// release stops the matcher. A request that arrives before the matcher
// is set is honored by setMatcher.
func (c *code) release() {
	c.mu.Lock()
	c.releaseRequested = true
	m := c.matcher
	c.mu.Unlock()

	if m != nil {
		m.Release()
	}
}

// deactivate releases the matcher and removes the subscriptions.
func (c *code) deactivate(bus event.Bus) {
	c.release()

	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		_ = bus.Unsubscribe(sub)
	}
}

// admitRun counts a script run about to be queued. A retired code admits
// nothing.
func (c *code) admitRun(any) bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.retired {
		return false
	}
	c.queued++
	return true
}

// runDone marks an admitted script run as finished or dropped.
func (c *code) runDone() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.queued--
	if c.retired && c.queued == 0 {
		close(c.idle)
	}
}

// retireRuns stops admitting script runs. The returned channel is closed
// once every admitted run is done.
func (c *code) retireRuns() <-chan struct{} {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if !c.retired {
		c.retired = true
		if c.queued == 0 {
			close(c.idle)
		}
	}
	return c.idle
}

// retire closes a deactivated code's script once its queued runs are done.
func (app *Application) retire(c *code) {
	if c.script == nil {
		return
	}
	idle := c.retireRuns()
	app.retiring.Add(1)
	go func() {
		defer app.retiring.Done()
		<-idle
		if c.scriptSub != nil {
			app.scriptSubs.Delete(c.scriptSub.ID())
		}
		c.close()
	}()
}

func (c *code) close() {
	if c.script != nil {
		c.script.Close()
	}
}

func (c *code) status() CodeStatus {
	c.mu.Lock()
	released := c.matcher == nil || c.matcher.IsReleased()
	c.mu.Unlock()

	return CodeStatus{
		Name:     c.mc.ResolvedID(),
		Keys:     key.FormatCodes(c.mc.Target),
		Matches:  c.count.Load(),
		Released: released,
	}
}

func closeCodes(codes []*code) {
	for _, c := range codes {
		c.close()
	}
}
