// Package app wires configuration, input, matchers, the event bus and the
// match actions into a runnable application.
//
// Data flows one way:
//
//	input source -> sequence matchers -> event bus -> actions
//
// Each configured code gets its own matcher subscribed to the shared input
// source. A match is published as an event.Envelope on "code.<name>", where
// the code's actions (message, Lua script, one-shot release) subscribe.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/secretcode/internal/config"
	"github.com/dshills/secretcode/internal/event"
	"github.com/dshills/secretcode/internal/schedule"
	"github.com/dshills/secretcode/internal/sequence"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty resolves through
	// config.ResolvePath.
	ConfigPath string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// LogLevel overrides the configured log level.
	LogLevel string

	// Input overrides the configured input source.
	Input string

	// Watch reloads the configuration when ConfigPath changes.
	Watch bool

	// Stdin replaces os.Stdin for the stdin source.
	Stdin io.Reader

	// Output receives match messages for the stdin source.
	// Defaults to os.Stdout.
	Output io.Writer

	// LogOutput replaces the configured log destination.
	LogOutput io.Writer

	// Screen replaces the terminal for the terminal source.
	Screen tcell.Screen

	// Scheduler drives idle timeouts. Defaults to schedule.Default.
	Scheduler schedule.Scheduler
}

// Application is the central coordinator.
type Application struct {
	mu sync.Mutex

	opts    Options
	config  *config.Config
	logger  *Logger
	logFile *os.File

	bus      event.Bus
	notifier *event.Notifier
	metrics  *sequence.Metrics
	stats    *Metrics

	input   inputSource
	display display
	codes   []*code

	// scriptSubs maps script subscription IDs to their code so dropped
	// runs can be released.
	scriptSubs sync.Map
	retiring   sync.WaitGroup

	running atomic.Bool
	cancel  context.CancelFunc
}

// New creates an application. The configuration is loaded and validated
// here, so configuration errors surface before Run.
func New(opts Options) (*Application, error) {
	if opts.ConfigPath == "" && opts.Config == nil {
		opts.ConfigPath = config.ResolvePath("")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Default
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Input != "" {
		cfg.Input.Source = opts.Input
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		opts:    opts,
		config:  cfg,
		metrics: sequence.NewMetrics(),
		stats:   NewMetrics(),
	}
	if err := app.initLogger(); err != nil {
		return nil, &ComponentError{Component: "log", Err: err}
	}

	busLog := app.logger.WithComponent("bus")
	app.bus = event.NewBus(
		event.WithPanicHandler(func(ev any, sub *event.Subscription, recovered any, stack []byte) {
			busLog.Error("handler panic on %s: %v\n%s", sub.Topic(), recovered, stack)
		}),
		event.WithErrorHandler(func(ev any, err *event.HandlerError) {
			busLog.Warn("%v", err)
		}),
		event.WithDropHandler(func(ev any, sub *event.Subscription) {
			busLog.Warn("dropped %s delivery", sub.Topic())
			if c, ok := app.scriptSubs.Load(sub.ID()); ok {
				c.(*code).runDone()
			}
		}),
	)
	app.notifier = event.NewNotifier(app.bus,
		event.WithSource("sequence"),
		event.WithPublishErrorHandler(func(id string, err error) {
			busLog.WithField("code", id).Warn("publish match: %v", err)
		}),
	)

	return app, nil
}

func (app *Application) initLogger() error {
	out := app.opts.LogOutput
	switch {
	case out != nil:
	case app.config.Log.File != "":
		f, err := os.OpenFile(app.config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		out = f
	case app.config.Input.Source == config.InputTerminal:
		// stderr would draw over the screen.
		out = io.Discard
	default:
		out = os.Stderr
	}

	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(app.config.Log.Level)
	cfg.Output = out
	app.logger = NewLogger(cfg)
	return nil
}

// Run reads input until it ends, ctx is done or Shutdown is called.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	if err := app.bus.Start(); err != nil {
		return &ComponentError{Component: "bus", Err: err}
	}
	defer app.shutdown()

	if err := app.subscribeMatchLog(); err != nil {
		return &ComponentError{Component: "bus", Err: err}
	}

	in, disp, err := app.newInput()
	if err != nil {
		return &ComponentError{Component: "input", Err: err}
	}
	app.mu.Lock()
	app.input = in
	app.display = disp
	app.mu.Unlock()

	prepared, err := app.prepareCodes(app.config.Codes)
	if err != nil {
		return &ComponentError{Component: "code", Err: err}
	}
	if err := app.activate(prepared); err != nil {
		return &ComponentError{Component: "code", Err: err}
	}

	if app.opts.Watch && app.opts.ConfigPath != "" {
		stop, err := app.startWatcher(ctx)
		if err != nil {
			app.logger.WithComponent("config").Warn("live reload disabled: %v", err)
		} else {
			defer stop()
		}
	}

	app.logger.Info("listening for %d code(s) on %s", len(prepared), app.config.Input.Source)
	app.refreshDisplay()

	err = in.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops a running application. Run returns once cleanup is done.
func (app *Application) Shutdown() {
	app.mu.Lock()
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// shutdown releases matchers, drains the bus and closes resources.
func (app *Application) shutdown() {
	app.mu.Lock()
	codes := app.codes
	app.codes = nil
	app.mu.Unlock()

	for _, c := range codes {
		c.deactivate(app.bus)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.bus.Stop(ctx); err != nil {
		app.logger.Warn("stopping bus: %v", err)
	}

	for _, c := range codes {
		app.retire(c)
	}
	retired := make(chan struct{})
	go func() {
		app.retiring.Wait()
		close(retired)
	}()
	select {
	case <-retired:
	case <-ctx.Done():
		app.logger.Warn("scripts still running at shutdown")
	}

	app.mu.Lock()
	in := app.input
	app.mu.Unlock()
	if c, ok := in.(interface{ Close() }); ok {
		c.Close()
	}

	s := app.Stats()
	app.logger.Info("stopped: observed=%d matches=%d timeouts=%d script_runs=%d reloads=%d",
		s.Sequence.Observed, s.Sequence.Matches, s.Sequence.Timeouts, s.ScriptRuns, s.Reloads)

	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

// subscribeMatchLog logs every match, whatever code it belongs to.
func (app *Application) subscribeMatchLog() error {
	log := app.logger.WithComponent("match")
	_, err := app.bus.SubscribeFunc(event.DefaultMatchPrefix.Child(event.WildcardMulti),
		func(ctx context.Context, ev any) error {
			env, ok := ev.(event.Envelope)
			if !ok {
				return nil
			}
			m, _ := env.Payload.(event.Match)
			log.WithFields(map[string]any{
				"code":  m.ID,
				"event": env.Metadata.ID,
			}).Info("code matched")
			return nil
		}, event.WithPriority(event.PriorityHigh))
	return err
}

// Reload replaces the active codes with those of cfg. The old matchers
// are released only after every new code compiled, so a bad config
// leaves the running set untouched.
func (app *Application) Reload(cfg *config.Config) error {
	if !app.running.Load() {
		return ErrNotRunning
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		app.stats.recordReloadError()
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}

	prepared, err := app.prepareCodes(cfg.Codes)
	if err != nil {
		app.stats.recordReloadError()
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}

	app.mu.Lock()
	old := app.codes
	app.codes = nil
	app.config.Codes = cfg.Codes
	app.config.Log.Level = cfg.Log.Level
	app.mu.Unlock()

	for _, c := range old {
		c.deactivate(app.bus)
		app.retire(c)
	}
	if app.opts.LogLevel == "" {
		app.logger.SetLevel(ParseLogLevel(cfg.Log.Level))
	}

	if err := app.activate(prepared); err != nil {
		app.stats.recordReloadError()
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}
	app.stats.recordReload()
	app.logger.WithComponent("config").Info("reloaded %d code(s)", len(prepared))
	app.refreshDisplay()
	return nil
}

func (app *Application) startWatcher(ctx context.Context) (stop func(), err error) {
	log := app.logger.WithComponent("config")
	w, err := config.NewWatcher(app.opts.ConfigPath, func(path string) {
		cfg, err := config.Load(path)
		if err != nil {
			app.stats.recordReloadError()
			log.Warn("keeping current codes: %v", err)
			return
		}
		if err := app.Reload(cfg); err != nil {
			log.Warn("%v", err)
		}
	}, config.WithWatchErrorHandler(func(err error) {
		log.Warn("watch: %v", err)
	}))
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	log.Debug("watching %s", w.Path())

	return func() {
		_ = w.Close()
		<-done
	}, nil
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.config
}

// Bus returns the event bus. Callers may subscribe to match topics.
func (app *Application) Bus() event.Bus {
	return app.bus
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// CodeStatus describes one active code.
type CodeStatus struct {
	Name     string
	Keys     string
	Matches  uint64
	Released bool
}

// Codes returns the status of the active codes in configuration order.
func (app *Application) Codes() []CodeStatus {
	app.mu.Lock()
	defer app.mu.Unlock()

	out := make([]CodeStatus, len(app.codes))
	for i, c := range app.codes {
		out[i] = c.status()
	}
	return out
}
