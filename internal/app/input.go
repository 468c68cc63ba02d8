package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dshills/secretcode/internal/config"
	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/input/source"
	"github.com/dshills/secretcode/internal/sequence"
)

// inputSource is a key source that runs until its input ends.
type inputSource interface {
	sequence.Source
	Run(ctx context.Context) error
}

// display shows match messages and the code list.
type display interface {
	Message(msg string)
	Codes(codes []CodeStatus)
}

func (app *Application) newInput() (inputSource, display, error) {
	log := app.logger.WithComponent("input")

	switch app.config.Input.Source {
	case config.InputStdin:
		stdin := app.opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		out := app.opts.Output
		if out == nil {
			out = os.Stdout
		}
		r := source.NewReader(stdin, source.WithErrorHandler(func(tok string, err error) {
			log.Warn("skipping %q: %v", tok, err)
		}))
		return r, &writerDisplay{w: out}, nil

	case config.InputTerminal:
		var t *source.Terminal
		if app.opts.Screen != nil {
			t = source.NewTerminalWithScreen(app.opts.Screen)
		} else {
			var err error
			if t, err = source.NewTerminal(); err != nil {
				return nil, nil, err
			}
		}
		if err := t.Init(); err != nil {
			return nil, nil, err
		}
		view := &terminalView{term: t}
		t.OnKey(func(ev key.Event) {
			log.Debug("key %s (%d)", ev, ev.Code())
			view.Key(ev)
		})
		return t, view, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidInput, app.config.Input.Source)
	}
}

// show displays a match message.
func (app *Application) show(msg string) {
	app.mu.Lock()
	d := app.display
	app.mu.Unlock()
	if d != nil {
		d.Message(msg)
	}
}

// refreshDisplay redraws the code list.
func (app *Application) refreshDisplay() {
	app.mu.Lock()
	d := app.display
	app.mu.Unlock()
	if d != nil {
		d.Codes(app.Codes())
	}
}

// writerDisplay prints messages as lines. The code list is not shown.
type writerDisplay struct {
	mu sync.Mutex
	w  io.Writer
}

func (d *writerDisplay) Message(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, msg)
}

func (d *writerDisplay) Codes([]CodeStatus) {}

// terminalView renders status lines on the terminal source's screen.
type terminalView struct {
	term *source.Terminal

	mu      sync.Mutex
	codes   []CodeStatus
	lastKey string
	message string
}

func (v *terminalView) Message(msg string) {
	v.mu.Lock()
	v.message = msg
	v.mu.Unlock()
	v.redraw()
}

func (v *terminalView) Codes(codes []CodeStatus) {
	v.mu.Lock()
	v.codes = codes
	v.mu.Unlock()
	v.redraw()
}

func (v *terminalView) Key(ev key.Event) {
	v.mu.Lock()
	v.lastKey = fmt.Sprintf("%s (%d)", ev, ev.Code())
	v.mu.Unlock()
	v.redraw()
}

func (v *terminalView) redraw() {
	v.mu.Lock()
	lines := v.linesLocked()
	v.mu.Unlock()
	v.term.SetStatus(lines...)
}

func (v *terminalView) linesLocked() []string {
	lines := []string{"secretcode: type a secret code (Ctrl+C to quit)", ""}
	for _, c := range v.codes {
		state := fmt.Sprintf("%d match(es)", c.Matches)
		if c.Released {
			state += ", released"
		}
		lines = append(lines, fmt.Sprintf("  %-16s %s  [%s]", c.Name, c.Keys, state))
	}
	lines = append(lines, "")
	if v.lastKey != "" {
		lines = append(lines, "last key: "+v.lastKey)
	}
	if v.message != "" {
		lines = append(lines, "", strings.TrimSpace(v.message))
	}
	return lines
}
