package source

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/secretcode/internal/input/key"
)

// Terminal is a source that reads key presses from a tcell screen.
// Ctrl+C ends Run. The screen also shows a few status lines set by the
// owner.
type Terminal struct {
	*Feed

	screen tcell.Screen
	mu     sync.Mutex
	lines  []string
	inited bool

	onKey func(ev key.Event)
}

// NewTerminal creates a terminal source on the process's terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen), nil
}

// NewTerminalWithScreen creates a terminal source on an existing screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{
		Feed:   NewFeed(),
		screen: screen,
	}
}

// OnKey sets a callback invoked for every key event before delivery.
func (t *Terminal) OnKey(fn func(ev key.Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onKey = fn
}

// Init initializes the screen. Run calls it when needed.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inited {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.inited = true
	t.drawLocked()
	return nil
}

// SetStatus replaces the lines shown on screen.
func (t *Terminal) SetStatus(lines ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lines = append(t.lines[:0], lines...)
	if t.inited {
		t.drawLocked()
	}
}

// Run polls key events until Ctrl+C or ctx is done, then restores the
// terminal.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.Init(); err != nil {
		return err
	}
	defer t.fini()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.drawLocked()
			t.mu.Unlock()
		case *tcell.EventKey:
			if isInterrupt(ev) {
				return nil
			}
			kev, ok := convertKeyEvent(ev)
			if !ok {
				continue
			}
			t.mu.Lock()
			onKey := t.onKey
			t.mu.Unlock()
			if onKey != nil {
				onKey(kev)
			}
			t.PressEvent(kev)
		}
	}
}

// Close restores the terminal. Run does this on return; Close is for an
// initialized terminal that never ran.
func (t *Terminal) Close() {
	t.fini()
}

func (t *Terminal) fini() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inited {
		t.screen.Fini()
		t.inited = false
	}
}

// drawLocked renders the status lines. Callers must hold t.mu.
func (t *Terminal) drawLocked() {
	t.screen.Clear()
	width, height := t.screen.Size()
	for y, line := range t.lines {
		if y >= height {
			break
		}
		x := 0
		for _, r := range line {
			if x >= width {
				break
			}
			t.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
			x++
		}
	}
	t.screen.Show()
}

// isInterrupt reports Ctrl+C, which tcell may deliver either as KeyCtrlC
// or as a rune with the Ctrl modifier.
func isInterrupt(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 &&
		(ev.Rune() == 'c' || ev.Rune() == 'C')
}

// convertKeyEvent converts a tcell key event. Keys without an equivalent
// report false.
func convertKeyEvent(ev *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(ev.Modifiers())
	k := ev.Key()

	switch k {
	case tcell.KeyRune:
		return key.NewRuneEvent(ev.Rune(), mods), true
	case tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	case tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods), true
	case tcell.KeyInsert:
		return key.NewSpecialEvent(key.KeyInsert, mods), true
	case tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods), true
	case tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods), true
	case tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods), true
	case tcell.KeyPause:
		return key.NewSpecialEvent(key.KeyPause, mods), true
	}

	if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
		return key.NewSpecialEvent(key.KeyF1+key.Key(k-tcell.KeyF1), mods), true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return key.NewRuneEvent(rune('a'+(k-tcell.KeyCtrlA)), mods.With(key.ModCtrl)), true
	}
	return key.Event{}, false
}

func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}
