package key

import (
	"time"
	"unicode"
)

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{
		Key:       k,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// Code returns the numeric key code for the event.
// Modifiers are ignored. Returns CodeNone for keys without a code.
func (e Event) Code() Code {
	if e.Key == KeyRune {
		return runeCode(e.Rune)
	}
	if e.Key.IsFunctionKey() {
		return CodeF1 + Code(e.Key-KeyF1)
	}
	return specialCodes[e.Key]
}

// String returns a Vim-like representation: "a", "Up", "<C-x>", "<A-Up>".
func (e Event) String() string {
	var name string
	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		name = "Space"
	case e.Key == KeyRune:
		name = string(e.Rune)
	default:
		name = e.Key.String()
	}

	mods := e.Modifiers
	if e.IsRune() && unicode.IsUpper(e.Rune) {
		// Shift is already part of the character.
		mods &^= ModShift
	}
	if mods == ModNone {
		return name
	}
	return "<" + mods.String() + "-" + name + ">"
}
