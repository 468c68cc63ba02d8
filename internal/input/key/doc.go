// Package key provides key event types, key-spec parsing and key codes.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single key press with modifiers and timestamp
//   - Code: The numeric key code an Event reduces to
//
// # Key Codes
//
// Sequence matching works on numeric codes rather than events. Codes use the
// browser keyCode numbering so that well known codes can be written down
// directly:
//
//	Enter 13, Escape 27, Space 32, Left 37, Up 38, Right 39, Down 40,
//	'0'..'9' 48..57, 'A'..'Z' 65..90 (either case), F1..F12 112..123
//
// Modifiers do not change the code of a key.
//
// # Key Specifications
//
// Key specifications can be written in multiple formats:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape"
//   - With modifiers: "Ctrl+S", "Alt+F4"
//   - Vim-style: "<C-s>", "<Up>", "<CR>", "<Esc>"
//   - Raw codes: "#38"
//
// ParseCodes turns a space separated list of specifications into codes:
//
//	codes, err := key.ParseCodes("Up Up Down Down Left Right Left Right b a")
package key
