package key

import "strings"

// Modifier is the set of modifier keys held during a key press.
type Modifier uint8

// Modifier bits.
const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModCtrl
	ModAlt
	ModMeta
)

// modifierSpecs lists the modifiers in display order. letters are the
// prefixes accepted inside "<C-x>"; names are accepted in "Ctrl+x". The
// first letter is the one String uses.
var modifierSpecs = []struct {
	mod     Modifier
	letters string
	names   []string
}{
	{ModCtrl, "c", []string{"ctrl", "control", "c"}},
	{ModAlt, "a", []string{"alt", "option", "a"}},
	{ModShift, "s", []string{"shift", "s"}},
	{ModMeta, "md", []string{"meta", "cmd", "super", "m"}},
}

// With returns m with mod added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// String renders the set as "C-A-S-M" prefixes, empty for ModNone.
func (m Modifier) String() string {
	var parts []string
	for _, s := range modifierSpecs {
		if m&s.mod != 0 {
			parts = append(parts, strings.ToUpper(s.letters[:1]))
		}
	}
	return strings.Join(parts, "-")
}

// modifierFromLetter resolves a "<C-x>" prefix. Returns ModNone when the
// prefix is unknown.
func modifierFromLetter(p string) Modifier {
	p = strings.ToLower(strings.TrimSpace(p))
	if len(p) != 1 {
		return ModNone
	}
	for _, s := range modifierSpecs {
		if strings.Contains(s.letters, p) {
			return s.mod
		}
	}
	return ModNone
}

// ModifierFromName resolves a "Ctrl+x" modifier name, case-insensitively.
// Returns ModNone when the name is unknown.
func ModifierFromName(name string) Modifier {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range modifierSpecs {
		for _, n := range s.names {
			if n == name {
				return s.mod
			}
		}
	}
	return ModNone
}
