package key

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code is a numeric key code, the symbol type consumed by sequence matchers.
type Code int

// Well known key codes.
const (
	CodeNone      Code = 0
	CodeBackspace Code = 8
	CodeTab       Code = 9
	CodeEnter     Code = 13
	CodePause     Code = 19
	CodeEscape    Code = 27
	CodeSpace     Code = 32
	CodePageUp    Code = 33
	CodePageDown  Code = 34
	CodeEnd       Code = 35
	CodeHome      Code = 36
	CodeLeft      Code = 37
	CodeUp        Code = 38
	CodeRight     Code = 39
	CodeDown      Code = 40
	CodeInsert    Code = 45
	CodeDelete    Code = 46
	Code0         Code = 48
	CodeA         Code = 65
	CodeF1        Code = 112
	CodeF12       Code = 123
)

// ErrNoCode is returned when a key specification has no key code.
var ErrNoCode = errors.New("key has no key code")

var specialCodes = map[Key]Code{
	KeyBackspace: CodeBackspace,
	KeyTab:       CodeTab,
	KeyEnter:     CodeEnter,
	KeyPause:     CodePause,
	KeyEscape:    CodeEscape,
	KeySpace:     CodeSpace,
	KeyPageUp:    CodePageUp,
	KeyPageDown:  CodePageDown,
	KeyEnd:       CodeEnd,
	KeyHome:      CodeHome,
	KeyLeft:      CodeLeft,
	KeyUp:        CodeUp,
	KeyRight:     CodeRight,
	KeyDown:      CodeDown,
	KeyInsert:    CodeInsert,
	KeyDelete:    CodeDelete,
}

// punctCodes maps US-layout punctuation to the code of its physical key.
var punctCodes = map[rune]Code{
	';': 186, ':': 186,
	'=': 187, '+': 187,
	',': 188, '<': 188,
	'-': 189, '_': 189,
	'.': 190, '>': 190,
	'/': 191, '?': 191,
	'`': 192, '~': 192,
	'[': 219, '{': 219,
	'\\': 220, '|': 220,
	']': 221, '}': 221,
	'\'': 222, '"': 222,
}

// shiftedDigits are the characters on the digit row with Shift held.
const shiftedDigits = ")!@#$%^&*("

func runeCode(r rune) Code {
	switch {
	case r == ' ':
		return CodeSpace
	case r >= '0' && r <= '9':
		return Code0 + Code(r-'0')
	case r >= 'a' && r <= 'z':
		return CodeA + Code(r-'a')
	case r >= 'A' && r <= 'Z':
		return CodeA + Code(r-'A')
	}
	if i := strings.IndexRune(shiftedDigits, r); i >= 0 {
		return Code0 + Code(i)
	}
	return punctCodes[r]
}

// String returns a key name for the code, or "#n" for codes without one.
func (c Code) String() string {
	switch {
	case c >= CodeA && c < CodeA+26:
		return string(rune('a' + (c - CodeA)))
	case c >= Code0 && c <= Code0+9:
		return string(rune('0' + (c - Code0)))
	case c >= CodeF1 && c <= CodeF12:
		return fmt.Sprintf("F%d", c-CodeF1+1)
	}
	for k, code := range specialCodes {
		if code == c {
			return k.String()
		}
	}
	return "#" + strconv.Itoa(int(c))
}

// ParseCode parses a single key specification into a key code.
// In addition to the formats accepted by Parse, "#n" gives a raw code.
func ParseCode(spec string) (Code, error) {
	spec = strings.TrimSpace(spec)
	if len(spec) > 1 && spec[0] == '#' {
		n, err := strconv.Atoi(spec[1:])
		if err != nil || n <= 0 {
			return CodeNone, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		return Code(n), nil
	}

	ev, err := Parse(spec)
	if err != nil {
		return CodeNone, err
	}
	code := ev.Code()
	if code == CodeNone {
		return CodeNone, fmt.Errorf("%w: %q", ErrNoCode, spec)
	}
	return code, nil
}

// ParseCodes parses a whitespace separated list of key specifications.
// Example: "Up Up Down Down Left Right Left Right b a"
func ParseCodes(s string) ([]Code, error) {
	fields := strings.Fields(s)
	codes := make([]Code, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCode(f)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// FormatCodes renders codes as a space separated key list.
func FormatCodes(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
