// Package validation holds the default name and message validators.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Limits bound names and messages, in runes.
type Limits struct {
	NameMin    int
	NameMax    int
	MessageMax int
}

// DefaultLimits are used when the configuration leaves a limit unset.
var DefaultLimits = Limits{NameMin: 1, NameMax: 32, MessageMax: 2000}

// Default validates names and messages against Limits.
type Default struct {
	Limits Limits
}

// New returns a Default validator, filling unset limits from DefaultLimits.
func New(l Limits) *Default {
	if l.NameMin <= 0 {
		l.NameMin = DefaultLimits.NameMin
	}
	if l.NameMax <= 0 {
		l.NameMax = DefaultLimits.NameMax
	}
	if l.MessageMax <= 0 {
		l.MessageMax = DefaultLimits.MessageMax
	}
	return &Default{Limits: l}
}

// ValidName accepts NFC normalized names of letters, digits, spaces and
// "_-." with no surrounding or doubled spaces.
func (d *Default) ValidName(s string) bool {
	if !utf8.ValidString(s) || !norm.NFC.IsNormalString(s) {
		return false
	}
	n := utf8.RuneCountInString(s)
	if n < d.Limits.NameMin || n > d.Limits.NameMax {
		return false
	}
	if strings.TrimSpace(s) != s || strings.Contains(s, "  ") {
		return false
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == ' ', r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// ValidMessage accepts NFC normalized, non blank text without control
// characters other than newline and tab.
func (d *Default) ValidMessage(s string) bool {
	if !utf8.ValidString(s) || !norm.NFC.IsNormalString(s) {
		return false
	}
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > d.Limits.MessageMax {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}
