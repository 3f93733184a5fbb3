package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidName(t *testing.T) {
	v := New(Limits{})

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "alice", true},
		{"spaces inside", "general chat", true},
		{"punctuation", "dev-ops_2.0", true},
		{"unicode letters", "caf\u00e9", true},
		{"empty", "", false},
		{"leading space", " alice", false},
		{"trailing space", "alice ", false},
		{"double space", "a  b", false},
		{"symbol", "alice!", false},
		{"newline", "ali\nce", false},
		{"too long", strings.Repeat("a", 33), false},
		{"max length", strings.Repeat("a", 32), true},
		{"decomposed", "cafe\u0301", false},
		{"invalid utf8", "\xff", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidName(tt.input))
		})
	}
}

func TestValidMessage(t *testing.T) {
	v := New(Limits{MessageMax: 10})

	assert.True(t, v.ValidMessage("hello"))
	assert.True(t, v.ValidMessage("a\nb\tc"))
	assert.False(t, v.ValidMessage(""))
	assert.False(t, v.ValidMessage("   \n"))
	assert.False(t, v.ValidMessage("bell\a"))
	assert.False(t, v.ValidMessage(strings.Repeat("x", 11)))
	assert.True(t, v.ValidMessage(strings.Repeat("\u00e9", 10)))
}

func TestNewFillsDefaults(t *testing.T) {
	v := New(Limits{NameMax: 5})

	assert.Equal(t, 1, v.Limits.NameMin)
	assert.Equal(t, 5, v.Limits.NameMax)
	assert.Equal(t, DefaultLimits.MessageMax, v.Limits.MessageMax)
}
