package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "react", "react"},
		{"uppercase", "React", "react"},
		{"surrounding whitespace", "  vim \t", "vim"},
		{"invalid chars stripped", "c++/stl", "cstl"},
		{"inner space removed", "my config", "myconfig"},
		{"separator run collapsed", "neo--vim", "neo-vim"},
		{"mixed separator run keeps first", "a-_b", "a-b"},
		{"edge separators trimmed", "-dotfiles_", "dotfiles"},
		{"unicode stripped", "café", "caf"},
		{"too long truncated", strings.Repeat("a", 60), strings.Repeat("a", 50)},
		{"truncation leaves no edge separator", strings.Repeat("a", 49) + "-bcd", strings.Repeat("a", 49)},
		{"empty", "", ""},
		{"only invalid chars", "###", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTagName(tt.input))
		})
	}
}

func TestNormalizeTagName_Idempotent(t *testing.T) {
	inputs := []string{
		"React", " spaced out ", "a--b__c", "-x-", strings.Repeat("ab-", 30),
		"zsh", "UPPER_case-Mix", "тег-tag",
	}
	for _, in := range inputs {
		once := NormalizeTagName(in)
		assert.Equal(t, once, NormalizeTagName(once), "normalize must be idempotent for %q", in)
	}
}

func TestValidateTagName(t *testing.T) {
	assert.NoError(t, ValidateTagName("go"))
	assert.NoError(t, ValidateTagName("neo-vim_2"))
	assert.Error(t, ValidateTagName("a"))
	assert.Error(t, ValidateTagName(""))
	assert.Error(t, ValidateTagName(strings.Repeat("a", 51)))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("Alice"))
	assert.Equal(t, "dev-ops", NormalizeUsername("Dev--Ops"))
	assert.Equal(t, "bob", NormalizeUsername("  bob!  "))
	assert.Equal(t, "", NormalizeUsername("@@"))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		ok       bool
	}{
		{"alice", true},
		{"dev_1", true},
		{"a-b-c", true},
		{"ab", false},
		{strings.Repeat("a", 31), false},
		{"-alice", false},
		{"alice_", false},
		{"a__b", false},
		{"Alice", false}, // stored lowercase only
		{"has space", false},
	}
	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if tt.ok {
			assert.NoError(t, err, tt.username)
		} else {
			assert.Error(t, err, tt.username)
		}
	}
}
