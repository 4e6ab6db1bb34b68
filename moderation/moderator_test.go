package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestModerator_Censor
// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"scam", "fraud", "idiot"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "This deal is a scam indeed",
			expected: "This deal is a **** indeed",
			words:    []string{"scam"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "fraud fraud fraud",
			expected: "***** ***** *****",
			words:    []string{"fraud", "fraud", "fraud"},
		},
		{
			name: "Leet speak and internal punctuation",
			// F (index 6) . r - 4 . u - d (index 14) -> 9 characters
			input:    "Total F.r-4.u-d alert",
			expected: "Total ********* alert",
			words:    []string{"fraud"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-C-4-M is an I.D.I.0.T",
			expected: "******* is an *********",
			words:    []string{"scam", "idiot"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un idiot",
			expected: "Un été avec un *****",
			words:    []string{"idiot"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "You absolute idiot!",
			expected: "You absolute *****!",
			words:    []string{"idiot"},
		},
		{
			name:     "Nothing to censor",
			input:    "Chat-Video keeps it clean",
			expected: "Chat-Video keeps it clean",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "fraud"}

	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	input := "The fraud was flagged"
	expected := "The ***** was flagged"
	content, words := mod.Censor(input)
	req.Equal(expected, content)
	req.Equal([]string{"fraud"}, words)

	// Then real noise is uncensored
	input = "Okay ..."
	expected = "Okay ..."
	content, words = mod.Censor(input)
	req.Equal(expected, content)
	req.Nil(words)
}
