package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		terms    string
		roomID   string
		limit    int
	}{
		{
			name:  "plain terms",
			input: "invoice overdue",
			terms: "invoice overdue",
			limit: 10,
		},
		{
			name:   "room and limit flags",
			input:  "invoice --room room-12 --limit 20",
			terms:  "invoice",
			roomID: "room-12",
			limit:  20,
		},
		{
			name:  "invalid limit keeps the default",
			input: "invoice --limit zero",
			terms: "invoice",
			limit: 10,
		},
		{
			name:   "flags only",
			input:  "--room room-1",
			terms:  "",
			roomID: "room-1",
			limit:  10,
		},
		{
			name:  "slash commands are not terms",
			input: "/find invoice",
			terms: "invoice",
			limit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			q := NewSearchQuery(tt.input)
			req.Equal(tt.terms, q.Terms)
			req.Equal(tt.roomID, q.RoomID)
			req.Equal(tt.limit, q.Limit)
			req.Equal(tt.input, q.RawInput)
		})
	}
}
