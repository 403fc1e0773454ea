package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage is shown when the command is invoked with malformed arguments.
	Usage     string
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}
