// Package commands describes slash commands exposed by the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. Hidden commands work but stay out of the
// Telegram menu; AdminOnly implies hidden.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are extra names matched when the command arrives as plain text.
	Aliases []string
}

// Visible reports whether the command belongs in the public menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}
