// Package state keeps conversation trackers for the Telegram host and
// exposes the sender identity to handlers.
package state
