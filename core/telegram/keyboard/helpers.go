// Package keyboard renders assistant buttons as Telegram inline keyboards.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/dialogue"
)

// MenuUnique is the callback key shared by every assistant button.
const MenuUnique = "menu"

// Menu lays buttons out one per row. Each press arrives under MenuUnique
// with the button's payload as data. No buttons means no keyboard.
func Menu(buttons []dialogue.Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, markup.Row(markup.Data(b.Title, MenuUnique, b.Payload)))
	}
	markup.Inline(rows...)
	return markup
}
