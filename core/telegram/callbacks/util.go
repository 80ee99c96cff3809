package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Prefix marks callback data produced by tele.ReplyMarkup.Data.
const Prefix = "\f"

// Data encodes unique and payload the way Telebot does.
func Data(unique, payload string) string {
	if payload == "" {
		return Prefix + unique
	}
	return Prefix + unique + "|" + payload
}

// ParseCallbackData splits Telebot's \f<unique>|<payload> encoding.
// When Telebot already matched a handler it moves the payload into Data and
// sets Unique, which is handled as well.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, Prefix)
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// CallbackKey returns the unique part of the pressed button.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the payload part of the pressed button.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
