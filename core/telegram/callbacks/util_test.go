package callbacks

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb      *tele.Callback
		unique  string
		payload string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fmenu|/Payroll_Att"}, "menu", "/Payroll_Att"},
		{&tele.Callback{Data: "\fmenu|a|b"}, "menu", "a|b"},
		{&tele.Callback{Data: "\fmenu"}, "menu", ""},
		{&tele.Callback{Unique: "menu", Data: "TA"}, "menu", "TA"},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(tc.cb)
		require.Equal(t, tc.unique, u)
		require.Equal(t, tc.payload, p)
	}
}

func TestDataRoundTrip(t *testing.T) {
	u, p := ParseCallbackData(&tele.Callback{Data: Data("menu", "/goodbye")})
	require.Equal(t, "menu", u)
	require.Equal(t, "/goodbye", p)
	require.Equal(t, "\fmenu", Data("menu", ""))
}
