package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hrbot/core/dialogue"
)

func TestMenuOneButtonPerRow(t *testing.T) {
	require.Nil(t, Menu(nil))

	m := Menu([]dialogue.Button{
		{Title: "Travel allowance", Payload: "TA"},
		{Title: "Driver's salary", Payload: "DS"},
	})
	require.Len(t, m.InlineKeyboard, 2)
	require.Equal(t, "Travel allowance", m.InlineKeyboard[0][0].Text)
	require.Equal(t, MenuUnique, m.InlineKeyboard[0][0].Unique)
	require.Contains(t, m.InlineKeyboard[0][0].Data, "TA")
	require.Contains(t, m.InlineKeyboard[1][0].Data, "DS")
}
