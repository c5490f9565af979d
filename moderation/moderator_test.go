package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newModerator(t *testing.T, words ...string) Moderator {
	t.Helper()
	m, err := NewModerator(words, '*')
	require.NoError(t, err)
	return m
}

func TestModerator_CensorMasksWord(t *testing.T) {
	req := require.New(t)
	m := newModerator(t, "idiot")

	censored, found := m.Censor("what an idiot move")
	req.Equal("what an ***** move", censored)
	req.Equal([]string{"idiot"}, found)
}

func TestModerator_CensorIsCaseInsensitive(t *testing.T) {
	req := require.New(t)
	m := newModerator(t, "idiot")

	censored, found := m.Censor("IdIoT")
	req.Equal("*****", censored)
	req.Len(found, 1)
}

func TestModerator_CensorDefeatsLeetSpeak(t *testing.T) {
	req := require.New(t)
	m := newModerator(t, "idiot")

	censored, found := m.Censor("1d10t")
	req.Equal("*****", censored)
	req.Len(found, 1)
}

func TestModerator_CensorDefeatsPunctuationSpacing(t *testing.T) {
	req := require.New(t)
	m := newModerator(t, "idiot")

	censored, found := m.Censor("i.d.i.o.t")
	req.Equal("*********", censored)
	req.Len(found, 1)
}

func TestModerator_CleanTextPassesThrough(t *testing.T) {
	req := require.New(t)
	m := newModerator(t, "idiot")

	original := "a perfectly polite sentence"
	censored, found := m.Censor(original)
	req.Equal(original, censored)
	req.Empty(found)
}

func TestBlank(t *testing.T) {
	req := require.New(t)
	req.True(Blank(""))
	req.True(Blank("   \t\n"))
	req.False(Blank(" hi "))
}
