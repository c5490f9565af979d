package runtime

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAllEmbeddedDictionaries(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredFolder)

	data, err := loader.LoadAll("censored")
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.Contains(data.Words, "damn")
}

func TestPrepareModerator_BuildsWorkingCensor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	moderator, err := PrepareModerator(log, '*')
	req.NoError(err)

	censored, found := moderator.Censor("damn right")
	req.Equal("**** right", censored)
	req.Len(found, 1)
}
