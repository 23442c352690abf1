package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info().Msg("hidden")
	log.Warn().Str("style", "night").Msg("shown")

	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "style=night")
}

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, New(&bytes.Buffer{}, "loud").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New(&bytes.Buffer{}, "").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New(&bytes.Buffer{}, " DEBUG ").GetLevel())
}
