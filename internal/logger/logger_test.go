package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/nongsanviet/shopcli/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{Level: zerolog.DebugLevel, Format: "json", Output: buf})

	log.Debug().Str("code", "SUMMER10").Msg("applied")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "shopcli", entry["service"])
	assert.Equal(t, "SUMMER10", entry["code"])
	assert.Equal(t, "applied", entry["message"])
}

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{Format: "json", Output: buf})

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{Level: zerolog.InfoLevel, Format: "console", Output: buf})

	log.Info().Msg("xin chào")

	assert.Contains(t, buf.String(), "xin chào")
	assert.NotContains(t, buf.String(), "{")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.ErrorLevel, logger.ParseLevel("error"))
}

func TestWithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{Level: zerolog.InfoLevel, Format: "json", Output: buf})

	ctx := logger.WithContext(context.Background(), log)
	zerolog.Ctx(ctx).Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}
