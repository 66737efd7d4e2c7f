package cmd

import (
	"log/slog"
	"testing"
	"time"

	"github.com/CheesyGamer77/PrisonWarden/prisonwarden"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshalConfig(t *testing.T) *prisonwarden.Config {
	t.Helper()
	config := prisonwarden.DefaultConfig()
	require.NoError(
		t,
		viper.Unmarshal(
			config,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					LevelToStringHookFunc(),
				),
			),
		),
	)
	return config
}

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()

	config := unmarshalConfig(t)
	assert.Equal(t, prisonwarden.DefaultDatabaseType, config.DatabaseType)
	assert.Equal(t, prisonwarden.DefaultDatabase, config.Database)
	assert.Equal(t, ".", config.Discord.Prefix)
	assert.Equal(t, "idle", config.Discord.Status)
	assert.Equal(t, 7*24*time.Hour, config.Appeals.StaleInviteAge)
	assert.False(t, config.API.Enabled)
	assert.Equal(t, prisonwarden.DefaultAPIListen, config.API.Listen)

	require.NotNil(t, config.LogLevel)
	assert.Equal(t, slog.LevelInfo, config.LogLevel.Level())
	require.NotNil(t, config.Discord.DiscordGoLogLevel)
	assert.Equal(
		t,
		slog.LevelWarn,
		config.Discord.DiscordGoLogLevel.Level(),
	)
}

func TestInitConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("PW_DISCORD_TOKEN", "env-token")
	t.Setenv("PW_LOG_LEVEL", "DEBUG")
	t.Setenv("PW_APPEALS_STALE_INVITE_AGE", "48h")
	initConfig()

	config := unmarshalConfig(t)
	assert.Equal(t, "env-token", config.Discord.Token)
	assert.Equal(t, slog.LevelDebug, config.LogLevel.Level())
	assert.Equal(t, 48*time.Hour, config.Appeals.StaleInviteAge)
}

func TestGetLogLevel(t *testing.T) {
	for _, expected := range []slog.Level{
		slog.LevelDebug,
		slog.LevelInfo,
		slog.LevelWarn,
		slog.LevelError,
	} {
		level, err := getLogLevel(expected.String())
		require.NoError(t, err)
		assert.Equal(t, expected, level)
	}

	_, err := getLogLevel("LOUD")
	assert.Error(t, err)
}

func TestLevelStringToLevelVar(t *testing.T) {
	level, err := levelStringToLevelVar("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level.Level())

	_, err = levelStringToLevelVar("LOUD")
	assert.Error(t, err)
}
