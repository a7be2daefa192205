package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugridgo/internal/cli"
	"github.com/vk/plugridgo/internal/testutil"
)

func TestParse_HelpFlagExitsCleanly(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	cfg, shouldExit, err := cli.Parse([]string{"-h"}, out)
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_NoArgumentsPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	cfg, shouldExit, err := cli.Parse(nil, out)
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "PLUGINS_DIR")
}

func TestParse_UnknownFlagIsExitError(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	_, _, err := cli.Parse([]string{"-no-such-flag"}, out)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_PositionalPluginsDir(t *testing.T) {
	t.Parallel()

	cfg, shouldExit, err := cli.Parse([]string{"./plugins"}, &testutil.SafeBuffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "./plugins", cfg.PluginsPath)
	require.Equal(t, "probe", cfg.JobName)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 64, cfg.CacheSize)
}

func TestParse_PluginsFlagBeatsPositional(t *testing.T) {
	t.Parallel()

	cfg, _, err := cli.Parse([]string{"-plugins", "./flagged", "./positional"}, &testutil.SafeBuffer{})
	require.NoError(t, err)
	require.Equal(t, "./flagged", cfg.PluginsPath)
}

func TestParse_AllOptions(t *testing.T) {
	t.Parallel()

	cfg, shouldExit, err := cli.Parse([]string{
		"-bootstrap", "./bootstrap.hcl",
		"-watch",
		"-job", "ingest",
		"-cache-size", "8",
		"-status-port", "8077",
		"-log-format", "TEXT",
		"-log-level", "DEBUG",
	}, &testutil.SafeBuffer{})
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "./bootstrap.hcl", cfg.BootstrapPath)
	require.True(t, cfg.Watch)
	require.Equal(t, "ingest", cfg.JobName)
	require.Equal(t, 8, cfg.CacheSize)
	require.Equal(t, 8077, cfg.StatusPort)
	require.Equal(t, "text", cfg.LogFormat, "format is lowercased")
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	t.Parallel()

	_, _, err := cli.Parse([]string{"-log-format", "yaml", "./plugins"}, &testutil.SafeBuffer{})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "invalid log-format")
}

func TestParse_InvalidCacheSize(t *testing.T) {
	t.Parallel()

	_, _, err := cli.Parse([]string{"-cache-size", "0", "./plugins"}, &testutil.SafeBuffer{})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "invalid cache-size")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	_, _, err := cli.Parse([]string{"-log-level", "verbose", "./plugins"}, &testutil.SafeBuffer{})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Contains(t, exitErr.Message, "invalid log-level")
}
