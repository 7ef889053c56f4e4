package cliconfig_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/internal/cliconfig"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := cliconfig.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, cliconfig.DefaultTarget, cfg.Target)
	require.Equal(t, cliconfig.DefaultOutput, cfg.Output)
	require.Equal(t, cliconfig.DefaultColor, cfg.Color)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PQLC_TARGET", "postgres")

	cfg, err := cliconfig.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Target)
}

func TestLoad_FileOverridesDefaultsButNotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pqlc.yaml"), []byte("target: duckdb\noutput: json\n"), 0o644))
	t.Setenv("PQLC_OUTPUT", "yaml")

	cfg, err := cliconfig.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "duckdb", cfg.Target, "file beats the built-in default")
	require.Equal(t, "yaml", cfg.Output, "env beats the file per the ascending precedence order")
	require.Equal(t, "pqlc.yaml", cliconfig.GetConfigFileUsed())
}

func TestLoad_FlagsWinOverEverything(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pqlc.yaml"), []byte("target: duckdb\n"), 0o644))
	t.Setenv("PQLC_TARGET", "postgres")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", cliconfig.DefaultTarget, "")
	require.NoError(t, flags.Set("target", "snowflake"))

	cfg, err := cliconfig.Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "snowflake", cfg.Target)
}

func TestLoad_UnchangedFlagDoesNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PQLC_TARGET", "postgres")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", cliconfig.DefaultTarget, "")

	cfg, err := cliconfig.Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Target, "an untouched flag must not shadow the env layer beneath it")
}

func TestLoad_ExplicitConfigFileWins(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	other := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(other, []byte("target: bigquery\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pqlc.yaml"), []byte("target: duckdb\n"), 0o644))

	cfg, err := cliconfig.Load(other, nil)
	require.NoError(t, err)
	require.Equal(t, "bigquery", cfg.Target)
	require.Equal(t, other, cliconfig.GetConfigFileUsed())
}

func TestWithConfigAndFromContext(t *testing.T) {
	cfg := &cliconfig.Config{Target: "mysql"}
	ctx := cliconfig.WithConfig(context.Background(), cfg)
	require.Same(t, cfg, cliconfig.FromContext(ctx))
}

func TestFromContext_FallsBackToDefaults(t *testing.T) {
	cfg := cliconfig.FromContext(context.Background())
	require.Equal(t, cliconfig.DefaultTarget, cfg.Target)
}

func TestWithLoggerAndGetLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := cliconfig.WithLogger(context.Background(), logger)
	require.Same(t, logger, cliconfig.GetLogger(ctx))
}

func TestGetLogger_FallsBackToDiscard(t *testing.T) {
	require.NotNil(t, cliconfig.GetLogger(context.Background()))
}
