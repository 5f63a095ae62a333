package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, "pebble", v.GetString("store_engine"))
	assert.Equal(t, "info", v.GetString("log_level"))
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("data-dir", "", "")
	cmd.Flags().String("store-engine", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("config", "", "")
	return cmd
}

func TestLoadRequiresDataDir(t *testing.T) {
	cmd := newTestCommand()
	_, err := Load(cmd)
	require.Error(t, err)
}

func TestLoadAppliesDefaultsAndCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("data-dir", dir))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.StoreEngine)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.DirExists(t, dir)
}

func TestLoadRejectsUnknownStoreEngine(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("data-dir", t.TempDir()))
	require.NoError(t, cmd.Flags().Set("store-engine", "mysql"))

	_, err := Load(cmd)
	require.Error(t, err)
}
