package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worrylog/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	require.NotNil(t, cmd)
	assert.Equal(t, "worrylog", cmd.Use)
	assert.Contains(t, cmd.Long, "PIN-protected")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	commands := []string{"unlock", "add", "edit", "list", "show", "delete", "export", "import", "pin", "wipe", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestPINSubcommands(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	for _, name := range []string{"status", "set", "change"} {
		sub, _, err := cmd.Find([]string{"pin", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{DBPath: "/tmp/x.db", Format: "text", PIN: "1234"})

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "/tmp/x.db", dbFlag.DefValue, "defaults come from config")

	pinFlag := cmd.PersistentFlags().Lookup("pin")
	require.NotNil(t, pinFlag)
	assert.Equal(t, "1234", pinFlag.DefValue)
}

func TestListCommandFlags(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)

	sortFlag := listCmd.Flags().Lookup("sort")
	require.NotNil(t, sortFlag)
	assert.Equal(t, "newest", sortFlag.DefValue)

	searchFlag := listCmd.Flags().Lookup("search")
	require.NotNil(t, searchFlag)
	assert.Equal(t, "s", searchFlag.Shorthand)
}

func TestAddCommandFlags(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	addCmd, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)

	for _, name := range []string{"file", "title", "date", "anxiety", "scenario", "benefit",
		"evidence-for", "evidence-against", "tiny-action", "tiny-when", "reset", "reflection"} {
		assert.NotNil(t, addCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommandWithConfig(&config.Config{Format: "text"})
	cmd.SetArgs([]string{"--format", "invalid", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
