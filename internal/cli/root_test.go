package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ultistats", cmd.Use)
	assert.Contains(t, cmd.Long, "statkeeper")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"serve", "new-game", "game", "record", "undo", "comment",
		"next-point", "timeline", "legal", "watch", "scenario",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"serve", "addr", ""},
		{"new-game", "pulling", "one"},
		{"new-game", "offline", "false"},
		{"record", "tag", "[]"},
		{"comment", "point", ""},
		{"timeline", "point", ""},
		{"legal", "pulling", "false"},
		{"watch", "relay", ""},
		{"scenario", "update", "false"},
		{"scenario", "filter", ""},
		{"scenario", "golden", ""},
	}

	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := NewRootCommand().Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "game", "g1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestResolve_EnvironmentUnderFlags(t *testing.T) {
	t.Setenv("ULTISTATS_DB", "/tmp/from-env.db")
	t.Setenv("ULTISTATS_TEAM_ONE", "Hammers")

	opts := &RootOptions{}
	cmd := NewRootCommand()
	require.NoError(t, opts.resolve(cmd))
	assert.Equal(t, "/tmp/from-env.db", opts.DB)
	assert.Equal(t, "Hammers", opts.Config.TeamOne)

	opts = &RootOptions{}
	cmd = NewRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--db", "/tmp/flag.db"}))
	opts.DB = "/tmp/flag.db"
	require.NoError(t, opts.resolve(cmd))
	assert.Equal(t, "/tmp/flag.db", opts.DB, "flag wins over environment")
}
