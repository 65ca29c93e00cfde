package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := load("test", nil, clientFlags, filepath.Join(t.TempDir(), "missing"), env(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, c.Host)
	assert.Equal(t, DefaultPort, c.Port)
	assert.Equal(t, 600*time.Millisecond, c.TickInterval)
	assert.Equal(t, 700*time.Millisecond, c.InitialDelay)
	assert.Equal(t, time.Duration(0), c.LockDelay)
	assert.Equal(t, 10, c.Width)
	assert.Equal(t, 20, c.Height)
	assert.NotEmpty(t, c.Nick)
	assert.False(t, c.Connect)
}

func TestLoadPrecedence(t *testing.T) {
	envFile := writeEnvFile(t, "TETRIS2P_HOST=dotenv.example\nTETRIS2P_PORT=2000\nTETRIS2P_NICK=dot\nTETRIS2P_TICK=1s\n")

	c, err := load("test", nil, clientFlags, envFile, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "dotenv.example", c.Host)
	assert.Equal(t, 2000, c.Port)
	assert.Equal(t, "dot", c.Nick)
	assert.Equal(t, time.Second, c.TickInterval)

	c, err = load("test", nil, clientFlags, envFile, env(map[string]string{
		"TETRIS2P_PORT":       "3000",
		"TETRIS2P_LOCK_DELAY": "50ms",
	}))
	require.NoError(t, err)
	assert.Equal(t, "dotenv.example", c.Host)
	assert.Equal(t, 3000, c.Port)
	assert.Equal(t, 50*time.Millisecond, c.LockDelay)

	c, err = load("test", []string{"--port", "4000", "--nick", "flag", "--connect"}, clientFlags, envFile, env(map[string]string{
		"TETRIS2P_PORT": "3000",
	}))
	require.NoError(t, err)
	assert.Equal(t, 4000, c.Port)
	assert.Equal(t, "flag", c.Nick)
	assert.True(t, c.Connect)
}

func TestLoadServerFlags(t *testing.T) {
	c, err := load("test", []string{"--listen-tcp", ":1337", "--listen-ssh", ":2222", "--client", "/usr/bin/tetris2p"}, serverFlags, "", env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":1337", c.ListenTCP)
	assert.Equal(t, ":2222", c.ListenSSH)
	assert.Equal(t, "/usr/bin/tetris2p", c.ClientBinary)

	_, err = load("test", []string{"--width", "12"}, serverFlags, "", env(nil))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		args []string
	}{
		{"port not a number", map[string]string{"TETRIS2P_PORT": "abc"}, nil},
		{"bad duration", map[string]string{"TETRIS2P_TICK": "soon"}, nil},
		{"bad bool", map[string]string{"TETRIS2P_DEBUG": "maybe"}, nil},
		{"port out of range", nil, []string{"--port", "70000"}},
		{"tiny board", nil, []string{"--width", "2"}},
		{"zero tick", nil, []string{"--tick", "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load("test", tt.args, clientFlags, "", env(tt.vars))
			assert.Error(t, err)
		})
	}
}

func TestBoardConfig(t *testing.T) {
	c := Default()
	c.LockDelay = 30 * time.Millisecond

	b := c.Board()
	assert.Equal(t, c.Width, b.Width)
	assert.Equal(t, c.Height, b.Height)
	assert.Equal(t, c.TickInterval, b.TickInterval)
	assert.Equal(t, c.InitialDelay, b.InitialDelay)
	assert.Equal(t, c.LockDelay, b.LockDelay)
}
