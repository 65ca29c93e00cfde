// Package config gathers settings for both binaries. Values come from
// built-in defaults, then a .env file, then TETRIS2P_* environment variables,
// then command line flags, each overriding the previous.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/joho/godotenv"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/ticker"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 1337
	DefaultEnvFile = ".env"

	EnvPrefix = "TETRIS2P_"
)

type Config struct {
	Host string
	Port int
	Nick string

	// Connect makes the client connect to Host:Port on startup.
	Connect bool

	LogPath string
	Debug   bool
	Verbose bool

	TickInterval time.Duration
	InitialDelay time.Duration
	LockDelay    time.Duration
	Width        int
	Height       int

	ListenTCP    string
	ListenWS     string
	ListenSSH    string
	ClientBinary string
	HostKeyFile  string
}

func Default() Config {
	return Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		TickInterval: ticker.DefaultInterval,
		InitialDelay: ticker.DefaultInitialDelay,
		Width:        board.DefaultWidth,
		Height:       board.DefaultHeight,
	}
}

// Board returns the board settings.
func (c Config) Board() board.Config {
	return board.Config{
		Width:        c.Width,
		Height:       c.Height,
		InitialDelay: c.InitialDelay,
		TickInterval: c.TickInterval,
		LockDelay:    c.LockDelay,
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	} else if c.Width < 4 || c.Height < 4 {
		return fmt.Errorf("invalid board size %dx%d", c.Width, c.Height)
	} else if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %s", c.TickInterval)
	} else if c.InitialDelay < 0 || c.LockDelay < 0 {
		return errors.New("delays must not be negative")
	}

	return nil
}

type lookupFunc func(key string) (string, bool)

// LoadClient reads the client configuration.
func LoadClient(args []string) (Config, error) {
	return load("tetris2p", args, clientFlags, DefaultEnvFile, os.LookupEnv)
}

// LoadServer reads the relay configuration.
func LoadServer(args []string) (Config, error) {
	return load("tetris2p-server", args, serverFlags, DefaultEnvFile, os.LookupEnv)
}

func load(name string, args []string, register func(*flag.FlagSet, *Config), envFile string, lookupEnv lookupFunc) (Config, error) {
	c := Default()

	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("read %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}

	err = c.applyEnv(lookup)
	if err != nil {
		return c, err
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	register(flags, &c)
	err = flags.Parse(args)
	if err != nil {
		return c, err
	}

	if c.Nick == "" {
		c.Nick = petname.Generate(2, "-")
	}

	return c, c.Validate()
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = i
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("HOST", &c.Host)
	integer("PORT", &c.Port)
	str("NICK", &c.Nick)
	boolean("CONNECT", &c.Connect)
	str("LOG", &c.LogPath)
	boolean("DEBUG", &c.Debug)
	boolean("VERBOSE", &c.Verbose)
	duration("TICK", &c.TickInterval)
	duration("FIRST_TICK", &c.InitialDelay)
	duration("LOCK_DELAY", &c.LockDelay)
	integer("WIDTH", &c.Width)
	integer("HEIGHT", &c.Height)
	str("LISTEN_TCP", &c.ListenTCP)
	str("LISTEN_WS", &c.ListenWS)
	str("LISTEN_SSH", &c.ListenSSH)
	str("CLIENT", &c.ClientBinary)
	str("HOST_KEY", &c.HostKeyFile)

	return errors.Join(errs...)
}

func commonFlags(flags *flag.FlagSet, c *Config) {
	flags.StringVar(&c.LogPath, "log", c.LogPath, "write log to file")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging")
	flags.BoolVar(&c.Verbose, "verbose", c.Verbose, "enable verbose logging")
}

func clientFlags(flags *flag.FlagSet, c *Config) {
	commonFlags(flags, c)

	flags.StringVar(&c.Host, "host", c.Host, "relay host, a ws:// URL connects over websocket")
	flags.IntVar(&c.Port, "port", c.Port, "relay port")
	flags.StringVar(&c.Nick, "nick", c.Nick, "nickname")
	flags.BoolVar(&c.Connect, "connect", c.Connect, "connect to the relay on startup")
	flags.DurationVar(&c.TickInterval, "tick", c.TickInterval, "time between piece descents")
	flags.DurationVar(&c.InitialDelay, "first-tick", c.InitialDelay, "delay before the first descent")
	flags.DurationVar(&c.LockDelay, "lock-delay", c.LockDelay, "grace period before a landed piece locks")
	flags.IntVar(&c.Width, "width", c.Width, "board width")
	flags.IntVar(&c.Height, "height", c.Height, "board height")
}

func serverFlags(flags *flag.FlagSet, c *Config) {
	commonFlags(flags, c)

	flags.StringVar(&c.ListenTCP, "listen-tcp", c.ListenTCP, "host relay on network address")
	flags.StringVar(&c.ListenWS, "listen-ws", c.ListenWS, "host websocket relay on network address")
	flags.StringVar(&c.ListenSSH, "listen-ssh", c.ListenSSH, "host SSH server on network address")
	flags.StringVar(&c.ClientBinary, "client", c.ClientBinary, "path to the tetris2p client, used by the SSH server")
	flags.StringVar(&c.HostKeyFile, "host-key", c.HostKeyFile, "SSH host key file")
}
