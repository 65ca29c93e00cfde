package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/qnkhuat/tetris2p/pkg/config"
	"github.com/qnkhuat/tetris2p/pkg/relay"
	"github.com/qnkhuat/tetris2p/pkg/util"
)

const (
	LogTimeFormat = "2006-01-02 15:04:05"
	LogQueueSize  = 100
)

var (
	done = make(chan bool)
)

func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.ListenTCP == "" && cfg.ListenWS == "" {
		fmt.Fprintln(os.Stderr, "at least one listen address is required (--listen-tcp and/or --listen-ws)")
		os.Exit(2)
	}

	if cfg.LogPath != "" {
		logFile, err := util.InitLog(cfg.LogPath, "SERVER: ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer logFile.Close()
	}

	color.NoColor = !util.IsTerminal(os.Stdout)

	server := relay.NewServer()
	if cfg.Verbose {
		server.LogLevel = relay.LogVerbose
	} else if cfg.Debug {
		server.LogLevel = relay.LogDebug
	}

	logger := make(chan relay.LogEntry, LogQueueSize)
	go printLog(logger, cfg.LogPath != "")
	server.Logger = logger

	if cfg.ListenTCP != "" {
		err = server.Listen(cfg.ListenTCP)
		if err != nil {
			log.Fatal(err)
		}
	}
	if cfg.ListenWS != "" {
		err = server.ListenWebSocket(cfg.ListenWS)
		if err != nil {
			log.Fatal(err)
		}
	}

	var sshServer *relay.SSHServer
	if cfg.ListenSSH != "" {
		sshServer, err = newSSHServer(cfg)
		if err != nil {
			log.Fatal(err)
		}

		err = sshServer.Host()
		if err != nil {
			log.Fatal(err)
		}
		logger <- relay.LogEntry{Kind: relay.LogInfo, Text: "Listening for SSH on " + cfg.ListenSSH}
	}

	// Keep the server run
	sigc := make(chan os.Signal, 1)
	// Wait for teminate signal
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc

		done <- true
	}()

	<-done

	if sshServer != nil {
		sshServer.Close()
	}
	err = server.Close()
	if err != nil {
		log.Printf("Failed to close relay: %s", err)
	}
}

// newSSHServer points SSH sessions at the TCP relay.
func newSSHServer(cfg config.Config) (*relay.SSHServer, error) {
	if cfg.ListenTCP == "" {
		return nil, fmt.Errorf("--listen-ssh requires --listen-tcp")
	}

	host, portText, err := net.SplitHostPort(cfg.ListenTCP)
	if err != nil {
		return nil, fmt.Errorf("invalid --listen-tcp address %s: %w", cfg.ListenTCP, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = config.DefaultHost
	}

	port, err := strconv.Atoi(portText)
	if err != nil {
		return nil, fmt.Errorf("invalid --listen-tcp port %s: %w", portText, err)
	}

	return &relay.SSHServer{
		ListenAddress: cfg.ListenSSH,
		ClientBinary:  cfg.ClientBinary,
		RelayHost:     host,
		RelayPort:     port,
		HostKeyFile:   cfg.HostKeyFile,
	}, nil
}

// printLog writes relay events to the console, colored by kind. With a log
// file configured they are also kept there.
func printLog(logger <-chan relay.LogEntry, toFile bool) {
	info := color.New(color.FgWhite)
	join := color.New(color.FgGreen)
	leave := color.New(color.FgYellow)
	failure := color.New(color.FgRed, color.Bold)

	for entry := range logger {
		c := info
		switch entry.Kind {
		case relay.LogJoin:
			c = join
		case relay.LogLeave:
			c = leave
		case relay.LogError:
			c = failure
		}

		fmt.Fprintln(color.Output, time.Now().Format(LogTimeFormat)+" "+c.Sprint(entry.Text))

		if toFile {
			log.Println(entry.Text)
		}
	}
}
