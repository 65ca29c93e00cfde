package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/config"
	"github.com/qnkhuat/tetris2p/pkg/gui"
	"github.com/qnkhuat/tetris2p/pkg/protocol"
	"github.com/qnkhuat/tetris2p/pkg/relay"
	"github.com/qnkhuat/tetris2p/pkg/util"
)

func main() {
	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if !util.IsTerminal(os.Stdin) || !util.IsTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr, "failed to start tetris2p: non-interactive terminals are not supported")
		os.Exit(1)
	}

	logFile, err := util.InitLog(cfg.LogPath, "CLIENT: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.Printf("New client %s", cfg.Nick)

	ui := gui.New(gui.ThemeBasic, cfg.Nick, cfg.Width, cfg.Height)

	session := protocol.NewSession(ui, cfg.Host, cfg.Port, relay.Host)
	session.SetNick(cfg.Nick)
	session.Local = board.New(cfg.Board(), board.Listeners{ui, session})
	session.Mirror = board.NewMirror(cfg.Width, cfg.Height, ui.MirrorListener())
	ui.Attach(session)

	session.Local.Start()
	ui.Print(fmt.Sprintf("Welcome %s. Press P to play, /start to host a match or /connect to join one.", cfg.Nick))

	if cfg.Connect {
		go session.Connect()
	}

	// Down when receive killed signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc
		session.Quit()
	}()

	if err := ui.Run(); err != nil {
		log.Printf("GUI stopped: %s", err)
	}

	session.Quit()
	log.Println("Client stopped")
}
