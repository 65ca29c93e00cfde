//go:build !windows

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"
)

const SSHIdleTimeout = 5 * time.Minute

// SSHServer lets players join without installing the client: every SSH
// session runs ClientBinary in a pseudo-terminal, connected to the relay at
// RelayHost:RelayPort.
type SSHServer struct {
	ListenAddress string
	ClientBinary  string
	RelayHost     string
	RelayPort     int

	// HostKeyFile is optional. Without it an ephemeral key is generated.
	HostKeyFile string

	server *ssh.Server
}

// ClientArgs is the command line the client is started with for user.
func (s *SSHServer) ClientArgs(user string) []string {
	return []string{
		"--nick", Nickname(user),
		"--host", s.RelayHost,
		"--port", strconv.Itoa(s.RelayPort),
		"--connect",
	}
}

func (s *SSHServer) handle(sshSession ssh.Session) {
	ptyReq, winCh, isPty := sshSession.Pty()
	if !isPty {
		io.WriteString(sshSession, "failed to start tetris2p: non-interactive terminals are not supported\n")

		sshSession.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sshSession.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.ClientBinary, s.ClientArgs(sshSession.User())...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		io.WriteString(sshSession, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sshSession.Exit(1)
		return
	}
	defer f.Close()

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, sshSession)
	}()
	io.Copy(sshSession, f)

	cancelCmd()
	cmd.Wait()
}

// Host starts serving SSH sessions in the background.
func (s *SSHServer) Host() error {
	if s.ListenAddress == "" {
		return errors.New("SSH server ListenAddress must be specified")
	} else if s.ClientBinary == "" {
		return errors.New("SSH server ClientBinary must be specified")
	}

	server := &ssh.Server{
		Addr:        s.ListenAddress,
		IdleTimeout: SSHIdleTimeout,
		Handler:     s.handle,
		PtyCallback: func(ctx ssh.Context, pty ssh.Pty) bool {
			return true
		},
		PublicKeyHandler: func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		},
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			return true
		},
		KeyboardInteractiveHandler: func(ctx ssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		},
	}

	if s.HostKeyFile != "" {
		if _, err := os.Stat(s.HostKeyFile); err == nil {
			err = server.SetOption(ssh.HostKeyFile(s.HostKeyFile))
			if err != nil {
				return fmt.Errorf("load host key: %w", err)
			}
		}
	}

	s.server = server

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Printf("SSH server stopped: %s", err)
		}
	}()

	return nil
}

func (s *SSHServer) Close() error {
	if s.server == nil {
		return nil
	}

	return s.server.Close()
}
