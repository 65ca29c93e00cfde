//go:build windows

package relay

import (
	"errors"
)

type SSHServer struct {
	ListenAddress string
	ClientBinary  string
	RelayHost     string
	RelayPort     int
	HostKeyFile   string
}

func (s *SSHServer) Host() error {
	return errors.New("SSH server is not supported on windows")
}

func (s *SSHServer) Close() error {
	return nil
}
