// Package util holds process setup shared by both binaries.
package util

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// InitLog sends the standard logger to dest with prefix. An empty dest
// discards log output, the terminal belongs to the interface.
func InitLog(dest, prefix string) (io.Closer, error) {
	log.SetPrefix(prefix)

	if dest == "" {
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	log.SetOutput(f)

	return f, nil
}

// IsTerminal reports whether f is an interactive terminal, Cygwin and MSYS
// terminals included.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return term.IsTerminal(int(fd)) || isatty.IsCygwinTerminal(fd)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
