//go:build !windows

package externalcmd

import (
	"os"
	"syscall"
)

func terminate(p *os.Process) {
	p.Signal(syscall.SIGINT) //nolint:errcheck
}
