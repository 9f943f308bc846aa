//go:build windows

package externalcmd

import (
	"os"
)

func terminate(p *os.Process) {
	p.Kill() //nolint:errcheck
}
