//go:build windows

package logger

import (
	"fmt"
	"io"
)

func newSysLog(_ string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("syslog is not available on Windows")
}
