// Package externalcmd allows to launch external commands.
package externalcmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Environment is a Cmd environment.
type Environment map[string]string

// Cmd is an external command whose standard output is read by the caller.
type Cmd struct {
	Pool   *Pool
	Cmdstr string
	Env    Environment

	// where standard error is written. Defaults to os.Stderr.
	Stderr io.Writer

	cmd     *exec.Cmd
	stdout  *os.File
	exitErr error

	// out
	done chan struct{}
}

// Start starts the command.
func (e *Cmd) Start() error {
	// replace variables in both Linux and Windows, in order to allow using the
	// same commands on both of them.
	cmdstr := e.Cmdstr
	for key, val := range e.Env {
		cmdstr = strings.ReplaceAll(cmdstr, "$"+key, val)
	}

	cmdParts, err := shellquote.Split(cmdstr)
	if err != nil {
		return err
	}
	if len(cmdParts) == 0 {
		return fmt.Errorf("empty command")
	}

	e.cmd = exec.Command(cmdParts[0], cmdParts[1:]...)

	e.cmd.Env = append([]string(nil), os.Environ()...)
	for key, val := range e.Env {
		e.cmd.Env = append(e.cmd.Env, key+"="+val)
	}

	if e.Stderr != nil {
		e.cmd.Stderr = e.Stderr
	} else {
		e.cmd.Stderr = os.Stderr
	}

	// use a dedicated pipe, since the one returned by StdoutPipe() is closed by Wait()
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	e.cmd.Stdout = w

	err = e.cmd.Start()
	w.Close()
	if err != nil {
		r.Close()
		return err
	}

	e.stdout = r
	e.done = make(chan struct{})

	if e.Pool != nil {
		e.Pool.add(e)
	}

	go e.run()

	return nil
}

func (e *Cmd) run() {
	defer close(e.done)

	if e.Pool != nil {
		defer e.Pool.remove(e)
	}

	e.exitErr = e.cmd.Wait()
}

// Read reads from the standard output of the command.
// It returns io.EOF when the command exits.
func (e *Cmd) Read(p []byte) (int, error) {
	return e.stdout.Read(p)
}

// Close terminates the command and waits for it to exit.
func (e *Cmd) Close() {
	select {
	case <-e.done:
	default:
		terminate(e.cmd.Process)
		<-e.done
	}
	e.stdout.Close()
}

// Wait waits for the command to exit and returns its exit error.
func (e *Cmd) Wait() error {
	<-e.done
	return e.exitErr
}
