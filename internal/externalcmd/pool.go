package externalcmd

import (
	"sync"
)

// Pool keeps track of running commands.
type Pool struct {
	mutex   sync.Mutex
	wg      sync.WaitGroup
	running map[*Cmd]struct{}
}

// Initialize initializes a Pool.
func (p *Pool) Initialize() {
	p.running = make(map[*Cmd]struct{})
}

// Close waits for all commands to exit.
func (p *Pool) Close() {
	p.wg.Wait()
}

// Running returns the number of running commands.
func (p *Pool) Running() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.running)
}

func (p *Pool) add(e *Cmd) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.wg.Add(1)
	p.running[e] = struct{}{}
}

func (p *Pool) remove(e *Cmd) {
	p.mutex.Lock()
	delete(p.running, e)
	p.mutex.Unlock()
	p.wg.Done()
}
