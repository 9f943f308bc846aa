// Package recorder contains audio and screen recorders.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bluenviron/avplay/internal/framecache"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/unit"
)

// Kind is the kind of a recorder.
type Kind string

// kinds.
const (
	KindAudio  Kind = "audio"
	KindScreen Kind = "screen"
)

// Params are the parameters of a recording session.
type Params struct {
	// audio
	SampleRate int
	Channels   int

	// screen
	FPS    int
	Width  int
	Height int

	// command backend
	Command string

	MaxCached int
	Overflow  framecache.OverflowPolicy
}

// FrameSize returns the size in bytes of a single chunk.
func (p Params) FrameSize(kind Kind) int {
	if kind == KindAudio {
		return p.SampleRate * p.Channels * 2 * int(audioChunkDuration) / int(time.Second)
	}
	return p.Width * p.Height * 4
}

// Session describes a recording session.
type Session struct {
	ID      uuid.UUID
	Created time.Time
	Params  Params
}

// Recorder captures chunks from a device into a bounded cache.
type Recorder struct {
	Name    string
	Kind    Kind
	Backend string
	Parent  logger.Writer

	newSource SourceFunc
	cache     *framecache.Cache

	mutex   sync.Mutex
	session *Session
}

func (r *Recorder) initialize() {
	r.cache = &framecache.Cache{Parent: r}
	r.cache.Initialize()
}

// Log implements logger.Writer.
func (r *Recorder) Log(level logger.Level, format string, args ...any) {
	r.Parent.Log(level, "[recorder %s] "+format, append([]any{r.Name}, args...)...)
}

// Start starts a recording session.
// A session already in progress is stopped and its cached chunks are released.
func (r *Recorder) Start(params Params) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	fillDefaults(r.Kind, &params)

	src, err := r.newSource(r.Kind, params)
	if err != nil {
		return err
	}

	err = r.cache.Start(framecache.Params{
		Capacity: params.MaxCached,
		Overflow: params.Overflow,
	}, src)
	if err != nil {
		r.session = nil
		return err
	}

	r.session = &Session{
		ID:      uuid.New(),
		Created: time.Now(),
		Params:  params,
	}

	r.Log(logger.Info, "started session %s (%s)", r.session.ID, r.describe(params))

	return nil
}

// Stop stops the recording session. It can be called multiple times.
func (r *Recorder) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.cache.Stop()

	if r.session != nil {
		r.Log(logger.Info, "stopped session %s", r.session.ID)
		r.session = nil
	}
}

// Get returns the oldest captured chunk.
// When block is true, it waits until a chunk is available or the recorder is stopped.
func (r *Recorder) Get(block bool) (unit.Chunk, bool) {
	return r.cache.Get(block)
}

// Running checks whether the recorder is capturing.
func (r *Recorder) Running() bool {
	return r.cache.Running()
}

// Session returns the current session, or nil.
func (r *Recorder) Session() *Session {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.session == nil {
		return nil
	}
	s := *r.session
	return &s
}

// Cached returns the amount of cached chunks.
func (r *Recorder) Cached() int {
	return r.cache.Len()
}

// Stats returns cache statistics.
func (r *Recorder) Stats() framecache.Stats {
	return r.cache.Stats()
}

func (r *Recorder) describe(p Params) string {
	if r.Kind == KindAudio {
		return fmt.Sprintf("%d Hz, %d channels, max %d cached", p.SampleRate, p.Channels, p.MaxCached)
	}
	return fmt.Sprintf("%dx%d, %d FPS, max %d cached", p.Width, p.Height, p.FPS, p.MaxCached)
}
