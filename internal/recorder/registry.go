package recorder

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/bluenviron/avplay/internal/capture"
	"github.com/bluenviron/avplay/internal/externalcmd"
	"github.com/bluenviron/avplay/internal/framecache"
	"github.com/bluenviron/avplay/internal/logger"
)

// SourceFunc allocates a capture device for a session.
type SourceFunc func(kind Kind, p Params) (framecache.Source, error)

type backendKey struct {
	kind Kind
	name string
}

// Registry maps backend names to capture devices.
// Callers own the recorders it allocates.
type Registry struct {
	ExternalCmdPool *externalcmd.Pool
	Parent          logger.Writer

	mutex    sync.Mutex
	backends map[backendKey]SourceFunc
}

// Initialize initializes Registry and registers built-in backends.
func (r *Registry) Initialize() {
	if r.Parent == nil {
		r.Parent = logger.NilWriter
	}

	r.backends = make(map[backendKey]SourceFunc)

	r.Register(KindScreen, "testpattern", func(_ Kind, p Params) (framecache.Source, error) {
		return &capture.TestPattern{
			Width:  p.Width,
			Height: p.Height,
			FPS:    p.FPS,
		}, nil
	})

	r.Register(KindAudio, "tone", func(_ Kind, p Params) (framecache.Source, error) {
		return &capture.Tone{
			SampleRate:    p.SampleRate,
			Channels:      p.Channels,
			ChunkDuration: audioChunkDuration,
		}, nil
	})

	commandBackend := func(kind Kind, p Params) (framecache.Source, error) {
		if p.Command == "" {
			return nil, fmt.Errorf("command backend requires a command")
		}

		return &capture.Command{
			Pool:      r.ExternalCmdPool,
			Cmdstr:    p.Command,
			Env:       commandEnv(kind, p),
			FrameSize: p.FrameSize(kind),
		}, nil
	}
	r.Register(KindAudio, "command", commandBackend)
	r.Register(KindScreen, "command", commandBackend)
}

// Register registers a backend. An existing backend with the same name is replaced.
func (r *Registry) Register(kind Kind, name string, fn SourceFunc) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.backends[backendKey{kind, name}] = fn
}

// Backends returns the names of the backends of a kind.
func (r *Registry) Backends(kind Kind) []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var names []string
	for k := range r.backends {
		if k.kind == kind {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

// New allocates a recorder of the given kind that uses the given backend.
func (r *Registry) New(kind Kind, backend string, name string) (*Recorder, error) {
	r.mutex.Lock()
	fn, ok := r.backends[backendKey{kind, backend}]
	r.mutex.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s backend '%s' not found", kind, backend)
	}

	rec := &Recorder{
		Name:      name,
		Kind:      kind,
		Backend:   backend,
		Parent:    r.Parent,
		newSource: fn,
	}
	rec.initialize()

	return rec, nil
}

// NewAudio allocates an AudioRecorder.
func (r *Registry) NewAudio(backend string, name string) (*AudioRecorder, error) {
	rec, err := r.New(KindAudio, backend, name)
	if err != nil {
		return nil, err
	}
	return &AudioRecorder{rec}, nil
}

// NewScreen allocates a ScreenRecorder.
func (r *Registry) NewScreen(backend string, name string) (*ScreenRecorder, error) {
	rec, err := r.New(KindScreen, backend, name)
	if err != nil {
		return nil, err
	}
	return &ScreenRecorder{rec}, nil
}

func commandEnv(kind Kind, p Params) externalcmd.Environment {
	if kind == KindAudio {
		return externalcmd.Environment{
			"AVPLAY_SAMPLE_RATE": strconv.Itoa(p.SampleRate),
			"AVPLAY_CHANNELS":    strconv.Itoa(p.Channels),
		}
	}
	return externalcmd.Environment{
		"AVPLAY_WIDTH":  strconv.Itoa(p.Width),
		"AVPLAY_HEIGHT": strconv.Itoa(p.Height),
		"AVPLAY_FPS":    strconv.Itoa(p.FPS),
	}
}
