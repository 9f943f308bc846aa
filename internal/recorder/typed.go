package recorder

import (
	"github.com/bluenviron/avplay/internal/framecache"
	"github.com/bluenviron/avplay/internal/unit"
)

// AudioParams are the parameters of an audio recording.
type AudioParams struct {
	SampleRate int
	Channels   int
	MaxCached  int
	Overflow   framecache.OverflowPolicy
	Command    string
}

// AudioRecorder captures interleaved signed 16-bit PCM.
type AudioRecorder struct {
	*Recorder
}

// Start starts capturing.
func (r *AudioRecorder) Start(p AudioParams) error {
	return r.Recorder.Start(Params{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		MaxCached:  p.MaxCached,
		Overflow:   p.Overflow,
		Command:    p.Command,
	})
}

// GetPCM returns the oldest PCM chunk.
func (r *AudioRecorder) GetPCM(block bool) (unit.Chunk, bool) {
	return r.Get(block)
}

// ScreenParams are the parameters of a screen recording.
type ScreenParams struct {
	FPS       int
	Width     int
	Height    int
	MaxCached int
	Overflow  framecache.OverflowPolicy
	Command   string
}

// ScreenRecorder captures BGRA pictures.
type ScreenRecorder struct {
	*Recorder
}

// Start starts capturing.
func (r *ScreenRecorder) Start(p ScreenParams) error {
	return r.Recorder.Start(Params{
		FPS:       p.FPS,
		Width:     p.Width,
		Height:    p.Height,
		MaxCached: p.MaxCached,
		Overflow:  p.Overflow,
		Command:   p.Command,
	})
}

// GetBGRA returns the oldest picture.
func (r *ScreenRecorder) GetBGRA(block bool) (unit.Chunk, bool) {
	return r.Get(block)
}
