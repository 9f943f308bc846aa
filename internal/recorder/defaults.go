package recorder

import (
	"time"
)

const (
	defaultScreenFPS       = 10
	defaultScreenWidth     = 800
	defaultScreenHeight    = 600
	defaultAudioSampleRate = 44100
	defaultAudioChannels   = 2
	defaultMaxCached       = 10

	audioChunkDuration = 20 * time.Millisecond
)

func fillDefaults(kind Kind, p *Params) {
	if p.MaxCached == 0 {
		p.MaxCached = defaultMaxCached
	}

	switch kind {
	case KindAudio:
		if p.SampleRate == 0 {
			p.SampleRate = defaultAudioSampleRate
		}
		if p.Channels == 0 {
			p.Channels = defaultAudioChannels
		}

	case KindScreen:
		if p.FPS == 0 {
			p.FPS = defaultScreenFPS
		}
		if p.Width == 0 {
			p.Width = defaultScreenWidth
		}
		if p.Height == 0 {
			p.Height = defaultScreenHeight
		}
	}
}
