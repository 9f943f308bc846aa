package core

import (
	"io"
	"os"
	"time"

	"github.com/bluenviron/avplay/internal/audioout"
	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/defs"
	"github.com/bluenviron/avplay/internal/demux"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/player"
	"github.com/bluenviron/avplay/internal/render"
)

// playerInstance is a player together with the files it writes to.
type playerInstance struct {
	conf   conf.Player
	parent logger.Writer

	audioOutput *os.File
	inner       *player.Player
}

func (i *playerInstance) initialize() error {
	var demuxer demux.Demuxer
	var err error

	if i.conf.AudioCodec != "" {
		demuxer, err = demux.OpenRaw(i.conf.Source, i.conf.AudioCodec, i.conf.SampleRate, i.conf.Channels)
	} else {
		demuxer, err = demux.Open(i.conf.Source, i.parent)
	}
	if err != nil {
		return err
	}

	var audioDevice audioout.Device

	if i.conf.AudioDevice != "none" {
		var w io.Writer = io.Discard

		if i.conf.AudioOutput != "" {
			i.audioOutput, err = os.Create(i.conf.AudioOutput)
			if err != nil {
				demuxer.Close() //nolint:errcheck
				return err
			}
			w = i.audioOutput
		}

		audioDevice, err = audioout.New(i.conf.AudioDevice, w, i.parent)
		if err != nil {
			demuxer.Close() //nolint:errcheck
			i.closeAudioOutput()
			return err
		}
	}

	var sink render.Sink

	if i.conf.VideoSink != "none" {
		sink, err = render.NewSink(i.conf.VideoSink, i.conf.VideoSinkPath, i.parent)
		if err != nil {
			demuxer.Close() //nolint:errcheck
			i.closeAudioOutput()
			return err
		}
	}

	i.inner = &player.Player{
		Demuxer:      demuxer,
		AudioDevice:  audioDevice,
		Sink:         sink,
		AudioSamples: i.conf.AudioBufferSamples,
		MaxQueueSize: int(i.conf.MaxQueueSize),
		FrameDelay:   time.Duration(i.conf.FrameDelay),
		Parent:       i.parent,
	}
	err = i.inner.Initialize()
	if err != nil {
		i.closeAudioOutput()
		return err
	}

	return nil
}

func (i *playerInstance) closeAudioOutput() {
	if i.audioOutput != nil {
		i.audioOutput.Close() //nolint:errcheck
	}
}

func (i *playerInstance) close() {
	i.inner.Close()
	i.closeAudioOutput()
}

func (i *playerInstance) done() <-chan struct{} {
	return i.inner.Done()
}

func (p *Core) setPlayer(i *playerInstance) *playerInstance {
	p.playerMutex.Lock()
	defer p.playerMutex.Unlock()
	prev := p.player
	p.player = i
	return prev
}

func (p *Core) startPlayer() error {
	if p.conf.Player.Source == "" {
		return nil
	}

	i := &playerInstance{
		conf:   p.conf.Player,
		parent: p,
	}
	err := i.initialize()
	if err != nil {
		return err
	}

	p.setPlayer(i)
	return nil
}

// called by the run routine, that is the only writer.
func (p *Core) playerDone() <-chan struct{} {
	if p.player != nil {
		return p.player.done()
	}
	return nil
}

// APIPlayerStats implements defs.APIPlayer.
func (p *Core) APIPlayerStats() (*defs.APIPlayerStats, error) {
	p.playerMutex.RLock()
	defer p.playerMutex.RUnlock()

	if p.player == nil {
		return nil, defs.ErrPlayerNotRunning
	}

	return &defs.APIPlayerStats{
		Source: p.player.conf.Source,
		Stats:  p.player.inner.Stats(),
	}, nil
}
