// Package player contains the media player.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/bluenviron/avplay/internal/audiofill"
	"github.com/bluenviron/avplay/internal/audioout"
	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/demux"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/packetqueue"
	"github.com/bluenviron/avplay/internal/render"
	"github.com/bluenviron/avplay/internal/unit"
)

const (
	// DefaultMaxQueueSize is the default amount of queued audio bytes
	// above which the reader pauses.
	DefaultMaxQueueSize = 15 * 1024 * 1024
)

// Stats are player statistics.
type Stats struct {
	QueuedPackets     int    `json:"queuedPackets"`
	QueuedBytes       int    `json:"queuedBytes"`
	AudioUnderruns    uint64 `json:"audioUnderruns"`
	AudioSilentBytes  uint64 `json:"audioSilentBytes"`
	AudioDecodeErrors uint64 `json:"audioDecodeErrors"`
	AudioDecodedBytes uint64 `json:"audioDecodedBytes"`
	VideoDecodeErrors uint64 `json:"videoDecodeErrors"`
	PresentedPictures uint64 `json:"presentedPictures"`
	DiscardedPictures uint64 `json:"discardedPictures"`
	DroppedPackets    uint64 `json:"droppedPackets"`
}

// Player reads a container, decodes video synchronously and hands
// audio packets to the audio device through a packet queue.
type Player struct {
	Demuxer      demux.Demuxer
	AudioDevice  audioout.Device
	Sink         render.Sink
	AudioSamples int
	MaxQueueSize int
	FrameDelay   time.Duration
	Parent       logger.Writer

	ctx             context.Context
	ctxCancel       func()
	audioTrack      *demux.Track
	videoTrack      *demux.Track
	queue           *packetqueue.Queue
	refiller        *audiofill.Refiller
	callback        *audiofill.Callback
	audioDec        codec.AudioDecoder
	videoDec        codec.VideoDecoder
	presenter       *render.Presenter
	decodeErrLogger logger.Writer
	videoErrors     atomic.Uint64
	dropped         atomic.Uint64
	err             error

	// out
	done chan struct{}
}

// Initialize initializes Player and starts playback.
// Demuxer, AudioDevice and Sink are owned by Player, even when Initialize fails.
func (p *Player) Initialize() error {
	if p.Parent == nil {
		p.Parent = logger.NilWriter
	}
	if p.MaxQueueSize == 0 {
		p.MaxQueueSize = DefaultMaxQueueSize
	}

	p.decodeErrLogger = logger.NewLimitedLogger(p)

	err := p.setup()
	if err != nil {
		if p.presenter == nil && p.Sink != nil {
			p.Sink.Close() //nolint:errcheck
		}
		p.closeVideo()
		if p.audioDec != nil {
			p.audioDec.Close()
		}
		p.Demuxer.Close() //nolint:errcheck
		return err
	}

	p.ctx, p.ctxCancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	if p.audioTrack != nil {
		p.AudioDevice.Start()
	}

	go p.run()

	return nil
}

func (p *Player) setup() error {
	for _, track := range p.Demuxer.Tracks() {
		switch track.Type {
		case unit.StreamTypeAudio:
			if p.audioTrack != nil || p.AudioDevice == nil {
				continue
			}

			if track.SampleRate <= 0 || track.Channels <= 0 {
				p.Log(logger.Warn, "skipping audio track %d: unknown sample format", track.Index)
				continue
			}

			dec, err := codec.NewAudioDecoder(track.Codec, track.SampleRate, track.Channels)
			if err != nil {
				p.Log(logger.Warn, "skipping audio track %d: %v", track.Index, err)
				continue
			}

			tr := track
			p.audioTrack = &tr
			p.audioDec = dec

		case unit.StreamTypeVideo:
			if p.videoTrack != nil || p.Sink == nil {
				continue
			}

			dec, err := codec.NewVideoDecoder(track.Codec)
			if err != nil {
				p.Log(logger.Warn, "skipping video track %d: %v", track.Index, err)
				continue
			}

			tr := track
			p.videoTrack = &tr
			p.videoDec = dec
		}
	}

	if p.audioTrack == nil && p.videoTrack == nil {
		return fmt.Errorf("no playable tracks")
	}

	p.queue = &packetqueue.Queue{
		HardLimit: 2 * p.MaxQueueSize,
	}
	p.queue.Initialize()

	if p.videoTrack != nil {
		p.presenter = &render.Presenter{
			Sink:   p.Sink,
			Delay:  p.FrameDelay,
			Parent: p,
		}
		err := p.presenter.Initialize()
		if err != nil {
			p.presenter = nil
			return err
		}

		p.Log(logger.Info, "video: %s", p.videoTrack.Codec)
	}

	if p.audioTrack != nil {
		p.refiller = &audiofill.Refiller{
			Queue:       p.queue,
			Decoder:     p.audioDec,
			NonBlocking: true,
			Parent:      p,
		}
		p.refiller.Initialize()

		p.callback = &audiofill.Callback{
			Refiller: p.refiller,
		}

		err := p.AudioDevice.Initialize(audioout.Spec{
			SampleRate: p.audioTrack.SampleRate,
			Channels:   p.audioTrack.Channels,
			Samples:    p.AudioSamples,
		}, p.callback.Render)
		if err != nil {
			return fmt.Errorf("unable to initialize audio device: %w", err)
		}

		p.Log(logger.Info, "audio: %s, %d Hz, %d channels",
			p.audioTrack.Codec, p.audioTrack.SampleRate, p.audioTrack.Channels)
	}

	return nil
}

// Log implements logger.Writer.
func (p *Player) Log(level logger.Level, format string, args ...any) {
	p.Parent.Log(level, "[player] "+format, args...)
}

// Close stops playback and releases resources.
func (p *Player) Close() {
	p.ctxCancel()
	<-p.done
}

// Wait waits for the end of playback.
func (p *Player) Wait() error {
	<-p.done
	return p.err
}

// Done returns a channel that is closed at the end of playback.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Stats returns player statistics.
func (p *Player) Stats() Stats {
	s := Stats{
		QueuedPackets:     p.queue.Len(),
		QueuedBytes:       p.queue.Size(),
		VideoDecodeErrors: p.videoErrors.Load(),
		DroppedPackets:    p.dropped.Load(),
	}

	if p.callback != nil {
		s.AudioUnderruns = p.callback.Underruns()
		s.AudioSilentBytes = p.callback.SilentBytes()
		s.AudioDecodeErrors = p.refiller.DecodeErrors()
		s.AudioDecodedBytes = p.refiller.DecodedBytes()
	}

	if p.presenter != nil {
		s.PresentedPictures = p.presenter.Presented()
		s.DiscardedPictures = p.presenter.Discarded()
	}

	return s
}

func (p *Player) run() {
	defer close(p.done)

	p.err = p.runInner()
	if p.err != nil {
		p.Log(logger.Error, "%v", p.err)
	}

	p.queue.Shutdown()

	if p.audioTrack != nil {
		p.AudioDevice.Close()
		p.audioDec.Close()
	}

	p.closeVideo()

	n := p.queue.Flush()
	if n != 0 {
		p.Log(logger.Debug, "%d queued packets released", n)
	}

	p.Demuxer.Close() //nolint:errcheck

	p.ctxCancel()
}

func (p *Player) closeVideo() {
	// Stats() keeps reading the presenter counters after close
	if p.presenter != nil {
		p.presenter.Close()
	}
	if p.videoDec != nil {
		p.videoDec.Close()
	}
}

func (p *Player) runInner() error {
	for {
		if p.audioTrack != nil {
			if !p.queue.WaitBelow(p.ctx, p.MaxQueueSize) {
				return nil
			}
		}

		pkt, err := p.Demuxer.Read(p.ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.Log(logger.Info, "end of stream")
				return p.drain()
			}
			if p.ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch {
		case p.videoTrack != nil && pkt.StreamIndex == p.videoTrack.Index:
			if !p.decodeVideo(pkt) {
				return nil
			}

		case p.audioTrack != nil && pkt.StreamIndex == p.audioTrack.Index:
			err = p.queue.Put(pkt)
			if err != nil {
				p.dropped.Add(1)
				p.decodeErrLogger.Log(logger.Warn, "audio packet dropped: %v", err)
			}

		default:
			p.dropped.Add(1)
		}
	}
}

func (p *Player) decodeVideo(pkt *unit.Packet) bool {
	pics, err := p.videoDec.Decode(pkt)
	if err != nil {
		p.videoErrors.Add(1)
		p.decodeErrLogger.Log(logger.Warn, "unable to decode video packet: %v", err)
		return true
	}

	return p.present(pics)
}

func (p *Player) present(pics []*codec.Picture) bool {
	for _, pic := range pics {
		if !p.presenter.Present(p.ctx, pic) {
			return false
		}
	}
	return true
}

// drain presents pictures buffered inside the video decoder and waits
// until all queued audio has been consumed.
func (p *Player) drain() error {
	if p.videoTrack != nil {
		if !p.present(p.videoDec.Flush()) {
			return nil
		}
	}

	if p.audioTrack != nil {
		p.queue.WaitBelow(p.ctx, 1)

		// let the device play the last decoded frame
		n := p.callback.Renders()
		for p.ctx.Err() == nil && (p.callback.Renders() == n || p.callback.Buffered() != 0) {
			t := time.NewTimer(10 * time.Millisecond)
			select {
			case <-t.C:
			case <-p.ctx.Done():
				t.Stop()
			}
		}
	}

	return nil
}
