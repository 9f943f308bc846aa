//go:build ffmpeg

package codec

import (
	"fmt"
	"runtime"
	"unsafe"
)

// #cgo pkg-config: libavcodec libavutil libswresample
// #include <libavcodec/avcodec.h>
// #include <libavutil/channel_layout.h>
// #include <libswresample/swresample.h>
import "C"

var ffmpegAudioCodecs = map[string]C.enum_AVCodecID{
	"aac":  C.AV_CODEC_ID_AAC,
	"opus": C.AV_CODEC_ID_OPUS,
	"mp3":  C.AV_CODEC_ID_MP3,
}

// FFmpegAudio is a wrapper around FFmpeg's audio decoders.
// Frames are converted to interleaved signed 16-bit samples with the
// sample rate and channel count of the track.
type FFmpegAudio struct {
	Codec      string
	SampleRate int
	Channels   int

	codecCtx *C.AVCodecContext
	frame    *C.AVFrame
	outFrame *C.AVFrame
	swrCtx   *C.struct_SwrContext
}

func newCompressedAudioDecoder(codec string, sampleRate int, channels int) (AudioDecoder, error) {
	d := &FFmpegAudio{
		Codec:      codec,
		SampleRate: sampleRate,
		Channels:   channels,
	}
	err := d.Initialize()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Initialize initializes FFmpegAudio.
func (d *FFmpegAudio) Initialize() error {
	id, ok := ffmpegAudioCodecs[d.Codec]
	if !ok {
		return fmt.Errorf("unsupported audio codec: %s", d.Codec)
	}

	if d.SampleRate <= 0 || d.Channels <= 0 {
		return fmt.Errorf("invalid format: %d channels, %d Hz", d.Channels, d.SampleRate)
	}

	codec := C.avcodec_find_decoder(id)
	if codec == nil {
		return fmt.Errorf("avcodec_find_decoder() failed")
	}

	d.codecCtx = C.avcodec_alloc_context3(codec)
	if d.codecCtx == nil {
		return fmt.Errorf("avcodec_alloc_context3() failed")
	}

	d.codecCtx.sample_rate = C.int(d.SampleRate)
	C.av_channel_layout_default(&d.codecCtx.ch_layout, C.int(d.Channels))

	res := C.avcodec_open2(d.codecCtx, codec, nil)
	if res < 0 {
		C.avcodec_free_context(&d.codecCtx)
		return fmt.Errorf("avcodec_open2() failed")
	}

	d.frame = C.av_frame_alloc()
	d.outFrame = C.av_frame_alloc()
	d.swrCtx = C.swr_alloc()
	if d.frame == nil || d.outFrame == nil || d.swrCtx == nil {
		d.Close()
		return fmt.Errorf("unable to allocate resampler")
	}

	return nil
}

// Close implements AudioDecoder.
func (d *FFmpegAudio) Close() {
	if d.swrCtx != nil {
		C.swr_free(&d.swrCtx)
	}
	if d.outFrame != nil {
		C.av_frame_free(&d.outFrame)
	}
	if d.frame != nil {
		C.av_frame_free(&d.frame)
	}
	C.avcodec_free_context(&d.codecCtx)
}

func (d *FFmpegAudio) send(payload []byte) error {
	ptr := &payload[0]
	var p runtime.Pinner
	p.Pin(ptr)
	defer p.Unpin()

	var pkt C.AVPacket
	pkt.data = (*C.uint8_t)(ptr)
	pkt.size = (C.int)(len(payload))

	res := C.avcodec_send_packet(d.codecCtx, &pkt)
	if res < 0 {
		return fmt.Errorf("avcodec_send_packet() failed")
	}
	return nil
}

func (d *FFmpegAudio) convert() ([]byte, error) {
	d.outFrame.format = C.AV_SAMPLE_FMT_S16
	d.outFrame.sample_rate = C.int(d.SampleRate)
	C.av_channel_layout_default(&d.outFrame.ch_layout, C.int(d.Channels))
	defer C.av_frame_unref(d.outFrame)

	res := C.swr_convert_frame(d.swrCtx, d.outFrame, d.frame)
	if res < 0 {
		// the resampler is configured again from the next frame
		C.swr_close(d.swrCtx)
		return nil, fmt.Errorf("swr_convert_frame() failed")
	}

	size := int(d.outFrame.nb_samples) * d.Channels * 2
	if size == 0 {
		return nil, nil
	}

	return C.GoBytes(unsafe.Pointer(d.outFrame.data[0]), C.int(size)), nil
}

// Decode implements AudioDecoder.
// A packet is always consumed entirely; its samples may come out later.
func (d *FFmpegAudio) Decode(payload []byte) (int, []byte, error) {
	if len(payload) == 0 {
		return 0, nil, ErrInvalidPayload
	}

	err := d.send(payload)
	if err != nil {
		return 0, nil, err
	}

	var out []byte

	for {
		res := C.avcodec_receive_frame(d.codecCtx, d.frame)
		if res < 0 {
			break
		}

		samples, err := d.convert()
		if err != nil {
			return len(payload), out, err
		}
		out = append(out, samples...)
	}

	return len(payload), out, nil
}
