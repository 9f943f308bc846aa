package demux

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wavFormatPCM   = 1
	wavFormatALaw  = 6
	wavFormatMULaw = 7

)

// WAV is a RIFF/WAVE demuxer.
// Samples are split into packets of fixed duration.
type WAV struct {
	R      io.Reader
	Closer io.Closer

	rawAudio
}

// Initialize initializes WAV.
func (d *WAV) Initialize() error {
	d.r = d.R

	var riff [12]byte
	_, err := io.ReadFull(d.R, riff[:])
	if err != nil {
		return fmt.Errorf("unable to read RIFF header: %w", err)
	}

	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return fmt.Errorf("not a WAVE file")
	}

	fmtFound := false

	for {
		var hdr [8]byte
		_, err = io.ReadFull(d.R, hdr[:])
		if err != nil {
			return fmt.Errorf("unable to read chunk header: %w", err)
		}

		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return fmt.Errorf("invalid fmt chunk size: %d", size)
			}

			buf := make([]byte, size+size%2)
			_, err = io.ReadFull(d.R, buf)
			if err != nil {
				return err
			}

			err = d.parseFormat(buf)
			if err != nil {
				return err
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return fmt.Errorf("data chunk before fmt chunk")
			}
			d.dataLeft = size
			return nil

		default:
			_, err = io.CopyN(io.Discard, d.R, size+size%2)
			if err != nil {
				return err
			}
		}
	}
}

func (d *WAV) parseFormat(buf []byte) error {
	format := binary.LittleEndian.Uint16(buf[0:2])
	channels := int(binary.LittleEndian.Uint16(buf[2:4]))
	sampleRate := int(binary.LittleEndian.Uint32(buf[4:8]))
	blockAlign := int(binary.LittleEndian.Uint16(buf[12:14]))
	bitsPerSample := int(binary.LittleEndian.Uint16(buf[14:16]))

	if channels <= 0 || sampleRate <= 0 || blockAlign <= 0 {
		return fmt.Errorf("invalid format: %d channels, %d Hz, block %d", channels, sampleRate, blockAlign)
	}

	var codec string

	switch format {
	case wavFormatPCM:
		if bitsPerSample != 16 {
			return fmt.Errorf("unsupported bit depth: %d", bitsPerSample)
		}
		codec = "pcm"

	case wavFormatALaw:
		codec = "g711a"

	case wavFormatMULaw:
		codec = "g711u"

	default:
		return fmt.Errorf("unsupported format tag: %d", format)
	}

	d.setFormat(codec, sampleRate, channels, blockAlign)

	return nil
}

// Close implements Demuxer.
func (d *WAV) Close() error {
	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}
