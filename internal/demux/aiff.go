package demux

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// AIFF is an AIFF demuxer. Samples are big-endian.
type AIFF struct {
	R      io.Reader
	Closer io.Closer

	rawAudio
}

// decodes an IEEE 754 80-bit extended float.
func extendedToInt(buf []byte) int {
	exp := int(binary.BigEndian.Uint16(buf[0:2]) & 0x7FFF)
	mantissa := binary.BigEndian.Uint64(buf[2:10])
	if exp == 0 && mantissa == 0 {
		return 0
	}
	return int(math.Ldexp(float64(mantissa), exp-16383-63))
}

// Initialize initializes AIFF.
func (d *AIFF) Initialize() error {
	d.r = d.R

	var form [12]byte
	_, err := io.ReadFull(d.R, form[:])
	if err != nil {
		return fmt.Errorf("unable to read FORM header: %w", err)
	}

	if string(form[0:4]) != "FORM" || string(form[8:12]) != "AIFF" {
		return fmt.Errorf("not an AIFF file")
	}

	commFound := false

	for {
		var hdr [8]byte
		_, err = io.ReadFull(d.R, hdr[:])
		if err != nil {
			return fmt.Errorf("unable to read chunk header: %w", err)
		}

		id := string(hdr[0:4])
		size := int64(binary.BigEndian.Uint32(hdr[4:8]))

		switch id {
		case "COMM":
			if size < 18 {
				return fmt.Errorf("invalid COMM chunk size: %d", size)
			}

			buf := make([]byte, size+size%2)
			_, err = io.ReadFull(d.R, buf)
			if err != nil {
				return err
			}

			err = d.parseCommon(buf)
			if err != nil {
				return err
			}
			commFound = true

		case "SSND":
			if !commFound {
				return fmt.Errorf("SSND chunk before COMM chunk")
			}
			if size < 8 {
				return fmt.Errorf("invalid SSND chunk size: %d", size)
			}

			var ssnd [8]byte
			_, err = io.ReadFull(d.R, ssnd[:])
			if err != nil {
				return err
			}

			offset := int64(binary.BigEndian.Uint32(ssnd[0:4]))
			if offset > size-8 {
				return fmt.Errorf("invalid SSND offset: %d", offset)
			}

			_, err = io.CopyN(io.Discard, d.R, offset)
			if err != nil {
				return err
			}

			d.dataLeft = size - 8 - offset
			return nil

		default:
			_, err = io.CopyN(io.Discard, d.R, size+size%2)
			if err != nil {
				return err
			}
		}
	}
}

func (d *AIFF) parseCommon(buf []byte) error {
	channels := int(binary.BigEndian.Uint16(buf[0:2]))
	sampleSize := int(binary.BigEndian.Uint16(buf[6:8]))
	sampleRate := extendedToInt(buf[8:18])

	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("invalid format: %d channels, %d Hz", channels, sampleRate)
	}

	if sampleSize != 16 {
		return fmt.Errorf("unsupported bit depth: %d", sampleSize)
	}

	d.setFormat("lpcm", sampleRate, channels, channels*2)

	return nil
}

// Close implements Demuxer.
func (d *AIFF) Close() error {
	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}
