package unit

import (
	"time"
)

// Chunk is a presentation unit produced by a capture backend:
// PCM samples for audio, a BGRA picture for screens.
type Chunk struct {
	// capture time
	NTP time.Time

	// raw data
	Data []byte
}

// Len returns the data length.
func (c Chunk) Len() int {
	return len(c.Data)
}

// IsZero checks whether the chunk is absent.
func (c Chunk) IsZero() bool {
	return c.Data == nil
}
