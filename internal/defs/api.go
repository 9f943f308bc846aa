// Package defs contains shared definitions.
package defs

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bluenviron/avplay/internal/player"
)

// ErrRecorderNotFound is returned when a recorder is not found.
var ErrRecorderNotFound = errors.New("recorder not found")

// ErrPlayerNotRunning is returned when no player is running.
var ErrPlayerNotRunning = errors.New("player is not running")

// APIError is a generic error.
type APIError struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// APIOK is a generic success.
type APIOK struct {
	Status string `json:"status"`
}

// APIInfo contains informations about the instance.
type APIInfo struct {
	Version string    `json:"version"`
	Started time.Time `json:"started"`
}

// APIPlayerStats contains statistics of the player.
type APIPlayerStats struct {
	Source string `json:"source"`
	player.Stats
}

// APIRecorderSession is a recording session.
type APIRecorderSession struct {
	ID      uuid.UUID `json:"id"`
	Created time.Time `json:"created"`
}

// APIRecorder is a recorder.
type APIRecorder struct {
	Name     string              `json:"name"`
	Kind     string              `json:"kind"`
	Backend  string              `json:"backend"`
	Running  bool                `json:"running"`
	Session  *APIRecorderSession `json:"session"`
	Cached   int                 `json:"cached"`
	Produced uint64              `json:"produced"`
	Dropped  uint64              `json:"dropped"`
	Evicted  uint64              `json:"evicted"`
}

// APIRecorderList is a list of recorders.
type APIRecorderList struct {
	ItemCount int            `json:"itemCount"`
	PageCount int            `json:"pageCount"`
	Items     []*APIRecorder `json:"items"`
}

// APIRecorderStartReq contains optional overrides of the recorder configuration.
// Zero values keep the configured value.
type APIRecorderStartReq struct {
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	FPS        int    `json:"fps"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	MaxCached  int    `json:"maxCached"`
	Overflow   string `json:"overflow"`
}

// APIPlayer is the player seen by the API.
type APIPlayer interface {
	APIPlayerStats() (*APIPlayerStats, error)
}

// APIRecorderManager is the recorder manager seen by the API.
type APIRecorderManager interface {
	APIRecordersList() *APIRecorderList
	APIRecordersGet(name string) (*APIRecorder, error)
	APIRecordersStart(name string, req *APIRecorderStartReq) (*APIRecorder, error)
	APIRecordersStop(name string) error
	APIRecordersFrame(name string) (time.Time, []byte, error)
}
