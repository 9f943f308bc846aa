package conf

import (
	"fmt"
	"regexp"
)

var reRecorderName = regexp.MustCompile(`^[0-9a-zA-Z_\-]+$`)

// Recorder is a recorder configuration.
type Recorder struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Backend    string         `json:"backend"`
	Command    string         `json:"command"`
	Autostart  bool           `json:"autostart"`
	SampleRate int            `json:"sampleRate"`
	Channels   int            `json:"channels"`
	FPS        int            `json:"fps"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	MaxCached  int            `json:"maxCached"`
	Overflow   OverflowPolicy `json:"overflow"`
}

func (r *Recorder) validate() error {
	if !reRecorderName.MatchString(r.Name) {
		return fmt.Errorf("invalid name: '%s'", r.Name)
	}

	switch r.Kind {
	case "audio", "screen":
	default:
		return fmt.Errorf("invalid kind: '%s'", r.Kind)
	}

	if r.Backend == "" {
		if r.Kind == "audio" {
			r.Backend = "tone"
		} else {
			r.Backend = "testpattern"
		}
	}

	if r.Backend == "command" && r.Command == "" {
		return fmt.Errorf("backend 'command' requires 'command'")
	}

	for _, v := range []struct {
		name string
		val  int
	}{
		{"sampleRate", r.SampleRate},
		{"channels", r.Channels},
		{"fps", r.FPS},
		{"width", r.Width},
		{"height", r.Height},
		{"maxCached", r.MaxCached},
	} {
		if v.val < 0 {
			return fmt.Errorf("'%s' must not be negative", v.name)
		}
	}

	return nil
}
