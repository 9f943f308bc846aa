// Package conf contains the struct that holds the configuration of the software.
package conf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bluenviron/avplay/internal/conf/env"
	"github.com/bluenviron/avplay/internal/conf/yamlwrapper"
	"github.com/bluenviron/avplay/internal/logger"
)

// EnvPrefix is the prefix of environment variables that override the configuration.
const EnvPrefix = "AVPLAY"

func firstThatExists(paths []string) string {
	for _, pa := range paths {
		_, err := os.Stat(pa)
		if err == nil {
			return pa
		}
	}
	return ""
}

// Player is the player section of the configuration.
type Player struct {
	Source             string     `json:"source"`
	AudioCodec         string     `json:"audioCodec"`
	SampleRate         int        `json:"sampleRate"`
	Channels           int        `json:"channels"`
	AudioDevice        string     `json:"audioDevice"`
	AudioOutput        string     `json:"audioOutput"`
	AudioBufferSamples int        `json:"audioBufferSamples"`
	MaxQueueSize       StringSize `json:"maxQueueSize"`
	VideoSink          string     `json:"videoSink"`
	VideoSinkPath      string     `json:"videoSinkPath"`
	FrameDelay         Duration   `json:"frameDelay"`
}

// Conf is a configuration.
type Conf struct {
	// General
	LogLevel        LogLevel        `json:"logLevel"`
	LogDestinations LogDestinations `json:"logDestinations"`
	LogFile         string          `json:"logFile"`

	// API
	API            bool   `json:"api"`
	APIAddress     string `json:"apiAddress"`
	PPROF          bool   `json:"pprof"`
	PPROFAddress   string `json:"pprofAddress"`
	Metrics        bool   `json:"metrics"`
	MetricsAddress string `json:"metricsAddress"`

	// Player
	Player Player `json:"player"`

	// Recorders
	Recorders []Recorder `json:"recorders"`
}

func (conf *Conf) setDefaults() {
	// General
	conf.LogLevel = LogLevel(logger.Info)
	conf.LogDestinations = LogDestinations{logger.DestinationStdout}
	conf.LogFile = "avplay.log"

	// API
	conf.APIAddress = "127.0.0.1:9997"
	conf.PPROFAddress = "127.0.0.1:9999"
	conf.MetricsAddress = "127.0.0.1:9998"

	// Player
	conf.Player.AudioDevice = "clock"
	conf.Player.AudioBufferSamples = 1024
	conf.Player.MaxQueueSize = 15 * 1024 * 1024
	conf.Player.VideoSink = "log"
	conf.Player.FrameDelay = Duration(33 * time.Millisecond)

	// Recorders
	conf.Recorders = []Recorder{}
}

// Load loads a Conf.
func Load(fpath string, defaultConfPaths []string) (*Conf, string, error) {
	conf := &Conf{}

	fpath, err := conf.loadFromFile(fpath, defaultConfPaths)
	if err != nil {
		return nil, "", err
	}

	err = env.Load(EnvPrefix, conf)
	if err != nil {
		return nil, "", err
	}

	err = conf.Validate()
	if err != nil {
		return nil, "", err
	}

	return conf, fpath, nil
}

func (conf *Conf) loadFromFile(fpath string, defaultConfPaths []string) (string, error) {
	if fpath == "" {
		fpath = firstThatExists(defaultConfPaths)

		// when the configuration file is not explicitly set,
		// it is optional.
		if fpath == "" {
			conf.setDefaults()
			return "", nil
		}
	}

	byts, err := os.ReadFile(fpath)
	if err != nil {
		return "", err
	}

	err = yamlwrapper.Unmarshal(byts, conf)
	if err != nil {
		return "", err
	}

	return fpath, nil
}

// Clone clones the configuration.
func (conf Conf) Clone() *Conf {
	enc, err := json.Marshal(conf)
	if err != nil {
		panic(err)
	}

	var dest Conf
	err = json.Unmarshal(enc, &dest)
	if err != nil {
		panic(err)
	}

	return &dest
}

// Validate checks the configuration for errors.
func (conf *Conf) Validate() error {
	// Player

	switch conf.Player.AudioCodec {
	case "":
	case "pcm", "lpcm", "g711u", "g711a":
		if conf.Player.SampleRate <= 0 || conf.Player.Channels <= 0 {
			return fmt.Errorf("audio codec '%s' requires 'sampleRate' and 'channels'", conf.Player.AudioCodec)
		}
	default:
		return fmt.Errorf("invalid audio codec: '%s'", conf.Player.AudioCodec)
	}

	switch conf.Player.AudioDevice {
	case "clock", "null", "oto", "none":
	default:
		return fmt.Errorf("invalid audio device: '%s'", conf.Player.AudioDevice)
	}
	if conf.Player.AudioBufferSamples <= 0 {
		return fmt.Errorf("'audioBufferSamples' must be greater than zero")
	}
	if conf.Player.MaxQueueSize == 0 {
		return fmt.Errorf("'maxQueueSize' must be greater than zero")
	}
	switch conf.Player.VideoSink {
	case "log", "none":
	case "annexb", "mpegts":
		if conf.Player.VideoSinkPath == "" {
			return fmt.Errorf("video sink '%s' requires 'videoSinkPath'", conf.Player.VideoSink)
		}
	default:
		return fmt.Errorf("invalid video sink: '%s'", conf.Player.VideoSink)
	}
	if conf.Player.FrameDelay < 0 {
		return fmt.Errorf("'frameDelay' must not be negative")
	}

	// Recorders

	names := make(map[string]struct{})

	for i := range conf.Recorders {
		r := &conf.Recorders[i]

		err := r.validate()
		if err != nil {
			return fmt.Errorf("recorder %d: %w", i, err)
		}

		if _, ok := names[r.Name]; ok {
			return fmt.Errorf("recorder name '%s' is used twice", r.Name)
		}
		names[r.Name] = struct{}{}
	}

	return nil
}

// UnmarshalJSON implements json.Unmarshaler. It fills default values first.
func (conf *Conf) UnmarshalJSON(b []byte) error {
	conf.setDefaults()

	type alias Conf
	d := json.NewDecoder(bytes.NewReader(b))
	d.DisallowUnknownFields()
	return d.Decode((*alias)(conf))
}
