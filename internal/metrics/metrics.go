// Package metrics contains the metrics provider.
package metrics

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/defs"
	"github.com/bluenviron/avplay/internal/httpp"
	"github.com/bluenviron/avplay/internal/logger"
)

func metric(key string, tags string, value int64) string {
	return key + tags + " " + strconv.FormatInt(value, 10) + "\n"
}

func metricUint(key string, tags string, value uint64) string {
	return key + tags + " " + strconv.FormatUint(value, 10) + "\n"
}

// Metrics is a metrics provider.
type Metrics struct {
	Address     string
	ReadTimeout conf.Duration
	Player      defs.APIPlayer
	Recorders   defs.APIRecorderManager
	Parent      logger.Writer

	httpServer *httpp.Server
}

// Initialize initializes metrics.
func (m *Metrics) Initialize() error {
	if m.ReadTimeout == 0 {
		m.ReadTimeout = conf.Duration(10 * time.Second)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetTrustedProxies(nil) //nolint:errcheck
	router.GET("/metrics", m.onMetrics)

	m.httpServer = &httpp.Server{
		Address:     m.Address,
		ReadTimeout: time.Duration(m.ReadTimeout),
		Handler:     router,
		Parent:      m,
	}
	err := m.httpServer.Initialize()
	if err != nil {
		return err
	}

	m.Log(logger.Info, "listener opened on "+m.Address)

	return nil
}

// Close closes Metrics.
func (m *Metrics) Close() {
	m.Log(logger.Info, "listener is closing")
	m.httpServer.Close()
}

// Log implements logger.Writer.
func (m *Metrics) Log(level logger.Level, format string, args ...any) {
	m.Parent.Log(level, "[metrics] "+format, args...)
}

func (m *Metrics) onMetrics(ctx *gin.Context) {
	out := ""

	if m.Player != nil {
		data, err := m.Player.APIPlayerStats()
		if err == nil {
			tags := "{source=\"" + data.Source + "\"}"
			out += metric("player_queued_packets", tags, int64(data.QueuedPackets))
			out += metric("player_queued_bytes", tags, int64(data.QueuedBytes))
			out += metricUint("player_audio_underruns", tags, data.AudioUnderruns)
			out += metricUint("player_audio_silent_bytes", tags, data.AudioSilentBytes)
			out += metricUint("player_audio_decode_errors", tags, data.AudioDecodeErrors)
			out += metricUint("player_audio_decoded_bytes", tags, data.AudioDecodedBytes)
			out += metricUint("player_video_decode_errors", tags, data.VideoDecodeErrors)
			out += metricUint("player_pictures_presented", tags, data.PresentedPictures)
			out += metricUint("player_pictures_discarded", tags, data.DiscardedPictures)
			out += metricUint("player_packets_dropped", tags, data.DroppedPackets)
		}
	}

	if m.Recorders != nil {
		for _, i := range m.Recorders.APIRecordersList().Items {
			state := "idle"
			if i.Running {
				state = "running"
			}

			tags := "{name=\"" + i.Name + "\",kind=\"" + i.Kind + "\",state=\"" + state + "\"}"
			out += metric("recorders", tags, 1)

			tags = "{name=\"" + i.Name + "\",kind=\"" + i.Kind + "\"}"
			out += metric("recorder_chunks_cached", tags, int64(i.Cached))
			out += metricUint("recorder_chunks_produced", tags, i.Produced)
			out += metricUint("recorder_chunks_dropped", tags, i.Dropped)
			out += metricUint("recorder_chunks_evicted", tags, i.Evicted)
		}
	}

	ctx.Header("Content-Type", "text/plain; version=0.0.4")
	ctx.Writer.WriteHeader(http.StatusOK)
	io.WriteString(ctx.Writer, out) //nolint:errcheck
}
