package metrics

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/defs"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/player"
)

type nilLogger struct{}

func (nilLogger) Log(logger.Level, string, ...any) {}

type dummyPlayer struct{}

func (dummyPlayer) APIPlayerStats() (*defs.APIPlayerStats, error) {
	return &defs.APIPlayerStats{
		Source: "movie.ts",
		Stats: player.Stats{
			QueuedPackets:     4,
			QueuedBytes:       1000,
			AudioUnderruns:    2,
			PresentedPictures: 30,
		},
	}, nil
}

type dummyRecorders struct{}

func (dummyRecorders) APIRecordersList() *defs.APIRecorderList {
	return &defs.APIRecorderList{
		Items: []*defs.APIRecorder{
			{Name: "mic", Kind: "audio", Running: true, Cached: 3, Produced: 10, Evicted: 7},
			{Name: "desktop", Kind: "screen"},
		},
	}
}

func (dummyRecorders) APIRecordersGet(string) (*defs.APIRecorder, error) {
	return nil, defs.ErrRecorderNotFound
}

func (dummyRecorders) APIRecordersStart(string, *defs.APIRecorderStartReq) (*defs.APIRecorder, error) {
	return nil, defs.ErrRecorderNotFound
}

func (dummyRecorders) APIRecordersStop(string) error {
	return defs.ErrRecorderNotFound
}

func (dummyRecorders) APIRecordersFrame(string) (time.Time, []byte, error) {
	return time.Time{}, nil, defs.ErrRecorderNotFound
}

func TestMetrics(t *testing.T) {
	m := &Metrics{
		Address:   "127.0.0.1:0",
		Player:    dummyPlayer{},
		Recorders: dummyRecorders{},
		Parent:    nilLogger{},
	}
	err := m.Initialize()
	require.NoError(t, err)
	defer m.Close()

	res, err := http.Get("http://" + m.httpServer.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	byts, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t,
		`player_queued_packets{source="movie.ts"} 4`+"\n"+
			`player_queued_bytes{source="movie.ts"} 1000`+"\n"+
			`player_audio_underruns{source="movie.ts"} 2`+"\n"+
			`player_audio_silent_bytes{source="movie.ts"} 0`+"\n"+
			`player_audio_decode_errors{source="movie.ts"} 0`+"\n"+
			`player_audio_decoded_bytes{source="movie.ts"} 0`+"\n"+
			`player_video_decode_errors{source="movie.ts"} 0`+"\n"+
			`player_pictures_presented{source="movie.ts"} 30`+"\n"+
			`player_pictures_discarded{source="movie.ts"} 0`+"\n"+
			`player_packets_dropped{source="movie.ts"} 0`+"\n"+
			`recorders{name="mic",kind="audio",state="running"} 1`+"\n"+
			`recorder_chunks_cached{name="mic",kind="audio"} 3`+"\n"+
			`recorder_chunks_produced{name="mic",kind="audio"} 10`+"\n"+
			`recorder_chunks_dropped{name="mic",kind="audio"} 0`+"\n"+
			`recorder_chunks_evicted{name="mic",kind="audio"} 7`+"\n"+
			`recorders{name="desktop",kind="screen",state="idle"} 1`+"\n"+
			`recorder_chunks_cached{name="desktop",kind="screen"} 0`+"\n"+
			`recorder_chunks_produced{name="desktop",kind="screen"} 0`+"\n"+
			`recorder_chunks_dropped{name="desktop",kind="screen"} 0`+"\n"+
			`recorder_chunks_evicted{name="desktop",kind="screen"} 0`+"\n",
		string(byts))
}
