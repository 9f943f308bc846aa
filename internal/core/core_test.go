package core

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/defs"
)

func writeTempFile(t *testing.T, name string, byts []byte) string {
	fpath := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(fpath, byts, 0o644)
	require.NoError(t, err)
	return fpath
}

func pcmWAV(sampleRate int, data []byte) []byte {
	buf := []byte("RIFF")
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+8+16+8+len(data)))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*2))
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)

	return buf
}

func httpDo(t *testing.T, method string, path string, body []byte) (int, []byte) {
	req, err := http.NewRequest(method, "http://127.0.0.1:9997"+path, bytes.NewReader(body))
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	byts, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res.StatusCode, byts
}

func TestCoreRecorders(t *testing.T) {
	confPath := writeTempFile(t, "avplay.yml", []byte(
		"logLevel: debug\n"+
			"api: yes\n"+
			"recorders:\n"+
			"- name: mic\n"+
			"  kind: audio\n"+
			"  autostart: yes\n"+
			"- name: desktop\n"+
			"  kind: screen\n"+
			"  width: 8\n"+
			"  height: 8\n"))

	p, ok := New([]string{confPath})
	require.True(t, ok)
	defer p.Close()

	status, byts := httpDo(t, http.MethodGet, "/v1/recorders/list", nil)
	require.Equal(t, http.StatusOK, status)

	var list defs.APIRecorderList
	err := json.Unmarshal(byts, &list)
	require.NoError(t, err)
	require.Equal(t, 2, list.ItemCount)
	require.Equal(t, "desktop", list.Items[0].Name)
	require.False(t, list.Items[0].Running)
	require.Equal(t, "mic", list.Items[1].Name)
	require.True(t, list.Items[1].Running)
	require.NotNil(t, list.Items[1].Session)

	// 20ms of 44100Hz stereo PCM
	require.Eventually(t, func() bool {
		status, byts = httpDo(t, http.MethodGet, "/v1/recorders/frame/mic", nil)
		return status == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, byts, 3528)

	status, _ = httpDo(t, http.MethodGet, "/v1/recorders/frame/desktop", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = httpDo(t, http.MethodPost, "/v1/recorders/start/desktop", []byte(`{"fps":50}`))
	require.Equal(t, http.StatusOK, status)

	require.Eventually(t, func() bool {
		status, byts = httpDo(t, http.MethodGet, "/v1/recorders/frame/desktop", nil)
		return status == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, byts, 8*8*4)

	status, _ = httpDo(t, http.MethodPost, "/v1/recorders/stop/desktop", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = httpDo(t, http.MethodGet, "/v1/recorders/frame/desktop", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = httpDo(t, http.MethodPost, "/v1/recorders/start/other", nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = httpDo(t, http.MethodGet, "/v1/player/stats", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCorePlaybackExits(t *testing.T) {
	source := writeTempFile(t, "song.wav", pcmWAV(8000, make([]byte, 1600)))

	confPath := writeTempFile(t, "avplay.yml", []byte(
		"player:\n"+
			"  source: "+source+"\n"+
			"  audioDevice: \"null\"\n"+
			"  videoSink: none\n"))

	p, ok := New([]string{confPath})
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Errorf("timed out")
		p.Close()
	}
}

func TestCoreInvalidSource(t *testing.T) {
	confPath := writeTempFile(t, "avplay.yml", []byte(
		"player:\n"+
			"  source: /nonexistent.wav\n"))

	_, ok := New([]string{confPath})
	require.False(t, ok)
}
