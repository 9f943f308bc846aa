//go:build !windows

package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/externalcmd"
)

func TestCommandBackend(t *testing.T) {
	pool := &externalcmd.Pool{}
	pool.Initialize()
	defer pool.Close()

	r := &Registry{ExternalCmdPool: pool}
	r.Initialize()

	rec, err := r.NewScreen("command", "screen")
	require.NoError(t, err)

	err = rec.Start(ScreenParams{
		Width:   2,
		Height:  2,
		Command: `sh -c "head -c 32 /dev/zero; sleep 1"`,
	})
	require.NoError(t, err)
	defer rec.Stop()

	for range 2 {
		c, ok := rec.GetBGRA(true)
		require.True(t, ok)
		require.Equal(t, make([]byte, 16), c.Data)
	}

	require.Eventually(t, func() bool {
		return !rec.Running()
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := rec.GetBGRA(true)
	require.False(t, ok)
}
