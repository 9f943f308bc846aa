package asyncwriter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsyncWriter(t *testing.T) {
	w := &Writer{QueueSize: 512}
	err := w.Initialize()
	require.NoError(t, err)

	w.Start()
	defer w.Stop()

	w.Push(func() error {
		return fmt.Errorf("testerror")
	})

	err = <-w.Error()
	require.EqualError(t, err, "testerror")
}

func TestAsyncWriterOrder(t *testing.T) {
	w := &Writer{QueueSize: 8}
	err := w.Initialize()
	require.NoError(t, err)

	w.Start()

	var out []int
	done := make(chan struct{})

	for i := range 5 {
		ok := w.Push(func() error {
			out = append(out, i)
			if i == 4 {
				close(done)
			}
			return nil
		})
		require.True(t, ok)
	}

	<-done
	w.Stop()

	require.Equal(t, []int{0, 1, 2, 3, 4}, out)
}

func TestAsyncWriterInvalidSize(t *testing.T) {
	w := &Writer{QueueSize: 3}
	err := w.Initialize()
	require.Error(t, err)
}
