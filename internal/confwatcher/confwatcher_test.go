package confwatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, byts []byte) string {
	fpath := filepath.Join(t.TempDir(), "avplay.yml")
	err := os.WriteFile(fpath, byts, 0o644)
	require.NoError(t, err)
	return fpath
}

func TestNoFile(t *testing.T) {
	w := &ConfWatcher{FilePath: "/nonexistent"}
	err := w.Initialize()
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	fpath := createTempFile(t, []byte("{}"))

	w := &ConfWatcher{FilePath: fpath}
	err := w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	err = os.WriteFile(fpath, []byte("logLevel: debug\n"), 0o644)
	require.NoError(t, err)

	select {
	case <-w.Watch():
	case <-time.After(2 * time.Second):
		t.Errorf("timed out")
	}
}

func TestIgnoreOtherFiles(t *testing.T) {
	fpath := createTempFile(t, []byte("{}"))

	w := &ConfWatcher{FilePath: fpath}
	err := w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	err = os.WriteFile(filepath.Join(filepath.Dir(fpath), "other.yml"), []byte("{}"), 0o644)
	require.NoError(t, err)

	select {
	case <-w.Watch():
		t.Errorf("unexpected signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSymlinkSwap(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "a.yml"), []byte("{}"), 0o644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "b.yml"), []byte("{}"), 0o644)
	require.NoError(t, err)

	link := filepath.Join(dir, "avplay.yml")
	err = os.Symlink(filepath.Join(dir, "a.yml"), link)
	require.NoError(t, err)

	w := &ConfWatcher{FilePath: link}
	err = w.Initialize()
	require.NoError(t, err)
	defer w.Close()

	tmp := filepath.Join(dir, "tmp.yml")
	err = os.Symlink(filepath.Join(dir, "b.yml"), tmp)
	require.NoError(t, err)
	err = os.Rename(tmp, link)
	require.NoError(t, err)

	select {
	case <-w.Watch():
	case <-time.After(2 * time.Second):
		t.Errorf("timed out")
	}
}
