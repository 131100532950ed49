package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSong(t *testing.T) string {
	t.Helper()
	song := filepath.Join(t.TempDir(), "jingle_bells.mp3")
	require.NoError(t, os.WriteFile(song, []byte("not really audio"), 0o600))
	return song
}

func TestPathIsHiddenSiblingFile(t *testing.T) {
	require.Equal(t, "/music/.song.mp3.sync.gz", Path("/music/song.mp3"))
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	song := testSong(t)
	saved := &Analysis{
		Fingerprint: "fp-1",
		SampleRate:  44100,
		ChunkSize:   2048,
		Levels:      [][]float64{{1, 2, 3}, {4, 5, 6}},
	}
	require.NoError(t, Save(song, saved))

	loaded, err := Load(song, "fp-1")
	require.NoError(t, err)
	require.Equal(t, saved, loaded)
}

func TestLoadMissingFileIsMiss(t *testing.T) {
	_, err := Load(testSong(t), "fp-1")
	require.ErrorIs(t, err, ErrMiss)
}

func TestFingerprintMismatchIsMiss(t *testing.T) {
	song := testSong(t)
	require.NoError(t, Save(song, &Analysis{Fingerprint: "old-config", Levels: [][]float64{{1}}}))

	_, err := Load(song, "new-config")
	require.ErrorIs(t, err, ErrMiss)
}

func TestLoadRejectsCorruptCache(t *testing.T) {
	song := testSong(t)
	require.NoError(t, os.WriteFile(Path(song), []byte("not gzip"), 0o600))

	_, err := Load(song, "fp-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMiss)
}
