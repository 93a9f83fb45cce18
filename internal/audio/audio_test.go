package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWAV writes a mono 16-bit WAV of the given length and returns its bytes.
func sineWAV(t *testing.T, sampleRate, seconds int) []byte {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(p)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, sampleRate*seconds)
	for i := range data {
		data[i] = (i % 64) * 256
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return b
}

func TestInspectWAV(t *testing.T) {
	data := sineWAV(t, 8000, 2)

	info, err := Inspect("call.wav", data)
	require.NoError(t, err)
	assert.Contains(t, info.MIME, "wav")
	assert.Equal(t, ".wav", info.Extension)
	assert.Equal(t, Hash(data), info.SHA256)
	assert.Equal(t, len(data), info.Size)
	assert.InDelta(t, 2.0, info.DurationSec, 0.01)
}

func TestInspectRejects(t *testing.T) {
	_, err := Inspect("empty.wav", nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Inspect("notes.txt", []byte("this is just a plain text file, not audio"))
	assert.ErrorIs(t, err, ErrNotAudio)

	_, err = Inspect("image.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	assert.ErrorIs(t, err, ErrNotAudio)
}

func TestHashStable(t *testing.T) {
	assert.Equal(t, Hash([]byte("abc")), Hash([]byte("abc")))
	assert.NotEqual(t, Hash([]byte("abc")), Hash([]byte("abd")))
	assert.Len(t, Hash(nil), 64)
}

func TestWAVDurationInvalid(t *testing.T) {
	_, err := WAVDuration([]byte("RIFF-not-really"))
	assert.Error(t, err)
}

func TestFetchLocalAndRemote(t *testing.T) {
	data := sineWAV(t, 8000, 1)
	p := filepath.Join(t.TempDir(), "call.wav")
	require.NoError(t, os.WriteFile(p, data, 0o644))

	got, name, err := Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "call.wav", name)
	assert.Equal(t, data, got)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/c1.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	got, name, err = Fetch(context.Background(), srv.URL+"/recordings/c1.wav")
	require.NoError(t, err)
	assert.Equal(t, "c1.wav", name)
	assert.Equal(t, data, got)

	_, _, err = Fetch(context.Background(), srv.URL+"/missing.wav")
	assert.Error(t, err)

	_, _, err = Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}
