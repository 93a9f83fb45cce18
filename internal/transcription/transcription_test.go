package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "call.wav", hdr.Filename)

		_, _ = w.Write([]byte(`{"text":"  Hello there.  ","language":"en","duration":3.5,
			"segments":[{"start":0,"end":3.5,"text":" Hello there."}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "whisper-1", "sk-test", 5*time.Second, time.Second)
	tr, err := c.Transcribe(context.Background(), "call.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", tr.Text)
	assert.Equal(t, "en", tr.Language)
	assert.Equal(t, 3.5, tr.Duration)
	require.Len(t, tr.Segments, 1)
	assert.Equal(t, "Hello there.", tr.Segments[0].Text)
}

func TestClientTranscribeEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"   ","segments":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "whisper-1", "", time.Second, time.Second).
		Transcribe(context.Background(), "silence.wav", []byte("RIFF"))
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestClientTranscribeBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "whisper-1", "", time.Second, time.Second).
		Transcribe(context.Background(), "a.wav", []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyTranscript)
}

func TestMock(t *testing.T) {
	tr, err := Mock{}.Transcribe(context.Background(), "any.wav", nil)
	require.NoError(t, err)
	assert.Contains(t, tr.Text, "thank you for calling")
	assert.Len(t, tr.Segments, len(MockSegments))
	assert.Equal(t, MockSegments[len(MockSegments)-1].End, tr.Duration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Mock{}.Transcribe(ctx, "any.wav", nil)
	assert.Error(t, err)
}
