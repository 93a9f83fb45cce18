package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "loading", http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	newReq, err := PostJSON(srv.URL, "tok", map[string]string{"a": "b"})
	require.NoError(t, err)
	var out struct{ OK bool }
	require.NoError(t, DoJSON(context.Background(), srv.Client(), 10*time.Second, newReq, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	newReq, err := PostJSON(srv.URL, "", nil)
	require.NoError(t, err)
	err = DoJSON(context.Background(), srv.Client(), 10*time.Second, newReq, &struct{}{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoGatewayPolicy(t *testing.T) {
	var calls atomic.Int32
	status := http.StatusInternalServerError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"detail":"x"}`, status)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	newReq, err := PostJSON(srv.URL, "", nil)
	require.NoError(t, err)
	var out struct{ OK bool }

	err = Do(context.Background(), srv.Client(), 10*time.Second, RetryGatewayErrors, newReq, &out)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	status = http.StatusBadGateway
	require.NoError(t, Do(context.Background(), srv.Client(), 10*time.Second, RetryGatewayErrors, newReq, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoWithoutRetryBudgetTriesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	newReq, err := PostJSON(srv.URL, "", nil)
	require.NoError(t, err)
	err = DoJSON(context.Background(), srv.Client(), 0, newReq, &struct{}{})
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryPolicies(t *testing.T) {
	assert.True(t, RetryServerErrors(500))
	assert.True(t, RetryServerErrors(429))
	assert.False(t, RetryServerErrors(404))
	assert.False(t, RetryGatewayErrors(500))
	assert.True(t, RetryGatewayErrors(503))
	assert.False(t, RetryGatewayErrors(429))
}

func TestMultipart(t *testing.T) {
	body, ct, err := Multipart("file", "a.wav", []byte("RIFF"), map[string]string{"model": "whisper-1"})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "a.wav", hdr.Filename)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, DoJSON(context.Background(), srv.Client(), time.Second, PostMultipart(srv.URL, "", body, ct), &out))
}
