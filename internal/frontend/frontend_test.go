package frontend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures(t *testing.T) {
	got := Features([]string{"Detected Disclaimers", "Transcript", "Detected Greetings", "Diarization", "Unknown"})
	assert.Equal(t, []string{FeatureTranscribe, FeatureCompliance, FeatureDiarize}, got)
	assert.Empty(t, Features(nil))
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestFormat(t *testing.T) {
	res := Results{
		Transcript: &transcriptResult{Text: "hello there"},
		Masked:     &maskResult{MaskedText: "hello ****"},
		Compliance: &complianceResult{
			Greetings:   []string{"hello", "good morning"},
			Disclaimers: []string{"this call may be recorded"},
		},
		PII: map[string][]string{
			"credit_card":         {"4111 1111 1111 1111"},
			"bank_account_number": {"123456789", "987654321"},
			"email":               {"a@b.com"},
		},
		Profanity:   &profanityResult{Profanity: []string{"damn", "hell"}},
		Sentiment:   &sentimentResult{Label: "POSITIVE", Score: fptr(0.93)},
		Category:    &categoryResult{Category: "billing"},
		Diarization: &diarizationResult{},
	}
	res.Diarization.Metrics.AgentWPM = fptr(142.5)
	res.Diarization.Metrics.Ratio = fptr(0.8)
	res.Diarization.Metrics.Interruptions = iptr(1)
	res.Diarization.Metrics.TTFT = fptr(0.6)

	out := Format(res, Options)
	require.Len(t, out, len(Options))
	assert.Equal(t, "hello there", out[0])
	assert.Equal(t, "hello ****", out[1])
	assert.Equal(t, "hello, good morning", out[2])
	assert.Equal(t, "", out[3])
	assert.Equal(t, "this call may be recorded", out[4])
	assert.Equal(t, "Credit Card: 4111 1111 1111 1111\nAccount Number: 123456789, 987654321", out[5])
	assert.Equal(t, "damn, hell", out[6])
	assert.Equal(t, "Label: POSITIVE\nScore: 0.93", out[7])
	assert.Equal(t, "billing", out[8])
	assert.Equal(t, "agent_speaking_speed_wpm: 142.5\ncustomer_to_agent_speaking_ratio: 0.8\ninterruptions_by_agent: 1\naverage_ttft: 0.6", out[9])
}

func TestFormatOnlySelected(t *testing.T) {
	res := Results{
		Transcript: &transcriptResult{Text: "hello"},
		Compliance: &complianceResult{Greetings: []string{"hello"}, Closing: []string{"goodbye"}},
	}
	out := Format(res, []string{"Detected Closing Statements"})
	assert.Equal(t, "", out[0])
	assert.Equal(t, "", out[2])
	assert.Equal(t, "goodbye", out[3])
}

func TestFormatErrorsAndInfiniteRatio(t *testing.T) {
	res := Results{
		Diarization: &diarizationResult{},
		Errors:      map[string]string{FeatureSentiment: "boom"},
	}
	res.Diarization.Metrics.AgentWPM = fptr(0)
	out := Format(res, []string{"Sentiment Analysis", "Diarization"})
	assert.Equal(t, "Error: boom", out[7])
	assert.Contains(t, out[9], "customer_to_agent_speaking_ratio: inf")
}

func TestClientAnalyze(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls[r.URL.Path]++
		mu.Unlock()
		if _, hdr, err := r.FormFile("file"); assert.NoError(t, err) {
			assert.Equal(t, "call.wav", hdr.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/compliance":
			io.WriteString(w, `{"detected_greetings":["hello"],"detected_closing":[],"detected_disclaimers":["recorded"]}`)
		case "/pii":
			io.WriteString(w, `{"bank_account_number":["123456789"]}`)
		case "/diarization":
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"detail":"Expected exactly 2 speakers, found 3"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	c := NewClient(backend.URL+"/", 5*time.Second, time.Second)
	selected := []string{"Detected Greetings", "Detected Disclaimers", "Detected PII", "Diarization"}
	res := c.Analyze(context.Background(), "call.wav", []byte("RIFF"), Features(selected))

	assert.Equal(t, 1, calls["/compliance"])
	assert.Equal(t, 1, calls["/pii"])
	assert.Equal(t, 1, calls["/diarization"])

	out := Format(res, selected)
	assert.Equal(t, "hello", out[2])
	assert.Equal(t, "recorded", out[4])
	assert.Equal(t, "Account Number: 123456789", out[5])
	assert.Equal(t, "Error: Expected exactly 2 speakers, found 3 (HTTP 422)", out[9])
}

func TestClientDoesNotRepeatFailedAnalysis(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"Transcription failed"}`)
	}))
	defer backend.Close()

	c := NewClient(backend.URL, 5*time.Second, 10*time.Second)
	res := c.Analyze(context.Background(), "call.wav", []byte("RIFF"), []string{FeatureDiarize})

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Transcription failed (HTTP 500)", res.Errors[FeatureDiarize])
}

type fakeBackend struct {
	features []string
}

func (f *fakeBackend) Analyze(ctx context.Context, filename string, data []byte, features []string) Results {
	f.features = features
	return Results{
		Transcript: &transcriptResult{Text: "hello <there>"},
		Sentiment:  &sentimentResult{Label: "NEGATIVE", Score: fptr(0.7)},
	}
}

func TestServerForm(t *testing.T) {
	s := NewServer(&fakeBackend{}, 1<<20)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Call Compliance Analyzer")
	for _, o := range Options {
		assert.Contains(t, body, o)
	}
}

func TestServerSubmit(t *testing.T) {
	fb := &fakeBackend{}
	s := NewServer(fb, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "call.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte("RIFF"))
	require.NoError(t, mw.WriteField("options", "Transcript"))
	require.NoError(t, mw.WriteField("options", "Sentiment Analysis"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{FeatureTranscribe, FeatureSentiment}, fb.features)
	body := rr.Body.String()
	assert.Contains(t, body, "hello &lt;there&gt;")
	assert.Contains(t, body, "Label: NEGATIVE\nScore: 0.7")
	assert.Contains(t, body, "call.wav")
}

func TestServerSubmitWithoutFile(t *testing.T) {
	s := NewServer(&fakeBackend{}, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("options", "Transcript"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please upload an audio file")
}
