package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"call-compliance-go/internal/diarization"
	"call-compliance-go/internal/remote"
	"call-compliance-go/internal/transcription"
)

// classify maps an analysis error to a status code and a client-facing
// message.
func classify(err error) (int, string) {
	var se *remote.StatusError
	var ue *url.Error
	var ne net.Error
	switch {
	case errors.Is(err, diarization.ErrSpeakerCount):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, transcription.ErrEmptyTranscript):
		return http.StatusInternalServerError, "Transcription failed"
	case errors.Is(err, context.Canceled):
		return 499, "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Analysis backend timed out"
	case errors.As(err, &se), errors.As(err, &ue), errors.As(err, &ne):
		return http.StatusBadGateway, "Analysis backend unavailable: " + err.Error()
	default:
		return http.StatusInternalServerError, "Analysis failed: " + err.Error()
	}
}

func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	status, detail := classify(err)
	entry := log.WithError(err).WithField("status", status)
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Warn("request failed")
	}
	writeDetail(w, status, detail)
}
