// Package remote holds the HTTP plumbing shared by the model backends:
// multipart uploads and JSON calls retried with exponential backoff.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// RequestFunc builds a fresh request for every attempt so bodies can be
// replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// RetryStatus reports whether a response status is worth another attempt.
type RetryStatus func(code int) bool

// RetryServerErrors retries every 5xx and 429. Model backends answer 503
// while loading and 500 on transient inference failures.
func RetryServerErrors(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// RetryGatewayErrors retries only 502, 503 and 504, for callers whose
// upstream answers other errors deterministically.
func RetryGatewayErrors(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoJSON sends the request built by newReq and decodes a JSON response into
// target. 5xx responses, 429 and transport errors are retried until
// maxElapsed; other 4xx responses fail immediately.
func DoJSON(ctx context.Context, client *http.Client, maxElapsed time.Duration, newReq RequestFunc, target any) error {
	return Do(ctx, client, maxElapsed, RetryServerErrors, newReq, target)
}

// Do is DoJSON with a caller chosen retry policy. A maxElapsed of zero or
// less means a single attempt.
func Do(ctx context.Context, client *http.Client, maxElapsed time.Duration, retry RetryStatus, newReq RequestFunc, target any) error {
	var bo backoff.BackOff = &backoff.StopBackOff{}
	if maxElapsed > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 500 * time.Millisecond
		eb.MaxElapsedTime = maxElapsed
		bo = eb
	}

	op := func() error {
		req, err := newReq(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			se := &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 512)}
			if retry(resp.StatusCode) {
				return se
			}
			return backoff.Permanent(se)
		}
		if len(body) == 0 {
			return fmt.Errorf("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, truncate(string(body), 512)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// Multipart encodes fields and one file part named fileField.
func Multipart(fileField, filename string, data []byte, fields map[string]string) (body []byte, contentType string, err error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}

// PostMultipart returns a RequestFunc that posts the encoded form to url.
func PostMultipart(url, token string, body []byte, contentType string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return req, nil
	}
}

// PostJSON returns a RequestFunc that posts payload as JSON to url.
func PostJSON(url, token string, payload any) (RequestFunc, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return req, nil
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
