package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/remote"
)

// Client calls the analysis API.
type Client struct {
	baseURL    string
	http       *http.Client
	maxElapsed time.Duration
}

func NewClient(baseURL string, timeout, maxElapsed time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		maxElapsed: maxElapsed,
	}
}

// Call uploads the recording to the route of feature and decodes the JSON
// answer into target. Only gateway errors and transport failures are
// retried.
func (c *Client) Call(ctx context.Context, feature, filename string, data []byte, target any) error {
	body, ct, err := remote.Multipart("file", filename, data, nil)
	if err != nil {
		return err
	}
	return remote.Do(ctx, c.http, c.maxElapsed, remote.RetryGatewayErrors, remote.PostMultipart(c.baseURL+"/"+feature, "", body, ct), target)
}

// Analyze calls every feature once and collects the answers. Failed
// features are reported in Results.Errors and do not stop the others.
func (c *Client) Analyze(ctx context.Context, filename string, data []byte, features []string) Results {
	log := logger.New().WithField("module", "frontend").WithField("file", filename)
	res := Results{Errors: map[string]string{}}
	for _, f := range features {
		var target any
		switch f {
		case FeatureTranscribe:
			res.Transcript = &transcriptResult{}
			target = res.Transcript
		case FeatureCompliance:
			res.Compliance = &complianceResult{}
			target = res.Compliance
		case FeatureProfanity:
			res.Profanity = &profanityResult{}
			target = res.Profanity
		case FeaturePII:
			res.PII = map[string][]string{}
			target = &res.PII
		case FeatureMask:
			res.Masked = &maskResult{}
			target = res.Masked
		case FeatureSentiment:
			res.Sentiment = &sentimentResult{}
			target = res.Sentiment
		case FeatureCategory:
			res.Category = &categoryResult{}
			target = res.Category
		case FeatureDiarize:
			res.Diarization = &diarizationResult{}
			target = res.Diarization
		default:
			res.Errors[f] = "unknown feature"
			continue
		}

		start := time.Now()
		if err := c.Call(ctx, f, filename, data, target); err != nil {
			log.WithField("feature", f).WithField("error", err.Error()).Warn("backend call failed")
			res.Errors[f] = detail(err)
			continue
		}
		log.WithField("feature", f).WithField("duration_ms", time.Since(start).Milliseconds()).Info("backend call finished")
	}
	return res
}

// detail extracts the API's {"detail": ...} message when there is one.
func detail(err error) string {
	var se *remote.StatusError
	if errors.As(err, &se) {
		var body struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal([]byte(se.Body), &body) == nil && body.Detail != "" {
			return fmt.Sprintf("%s (HTTP %d)", body.Detail, se.Code)
		}
	}
	return err.Error()
}
