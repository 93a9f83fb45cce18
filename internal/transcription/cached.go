package transcription

import (
	"context"

	"call-compliance-go/internal/audio"
	"call-compliance-go/internal/cache"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// Cached serves repeated audio from Store and only calls Inner on a miss.
// Cache failures are logged and never fail a transcription.
type Cached struct {
	Inner Transcriber
	Store cache.Store
}

func (c *Cached) Transcribe(ctx context.Context, filename string, data []byte) (types.Transcription, error) {
	log := logger.New().WithField("module", "transcription").WithField("file", filename)
	key := audio.Hash(data)

	if t, ok, err := c.Store.Get(ctx, key); err != nil {
		log.WithField("error", err.Error()).Warn("transcription cache read failed")
	} else if ok {
		log.WithField("key", key[:12]).Debug("transcription cache hit")
		return t, nil
	}

	t, err := c.Inner.Transcribe(ctx, filename, data)
	if err != nil {
		return t, err
	}
	if err := c.Store.Put(ctx, key, t); err != nil {
		log.WithField("error", err.Error()).Warn("transcription cache write failed")
	}
	return t, nil
}
