// Package audio validates uploaded recordings before they reach any backend.
package audio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
)

var (
	ErrEmpty    = errors.New("empty audio upload")
	ErrNotAudio = errors.New("uploaded file is not an audio file")
)

// Info describes an accepted upload.
type Info struct {
	Name        string  `json:"name"`
	MIME        string  `json:"mime"`
	Extension   string  `json:"extension"`
	SHA256      string  `json:"sha256"`
	Size        int     `json:"size"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Inspect sniffs data and rejects anything that is not audio.
// Duration is only read for WAV files.
func Inspect(name string, data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	mt := mimetype.Detect(data)
	if !IsAudio(mt) {
		return Info{}, fmt.Errorf("%w: %s detected as %s", ErrNotAudio, name, mt.String())
	}
	info := Info{
		Name:      name,
		MIME:      mt.String(),
		Extension: mt.Extension(),
		SHA256:    Hash(data),
		Size:      len(data),
	}
	if mt.Is("audio/wav") {
		if d, err := WAVDuration(data); err == nil {
			info.DurationSec = d
		}
	}
	return info, nil
}

// IsAudio reports whether mt is an audio type. Ogg containers are
// accepted as well since voice recordings are commonly shipped in them.
func IsAudio(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || m.Is("application/ogg") {
			return true
		}
	}
	return false
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WAVDuration decodes a WAV payload and returns its length in seconds.
func WAVDuration(data []byte) (float64, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return 0, errors.New("wav header has no format")
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return float64(frames) / float64(buf.Format.SampleRate), nil
}
