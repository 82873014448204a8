package speech

import (
	"context"
	"errors"
)

var ErrEmptyText = errors.New("empty text")

type Voice struct {
	ID   string
	Name string
}

// Provider renders one line of dialogue as audio bytes.
type Provider interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}

// DetectFormat returns a file extension for the audio payload.
func DetectFormat(data []byte) string {
	if len(data) < 4 {
		return ".bin"
	}

	if data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' {
		return ".wav"
	}

	// ID3 tag or MPEG frame sync
	if (data[0] == 'I' && data[1] == 'D' && data[2] == '3') ||
		(data[0] == 0xFF && (data[1]&0xE0) == 0xE0) {
		return ".mp3"
	}

	return ".bin"
}
