// Package capture defines the speech-capture boundary. Transcription is an
// external capability; when it is not configured the API reports it as
// unavailable and callers fall back to manual text entry.
package capture

import (
	"context"
	"io"

	"github.com/linnemanlabs/go-core/xerrors"
)

// ErrUnavailable is returned when no transcription capability is configured.
var ErrUnavailable = xerrors.New("speech capture unavailable")

// Transcriber converts captured audio into a final transcript. No partial
// results are delivered; one call, one terminal transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error)
}

// Unavailable is a Transcriber that always reports the capability missing.
type Unavailable struct{}

// Transcribe implements Transcriber.
func (Unavailable) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", ErrUnavailable
}
