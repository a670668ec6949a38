package triageapi

import (
	"errors"
	"net/http"

	"github.com/linnemanlabs/medai/internal/capture"
)

// handleTranscribe forwards captured audio to the external speech-to-text
// capability. When none is configured the client gets a 503 and falls back
// to manual text entry.
func (a *API) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	transcript, err := a.transcriber.Transcribe(r.Context(), r.Body, r.Header.Get("Content-Type"))
	if errors.Is(err, capture.ErrUnavailable) {
		http.Error(w, `{"error":"capability unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		a.logger.Error(r.Context(), err, "transcription failed")
		http.Error(w, `{"error":"transcription failed"}`, http.StatusBadGateway)
		return
	}

	a.writeJSON(w, r, http.StatusOK, map[string]string{"transcript": transcript})
}
