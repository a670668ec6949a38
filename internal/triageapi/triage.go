package triageapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/medai/internal/triage"
)

// submitRequest is the POST /triage payload. When Simulate is true and no
// device reading is supplied, one is sampled server-side.
type submitRequest struct {
	Text     string                `json:"text"`
	Device   *triage.DeviceReading `json:"device,omitempty"`
	Simulate bool                  `json:"simulate,omitempty"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	if req.Simulate && req.Device.Empty() {
		reading := a.sim.Sample()
		req.Device = &reading
	}

	in := &triage.SymptomInput{Text: req.Text, Device: req.Device}

	sess, err := a.svc.Submit(r.Context(), in)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to submit symptom report")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("medai.session.id", sess.ID),
		attribute.String("medai.triage.urgency", string(sess.Result.Urgency)),
	)

	a.writeJSON(w, r, http.StatusCreated, sess)
}
