package triageapi

import "net/http"

func (a *API) handleDeviceSample(w http.ResponseWriter, r *http.Request) {
	reading := a.sim.Sample()
	a.writeJSON(w, r, http.StatusOK, reading)
}
