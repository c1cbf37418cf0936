package httptransport

import (
	"net/http"

	"github.com/comandaviva/pdv/internal/service/services/chargesvc"
)

func (h *HTTPTransport) createCharge(w http.ResponseWriter, r *http.Request) {
	var in chargesvc.CreateChargeInput
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := h.charges.CreateCharge(r.Context(), in)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, created)
}
