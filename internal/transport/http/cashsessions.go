package httptransport

import (
	"net/http"

	"github.com/comandaviva/pdv/internal/service/services/cashsvc"
	"github.com/go-chi/chi/v5"
)

func (h *HTTPTransport) openCashSession(w http.ResponseWriter, r *http.Request) {
	var in cashsvc.OpenInput
	if !decodeBody(w, r, &in) {
		return
	}

	session, err := h.cash.Open(r.Context(), in)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *HTTPTransport) closeCashSession(w http.ResponseWriter, r *http.Request) {
	var in cashsvc.CloseInput
	if !decodeBody(w, r, &in) {
		return
	}

	session, err := h.cash.Close(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, session)
}

// listCashSessions handles both ?current=true (the single open session, or
// null) and ?status= filtering.
func (h *HTTPTransport) listCashSessions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("current") == "true" {
		session, err := h.cash.Current(r.Context())
		if err != nil {
			writeError(w, r, err)

			return
		}

		writeJSON(w, http.StatusOK, session)

		return
	}

	sessions, err := h.cash.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, sessions)
}
