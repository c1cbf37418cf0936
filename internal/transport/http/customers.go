package httptransport

import (
	"net/http"
)

func (h *HTTPTransport) searchCustomers(w http.ResponseWriter, r *http.Request) {
	results, err := h.customers.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, results)
}
