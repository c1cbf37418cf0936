package httptransport

import (
	"net/http"

	"github.com/comandaviva/pdv/internal/service/models/order"
	"github.com/comandaviva/pdv/internal/service/services/ordersvc"
	"github.com/go-chi/chi/v5"
)

type createOrderResponse struct {
	ID          string            `json:"id"`
	Code        string            `json:"code"`
	Status      order.Status      `json:"status"`
	ServiceType order.ServiceType `json:"service_type"`
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	var in ordersvc.CreateOrderInput
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := h.orders.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		ID:          created.ID,
		Code:        created.Code,
		Status:      created.Status,
		ServiceType: created.ServiceType,
	})
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	var model order.UpdateOrderModel
	if !decodeBody(w, r, &model) {
		return
	}

	updated, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), model)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPTransport) trackOrder(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.orders.TrackByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, tracked)
}

func (h *HTTPTransport) kitchenQueue(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.KitchenQueue(r.Context())
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, updated)
}
