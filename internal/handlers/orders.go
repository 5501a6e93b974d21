package handlers

import (
	"net/http"

	"bidmarket/models"
)

func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	order, err := h.Svc.GetOrder(r.Context(), orderID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	history, err := h.Svc.GetOrderHistory(r.Context(), orderID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ChangeOrderStatusHandler обрабатывает PUT /api/orders/{orderId}/status
func (h *Handler) ChangeOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	var in struct {
		Status models.OrderStatus `json:"status"`
		Notes  string             `json:"notes"`
	}
	if !decodeJSON(w, r, &in, false) {
		return
	}
	if in.Status == "" {
		http.Error(w, "Missing status", http.StatusBadRequest)
		return
	}
	order, err := h.Svc.UpdateOrderStatus(r.Context(), orderID, id.UserID, in.Status, in.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) AddOrderUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	var in struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &in, false) {
		return
	}
	update, err := h.Svc.AddOrderUpdate(r.Context(), orderID, id.UserID, in.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, update)
}

func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	var in reasonInput
	if !decodeJSON(w, r, &in, true) {
		return
	}
	order, err := h.Svc.CancelOrder(r.Context(), orderID, id.UserID, in.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ConfirmDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	order, err := h.Svc.ConfirmDelivery(r.Context(), orderID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) CompleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	order, err := h.Svc.CompleteOrder(r.Context(), orderID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
