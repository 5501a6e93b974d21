package handlers

import (
	"net/http"

	"bidmarket/internal/bids"
)

// CreateBidHandler обрабатывает POST /api/requests/{requestId}/bids
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	var in bids.CreateInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	bid, err := h.Svc.CreateBid(r.Context(), id.UserID, requestID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

// GetBidsForRequestHandler возвращает заказчику все предложения, поставщику только свои
func (h *Handler) GetBidsForRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	list, err := h.Svc.ListRequestBids(r.Context(), requestID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}
	bid, err := h.Svc.GetBid(r.Context(), bidID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (h *Handler) EditBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}
	var in bids.UpdateInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	bid, err := h.Svc.UpdateBid(r.Context(), bidID, id.UserID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (h *Handler) CancelBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}
	var in reasonInput
	if !decodeJSON(w, r, &in, true) {
		return
	}
	bid, err := h.Svc.CancelBid(r.Context(), bidID, id.UserID, in.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

// AcceptBidHandler выбирает победителя и создает заказ
func (h *Handler) AcceptBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}
	res, err := h.Svc.AcceptBid(r.Context(), bidID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) RejectBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "bidId")
	if !ok {
		return
	}
	var in reasonInput
	if !decodeJSON(w, r, &in, true) {
		return
	}
	bid, err := h.Svc.RejectBid(r.Context(), bidID, id.UserID, in.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}
