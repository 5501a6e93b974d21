package handlers

import (
	"net/http"

	"bidmarket/internal/requests"
)

// CreateRequestHandler обрабатывает POST /api/requests
func (h *Handler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var in requests.CreateInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	req, err := h.Svc.CreateRequest(r.Context(), id.UserID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	req, err := h.Svc.GetRequest(r.Context(), requestID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// EditRequestHandler обрабатывает PATCH /api/requests/{requestId}
func (h *Handler) EditRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	var in requests.UpdateInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	req, err := h.Svc.UpdateRequest(r.Context(), requestID, id.UserID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) CancelRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	var in reasonInput
	if !decodeJSON(w, r, &in, true) {
		return
	}
	req, err := h.Svc.CancelRequest(r.Context(), requestID, id.UserID, in.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) GetRequestHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	history, err := h.Svc.GetRequestHistory(r.Context(), requestID, id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// AssignCategoryHandler обрабатывает POST /api/internal/requests/{requestId}/category
func (h *Handler) AssignCategoryHandler(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	var in struct {
		CategoryID int64 `json:"categoryId"`
	}
	if !decodeJSON(w, r, &in, false) {
		return
	}
	req, err := h.Svc.AssignCategory(r.Context(), requestID, in.CategoryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
