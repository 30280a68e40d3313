package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/newsletter"
	"github.com/go-chi/chi/v5"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.SavedLocally {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.newsletter.Unsubscribe(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.newsletter.LikePost(r.Context(), chi.URLParam(r, "postId"), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) PostLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.newsletter.PostLikes(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *Handler) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletter.Message
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.newsletter.Send(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type subscribersResponse struct {
	Subscribers []newsletter.Subscriber `json:"subscribers"`
	Pending     []string                `json:"pendingLocal"`
}

// ListSubscribers returns the backend list plus addresses still waiting in
// the local fallback list.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.newsletter.Subscribers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pending, err := h.newsletter.LocalSubscribers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []newsletter.Subscriber{}
	}
	if pending == nil {
		pending = []string{}
	}
	writeJSON(w, http.StatusOK, subscribersResponse{Subscribers: subs, Pending: pending})
}

func (h *Handler) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	sub, err := h.newsletter.Subscriber(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
