package handler

import (
	"net/http"
	"time"

	"github.com/xenking/devsteam-store/internal/domain/cart"
)

type createCartRequest struct {
	UserID string `json:"userId"`
}

type addItemRequest struct {
	GameID   string `json:"gameId"`
	Quantity int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartItemResponse struct {
	ID        string  `json:"id"`
	GameID    string  `json:"gameId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

type cartResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	Finalized   bool               `json:"finalized"`
	FinalizedAt *time.Time         `json:"finalizedAt,omitempty"`
	Total       float64            `json:"total"`
	Items       []cartItemResponse `json:"items"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = cartItemResponse{
			ID:        item.ID,
			GameID:    item.GameID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Subtotal:  item.Subtotal().InexactFloat64(),
		}
	}
	return cartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		Finalized:   c.Finalized,
		FinalizedAt: c.FinalizedAt,
		Total:       c.Total.InexactFloat64(),
		Items:       items,
	}
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	// The body is optional: an empty body opens an anonymous cart.
	var req createCartRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	c, err := h.carts.Create(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "gameId is required")
		return
	}

	c, err := h.carts.AddItem(r.Context(), r.PathValue("id"), req.GameID, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.carts.UpdateItemQuantity(r.Context(),
		r.PathValue("id"), r.PathValue("itemId"), req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) finalizeCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}
