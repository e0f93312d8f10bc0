// Package handler exposes the storefront REST surface over net/http.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/devsteam-store/internal/domain/cart"
	"github.com/xenking/devsteam-store/internal/domain/game"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative banner paths in game responses.
	// When empty, banner paths are returned as stored.
	ImageBaseURL string
}

// Handler routes HTTP requests to the catalog and cart services.
type Handler struct {
	games        *game.Service
	carts        *cart.Service
	imageBaseURL string
}

// New constructs a Handler with the required domain services.
func New(cfg Config, games *game.Service, carts *cart.Service) *Handler {
	return &Handler{
		games:        games,
		carts:        carts,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
	}
}

// RegisterRoutes mounts all API routes on the given mux.
//
// The literal discount/banner segments are registered as their own patterns;
// the Go 1.22 mux prefers them over the {id} wildcard.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/games", h.listGames)
	mux.HandleFunc("POST /api/games", h.createGame)
	mux.HandleFunc("POST /api/games/banner", h.uploadBanner)
	mux.HandleFunc("PUT /api/games/discount", h.applyDiscount)
	mux.HandleFunc("PUT /api/games/discount/remove", h.removeDiscount)
	mux.HandleFunc("GET /api/games/{id}", h.getGame)
	mux.HandleFunc("PUT /api/games/{id}", h.updateGame)
	mux.HandleFunc("DELETE /api/games/{id}", h.deleteGame)

	mux.HandleFunc("POST /api/carts", h.createCart)
	mux.HandleFunc("GET /api/carts/{id}", h.getCart)
	mux.HandleFunc("DELETE /api/carts/{id}", h.deleteCart)
	mux.HandleFunc("POST /api/carts/{id}/items", h.addCartItem)
	mux.HandleFunc("PUT /api/carts/{id}/items/{itemId}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/carts/{id}/items/{itemId}", h.removeCartItem)
	mux.HandleFunc("POST /api/carts/{id}/finalize", h.finalizeCart)
}

// writeJSON encodes v with the given status. Encoding failures after the
// header is written are unrecoverable and ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON strictly decodes a request body into v, rejecting unknown fields
// and trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	if dec.More() {
		return errors.New("unexpected trailing data in request body")
	}
	return nil
}
