package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/devsteam-store/internal/domain/cart"
	"github.com/xenking/devsteam-store/internal/domain/game"
)

// errorResponse is the wire envelope for all error responses.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// respondError maps domain errors onto the error taxonomy: validation → 400,
// not found → 404, conflicts (including finalized-cart mutation) → 409.
// Anything else is fatal from this core's perspective: logged and 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gve *game.ValidationError
		iqe *cart.InvalidQuantityError
	)

	switch {
	case errors.As(err, &gve), errors.As(err, &iqe):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, game.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, game.ErrConflict),
		errors.Is(err, cart.ErrConflict),
		errors.Is(err, cart.ErrFinalized):
		writeError(w, http.StatusConflict, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
