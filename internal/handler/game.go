package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/devsteam-store/internal/domain/game"
)

// maxBannerBytes caps the in-memory part of a banner upload.
const maxBannerBytes = 10 << 20

// gameRequest is the wire shape for game create/update bodies. Price carries
// the undiscounted price; the server derives the sale price from it.
type gameRequest struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Genre       string  `json:"genre"`
	Price       float64 `json:"price"`
	Discount    int     `json:"discount"`
}

// gameResponse is the wire shape for game responses. Money is serialized as
// float64 at the boundary; the domain keeps exact decimals.
type gameResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Genre         string    `json:"genre"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	Discount      int       `json:"discount"`
	Banner        string    `json:"banner,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *Handler) toGameResponse(g *game.Game) gameResponse {
	banner := g.BannerPath
	if banner != "" && h.imageBaseURL != "" {
		banner = h.imageBaseURL + "/" + banner
	}
	return gameResponse{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		Genre:         g.Genre,
		Price:         g.Price.InexactFloat64(),
		OriginalPrice: g.OriginalPrice.InexactFloat64(),
		Discount:      g.Discount,
		Banner:        banner,
		CreatedAt:     g.CreatedAt,
	}
}

func (req *gameRequest) toDomain() *game.Game {
	return &game.Game{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Price:       decimal.NewFromFloat(req.Price).Round(2),
		Discount:    req.Discount,
	}
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]gameResponse, len(games))
	for i := range games {
		resp[i] = h.toGameResponse(&games[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toGameResponse(g))
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.games.Create(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toGameResponse(g))
}

func (h *Handler) updateGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The id in the path must match the one in the body.
	if id := r.PathValue("id"); req.ID != id {
		writeError(w, http.StatusBadRequest, "game id in path does not match body")
		return
	}

	g, err := h.games.Update(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toGameResponse(g))
}

func (h *Handler) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "gameId query parameter is required")
		return
	}
	percent, err := strconv.Atoi(r.URL.Query().Get("percent"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "percent query parameter must be an integer")
		return
	}

	g, err := h.games.ApplyDiscount(r.Context(), gameID, percent)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toGameResponse(g))
}

func (h *Handler) removeDiscount(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "gameId query parameter is required")
		return
	}

	g, err := h.games.RemoveDiscount(r.Context(), gameID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toGameResponse(g))
}

// bannerResponse is returned by the banner upload endpoint.
type bannerResponse struct {
	FilePath string `json:"filePath"`
}

func (h *Handler) uploadBanner(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "gameId query parameter is required")
		return
	}

	if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxBannerBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	path, err := h.games.UploadBanner(r.Context(),
		gameID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bannerResponse{FilePath: path})
}
