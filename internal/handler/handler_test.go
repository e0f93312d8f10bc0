package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/devsteam-store/internal/domain/cart"
	"github.com/xenking/devsteam-store/internal/domain/game"
)

// stubGameRepo is an in-memory game.Repository with version guards.
type stubGameRepo struct {
	games map[string]game.Game
}

func newStubGameRepo(games ...game.Game) *stubGameRepo {
	r := &stubGameRepo{games: make(map[string]game.Game)}
	for _, g := range games {
		r.games[g.ID] = g
	}
	return r
}

func (r *stubGameRepo) List(context.Context) ([]game.Game, error) {
	out := make([]game.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out, nil
}

func (r *stubGameRepo) GetByID(_ context.Context, id string) (*game.Game, error) {
	g, ok := r.games[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	return &g, nil
}

func (r *stubGameRepo) Create(_ context.Context, g *game.Game) error {
	r.games[g.ID] = *g
	return nil
}

func (r *stubGameRepo) Update(_ context.Context, g *game.Game) error {
	stored, ok := r.games[g.ID]
	if !ok || stored.Version != g.Version {
		return game.ErrConflict
	}
	g.Version++
	r.games[g.ID] = *g
	return nil
}

func (r *stubGameRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.games[id]; !ok {
		return game.ErrNotFound
	}
	delete(r.games, id)
	return nil
}

// stubCartRepo is an in-memory cart.Repository with version guards.
type stubCartRepo struct {
	carts map[string]cart.Cart
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]cart.Cart)}
}

func (r *stubCartRepo) Create(_ context.Context, c *cart.Cart) error {
	r.carts[c.ID] = *c
	return nil
}

func (r *stubCartRepo) GetByID(_ context.Context, id string) (*cart.Cart, error) {
	c, ok := r.carts[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return &c, nil
}

func (r *stubCartRepo) Save(_ context.Context, c *cart.Cart) error {
	stored, ok := r.carts[c.ID]
	if !ok || stored.Version != c.Version {
		return cart.ErrConflict
	}
	c.Version++
	r.carts[c.ID] = *c
	return nil
}

func (r *stubCartRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.carts[id]; !ok {
		return cart.ErrNotFound
	}
	delete(r.carts, id)
	return nil
}

// stubBlobs records writes in memory.
type stubBlobs struct {
	files map[string][]byte
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{files: make(map[string][]byte)}
}

func (b *stubBlobs) Exists(path string) (bool, error) {
	_, ok := b.files[path]
	return ok, nil
}

func (b *stubBlobs) Write(path string, data []byte) error {
	b.files[path] = data
	return nil
}

func (b *stubBlobs) Delete(path string) error {
	delete(b.files, path)
	return nil
}

func catalogGame(id, price string) game.Game {
	return game.Game{
		ID:            id,
		Title:         "Game " + id,
		Genre:         "Indie",
		Price:         decimal.RequireFromString(price),
		OriginalPrice: decimal.RequireFromString(price),
	}
}

func newTestServer(t *testing.T, games ...game.Game) *httptest.Server {
	t.Helper()

	gameRepo := newStubGameRepo(games...)
	h := New(
		Config{},
		game.NewService(gameRepo, newStubBlobs()),
		cart.NewService(newStubCartRepo(), gameRepo),
	)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGameEndpoints(t *testing.T) {
	t.Run("create returns 201 with derived pricing", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/games", gameRequest{
			Title:    "Starfall",
			Genre:    "RPG",
			Price:    100,
			Discount: 25,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		got := decodeBody[gameResponse](t, resp)
		assert.NotEmpty(t, got.ID)
		assert.InDelta(t, 75.0, got.Price, 0.001)
		assert.InDelta(t, 100.0, got.OriginalPrice, 0.001)
	})

	t.Run("get unknown game returns 404 envelope", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/games/missing", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		got := decodeBody[errorResponse](t, resp)
		assert.Equal(t, http.StatusNotFound, got.Code)
		assert.NotEmpty(t, got.Message)
	})

	t.Run("update with mismatched path and body id returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/g1", gameRequest{
			ID:    "g2",
			Title: "Renamed",
			Price: 10,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("update applies new price", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/g1", gameRequest{
			ID:    "g1",
			Title: "Renamed",
			Price: 29.99,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got := decodeBody[gameResponse](t, resp)
		assert.Equal(t, "Renamed", got.Title)
		assert.InDelta(t, 29.99, got.Price, 0.001)
	})

	t.Run("unknown body field returns 400", func(t *testing.T) {
		srv := newTestServer(t)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/games",
			strings.NewReader(`{"title":"X","price":1,"bogus":true}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete returns 204 then 404", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/games/g1", nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, http.MethodDelete, srv.URL+"/api/games/g1", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestDiscountEndpoints(t *testing.T) {
	t.Run("apply and remove", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "100.00"))

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/discount?gameId=g1&percent=25", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[gameResponse](t, resp)
		assert.InDelta(t, 75.0, got.Price, 0.001)
		assert.Equal(t, 25, got.Discount)

		resp = doJSON(t, http.MethodPut, srv.URL+"/api/games/discount/remove?gameId=g1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got = decodeBody[gameResponse](t, resp)
		assert.InDelta(t, 100.0, got.Price, 0.001)
		assert.Equal(t, 0, got.Discount)
	})

	t.Run("out of range percent returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "100.00"))

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/discount?gameId=g1&percent=150", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("non-integer percent returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "100.00"))

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/discount?gameId=g1&percent=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("missing gameId returns 400", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/games/discount?percent=10", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestBannerUpload(t *testing.T) {
	multipartBody := func(t *testing.T, filename, contentType string, data []byte) (io.Reader, string) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		hdr["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return &buf, w.FormDataContentType()
	}

	upload := func(t *testing.T, srv *httptest.Server, gameID, filename, contentType string, data []byte) *http.Response {
		t.Helper()
		body, bodyType := multipartBody(t, filename, contentType, data)
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/games/banner?gameId="+gameID, body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", bodyType)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	payload := []byte{0x89, 'P', 'N', 'G'}

	t.Run("returns stored path", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := upload(t, srv, "g1", "cover.png", "image/png", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got := decodeBody[bannerResponse](t, resp)
		assert.Equal(t, "games/g1.png", got.FilePath)
	})

	t.Run("wrong extension returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := upload(t, srv, "g1", "cover.webp", "image/webp", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("non-image content type returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := upload(t, srv, "g1", "cover.png", "text/plain", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("unknown game returns 404", func(t *testing.T) {
		srv := newTestServer(t)

		resp := upload(t, srv, "missing", "cover.png", "image/png", payload)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestCartEndpoints(t *testing.T) {
	t.Run("full cart flow", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"), catalogGame("g2", "5.00"))

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", createCartRequest{UserID: "u1"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		c := decodeBody[cartResponse](t, resp)
		require.NotEmpty(t, c.ID)
		assert.Equal(t, "u1", c.UserID)

		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/items",
			addItemRequest{GameID: "g1", Quantity: 2})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c = decodeBody[cartResponse](t, resp)

		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/items",
			addItemRequest{GameID: "g2", Quantity: 1})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c = decodeBody[cartResponse](t, resp)

		require.Len(t, c.Items, 2)
		assert.InDelta(t, 25.0, c.Total, 0.001)

		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/finalize", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c = decodeBody[cartResponse](t, resp)
		assert.True(t, c.Finalized)
		require.NotNil(t, c.FinalizedAt)

		// Finalized cart rejects further mutation.
		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/items",
			addItemRequest{GameID: "g1", Quantity: 1})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("empty body opens anonymous cart", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		c := decodeBody[cartResponse](t, resp)
		assert.Empty(t, c.UserID)
		assert.Empty(t, c.Items)
	})

	t.Run("zero quantity returns 400", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", nil)
		c := decodeBody[cartResponse](t, resp)

		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/items",
			addItemRequest{GameID: "g1", Quantity: 0})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("unknown item returns 404", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", nil)
		c := decodeBody[cartResponse](t, resp)

		resp = doJSON(t, http.MethodPut, srv.URL+"/api/carts/"+c.ID+"/items/missing",
			updateItemRequest{Quantity: 2})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("update and remove item", func(t *testing.T) {
		srv := newTestServer(t, catalogGame("g1", "10.00"))

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", nil)
		c := decodeBody[cartResponse](t, resp)

		resp = doJSON(t, http.MethodPost, srv.URL+"/api/carts/"+c.ID+"/items",
			addItemRequest{GameID: "g1", Quantity: 1})
		c = decodeBody[cartResponse](t, resp)
		itemID := c.Items[0].ID

		resp = doJSON(t, http.MethodPut, srv.URL+"/api/carts/"+c.ID+"/items/"+itemID,
			updateItemRequest{Quantity: 4})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c = decodeBody[cartResponse](t, resp)
		assert.InDelta(t, 40.0, c.Total, 0.001)

		resp = doJSON(t, http.MethodDelete, srv.URL+"/api/carts/"+c.ID+"/items/"+itemID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		c = decodeBody[cartResponse](t, resp)
		assert.Empty(t, c.Items)
		assert.InDelta(t, 0.0, c.Total, 0.001)
	})

	t.Run("delete cart returns 204 then get returns 404", func(t *testing.T) {
		srv := newTestServer(t)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", nil)
		c := decodeBody[cartResponse](t, resp)

		resp = doJSON(t, http.MethodDelete, srv.URL+"/api/carts/"+c.ID, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, http.MethodGet, srv.URL+"/api/carts/"+c.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
