//go:build integration

package integration

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
)

func TestListGames(t *testing.T) {
	resp := doGet(t, "/api/games")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	games := decodeJSON[[]gameResponse](t, resp)
	if len(games) < 4 {
		t.Fatalf("expected at least 4 games, got %d", len(games))
	}
}

func TestGetGame_SeededPricing(t *testing.T) {
	resp := doGet(t, "/api/games/nebula-drift")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	g := decodeJSON[gameResponse](t, resp)
	if g.Title != "Nebula Drift" {
		t.Errorf("title: got %q, want %q", g.Title, "Nebula Drift")
	}
	if g.OriginalPrice != 39.99 {
		t.Errorf("originalPrice: got %v, want 39.99", g.OriginalPrice)
	}
	if g.Discount != 25 {
		t.Errorf("discount: got %d, want 25", g.Discount)
	}
	// 39.99 * 0.75 = 29.9925, rounded to cents.
	if g.Price != 29.99 {
		t.Errorf("price: got %v, want 29.99", g.Price)
	}
}

func TestGetGame_NotFound(t *testing.T) {
	resp := doGet(t, "/api/games/no-such-game")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestCreateUpdateDeleteGame(t *testing.T) {
	resp := doPost(t, "/api/games", gameRequest{
		ID:    "it-crud-game",
		Title: "Throwaway Quest",
		Genre: "Adventure",
		Price: 9.99,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[gameResponse](t, resp)
	resp.Body.Close()

	if created.Price != 9.99 || created.OriginalPrice != 9.99 {
		t.Errorf("pricing: got %v/%v, want 9.99/9.99", created.Price, created.OriginalPrice)
	}

	resp = doPut(t, "/api/games/it-crud-game", gameRequest{
		ID:    "it-crud-game",
		Title: "Throwaway Quest II",
		Genre: "Adventure",
		Price: 19.99,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[gameResponse](t, resp)
	resp.Body.Close()

	if updated.Title != "Throwaway Quest II" {
		t.Errorf("title: got %q", updated.Title)
	}
	if updated.Price != 19.99 {
		t.Errorf("price: got %v, want 19.99", updated.Price)
	}

	resp = doDelete(t, "/api/games/it-crud-game")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/games/it-crud-game")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateGame_IDMismatch(t *testing.T) {
	resp := doPut(t, "/api/games/nebula-drift", gameRequest{
		ID:    "something-else",
		Title: "Hijack",
		Price: 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDiscountLifecycle(t *testing.T) {
	resp := doPost(t, "/api/games", gameRequest{
		ID:    "it-discount-game",
		Title: "Sale Bait",
		Price: 100,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	t.Cleanup(func() {
		resp := doDelete(t, "/api/games/it-discount-game")
		resp.Body.Close()
	})

	resp = doPut(t, "/api/games/discount?gameId=it-discount-game&percent=30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d", resp.StatusCode)
	}
	g := decodeJSON[gameResponse](t, resp)
	resp.Body.Close()

	if g.Price != 70 {
		t.Errorf("discounted price: got %v, want 70", g.Price)
	}
	if g.OriginalPrice != 100 {
		t.Errorf("originalPrice: got %v, want 100", g.OriginalPrice)
	}

	resp = doPut(t, "/api/games/discount/remove?gameId=it-discount-game", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", resp.StatusCode)
	}
	g = decodeJSON[gameResponse](t, resp)
	resp.Body.Close()

	if g.Price != 100 || g.Discount != 0 {
		t.Errorf("after remove: price %v discount %d, want 100/0", g.Price, g.Discount)
	}
}

func TestDiscount_OutOfRange(t *testing.T) {
	resp := doPut(t, "/api/games/discount?gameId=nebula-drift&percent=120", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBannerUpload(t *testing.T) {
	resp := doPost(t, "/api/games", gameRequest{
		ID:    "it-banner-game",
		Title: "Poster Child",
		Price: 5,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	t.Cleanup(func() {
		resp := doDelete(t, "/api/games/it-banner-game")
		resp.Body.Close()
	})

	upload := func(t *testing.T, filename, contentType string) *http.Response {
		t.Helper()

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte{0x89, 'P', 'N', 'G'}); err != nil {
			t.Fatalf("write part: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
			baseURL+"/api/games/banner?gameId=it-banner-game", &buf)
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := httpClient.Do(req)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		return resp
	}

	resp = upload(t, "cover.png", "image/png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload png: expected 200, got %d", resp.StatusCode)
	}
	banner := decodeJSON[bannerResponse](t, resp)
	resp.Body.Close()

	if banner.FilePath != "games/it-banner-game.png" {
		t.Errorf("filePath: got %q, want %q", banner.FilePath, "games/it-banner-game.png")
	}

	// Re-uploading under another extension replaces the banner path.
	resp = upload(t, "cover.jpg", "image/jpeg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload jpg: expected 200, got %d", resp.StatusCode)
	}
	banner = decodeJSON[bannerResponse](t, resp)
	resp.Body.Close()

	if banner.FilePath != "games/it-banner-game.jpg" {
		t.Errorf("filePath: got %q, want %q", banner.FilePath, "games/it-banner-game.jpg")
	}

	resp = upload(t, "cover.webp", "image/webp")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("upload webp: expected 400, got %d", resp.StatusCode)
	}
}
