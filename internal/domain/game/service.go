package game

import (
	"context"
	"path"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// bannerDir is the blob-store directory banner images are written under.
const bannerDir = "games"

// allowedBannerExts is the extension allow-list for banner uploads.
var allowedBannerExts = []string{".jpg", ".jpeg", ".png", ".gif"}

// Service encapsulates catalog management: CRUD, discount application, and
// banner uploads.
type Service struct {
	games Repository
	blobs BlobStore
}

// NewService creates a catalog Service with the required dependencies.
func NewService(games Repository, blobs BlobStore) *Service {
	return &Service{
		games: games,
		blobs: blobs,
	}
}

// List returns all games in the catalog.
func (s *Service) List(ctx context.Context) ([]Game, error) {
	return s.games.List(ctx)
}

// Get returns a single game by id. Returns ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (*Game, error) {
	return s.games.GetByID(ctx, id)
}

// Create normalizes pricing on the submitted game and persists it. A missing
// id is generated.
func (s *Service) Create(ctx context.Context, g *Game) (*Game, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if err := g.NormalizePricing(); err != nil {
		return nil, err
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, errors.Wrap(err, "create game")
	}
	return g, nil
}

// Update performs a full update of an existing game. The stored record is
// read first, so a concurrent modification between read and save surfaces as
// ErrConflict; a concurrent delete surfaces as ErrNotFound.
func (s *Service) Update(ctx context.Context, in *Game) (*Game, error) {
	current, err := s.games.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	current.Title = in.Title
	current.Description = in.Description
	current.Genre = in.Genre
	current.Price = in.Price
	current.Discount = in.Discount

	if err := current.NormalizePricing(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes a game. Returns ErrNotFound when the id does not exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.games.Delete(ctx, id)
}

// ApplyDiscount sets the discount percent on a game and recomputes its sale
// price from the original price.
func (s *Service) ApplyDiscount(ctx context.Context, id string, percent int) (*Game, error) {
	g, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.ApplyDiscount(percent); err != nil {
		return nil, err
	}
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// RemoveDiscount clears any discount on a game, restoring the original price.
func (s *Service) RemoveDiscount(ctx context.Context, id string) (*Game, error) {
	g, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.RemoveDiscount()
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// UploadBanner validates and stores a banner image for a game, replacing any
// previous banner. The destination path is deterministic
// (games/<id><extension>), so concurrent uploads for the same game are
// last-writer-wins. The write is delete-then-create, not an atomic rename: a
// crash mid-write can leave a truncated file.
//
// Returns the relative path written.
func (s *Service) UploadBanner(ctx context.Context, id, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validationf("banner file must not be empty")
	}

	g, err := s.games.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(contentType, "image/") {
		return "", validationf("banner must be an image, got content type %q", contentType)
	}

	ext := strings.ToLower(path.Ext(filename))
	if !allowedExt(ext) {
		return "", validationf("unsupported banner format %q: use .jpg, .jpeg, .png or .gif", ext)
	}

	dest := path.Join(bannerDir, g.ID+ext)

	// Drop stale banners, including ones uploaded under a different extension.
	for _, e := range allowedBannerExts {
		old := path.Join(bannerDir, g.ID+e)
		ok, err := s.blobs.Exists(old)
		if err != nil {
			return "", errors.Wrapf(err, "check banner %s", old)
		}
		if ok {
			if err := s.blobs.Delete(old); err != nil {
				return "", errors.Wrapf(err, "delete banner %s", old)
			}
		}
	}

	if err := s.blobs.Write(dest, data); err != nil {
		return "", errors.Wrapf(err, "write banner %s", dest)
	}

	g.BannerPath = dest
	if err := s.save(ctx, g); err != nil {
		return "", err
	}
	return dest, nil
}

// save persists an updated game, resolving version conflicts per the error
// taxonomy: a conflicting save on a concurrently deleted game is reported as
// ErrNotFound, while a genuine concurrent modification stays ErrConflict for
// the caller to handle. No automatic retry.
func (s *Service) save(ctx context.Context, g *Game) error {
	err := s.games.Update(ctx, g)
	if !errors.Is(err, ErrConflict) {
		return err
	}
	if _, getErr := s.games.GetByID(ctx, g.ID); errors.Is(getErr, ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func allowedExt(ext string) bool {
	for _, e := range allowedBannerExts {
		if ext == e {
			return true
		}
	}
	return false
}
