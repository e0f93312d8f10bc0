package game

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested game does not exist.
	ErrNotFound = errors.New("game not found")
	// ErrConflict is returned when an update targeted a version of the game
	// that has been modified since it was read. The caller must re-fetch and
	// retry; the service never retries silently.
	ErrConflict = errors.New("game modified concurrently")
)

// ValidationError indicates malformed input rejected before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Game represents a catalog entry available for purchase.
//
// Price is always derived from OriginalPrice and Discount; OriginalPrice is
// the source of truth and Price must never be edited without recomputation.
type Game struct {
	ID            string
	Title         string
	Description   string
	Genre         string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Discount      int
	BannerPath    string
	Version       int64
	CreatedAt     time.Time
}

// Repository defines persistence operations for the game catalog.
//
// Update must fail with ErrConflict when the stored version differs from
// g.Version, and increment the version on success.
type Repository interface {
	List(ctx context.Context) ([]Game, error)
	GetByID(ctx context.Context, id string) (*Game, error)
	Create(ctx context.Context, g *Game) error
	Update(ctx context.Context, g *Game) error
	Delete(ctx context.Context, id string) error
}

// BlobStore is the file store used for banner images, rooted under the
// configured content directory. Paths are relative to that root.
type BlobStore interface {
	Exists(path string) (bool, error)
	Write(path string, data []byte) error
	Delete(path string) error
}
