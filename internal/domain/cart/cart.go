package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested cart does not exist.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when a referenced line item is not part of
	// the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrConflict is returned when a save targeted a version of the cart that
	// has been modified since it was read.
	ErrConflict = errors.New("cart modified concurrently")
	// ErrFinalized is returned when a mutation targets a finalized cart.
	// Finalization is irreversible and freezes the cart's total.
	ErrFinalized = errors.New("cart is finalized")
)

// InvalidQuantityError indicates a line item quantity that is not positive.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0, got %d", e.Quantity)
}

// Cart is a shopping cart owning its line items exclusively: deleting the
// cart deletes the items.
type Cart struct {
	ID          string
	UserID      string // empty for anonymous carts
	CreatedAt   time.Time
	Finalized   bool
	FinalizedAt *time.Time
	Total       decimal.Decimal
	Version     int64
	Items       []Item
}

// Item is a single line in a cart. UnitPrice is the game's sale price
// captured at the time the item was added.
type Item struct {
	ID        string
	CartID    string
	GameID    string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Repository defines persistence operations for carts. Save persists the
// cart row and the full item set in one transaction and must fail with
// ErrConflict when the stored version differs from c.Version.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
