package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/devsteam-store/internal/domain/game"
)

// Service encapsulates cart lifecycle and line item management. The total is
// recomputed on every item mutation so the stored value always matches the
// item subtotals while the cart is open.
type Service struct {
	carts Repository
	games game.Repository
	now   func() time.Time
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, games game.Repository) *Service {
	return &Service{
		carts: carts,
		games: games,
		now:   time.Now,
	}
}

// Create opens a new empty cart, optionally owned by a user.
func (s *Service) Create(ctx context.Context, userID string) (*Cart, error) {
	c := &Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get returns a cart with its items. Returns ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.carts.GetByID(ctx, id)
}

// Delete removes a cart and, through ownership, all of its items.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.carts.Delete(ctx, id)
}

// AddItem adds a game to the cart at its current sale price. Adding a game
// already in the cart increments that line's quantity instead of creating a
// second line; the captured unit price is kept.
func (s *Service) AddItem(ctx context.Context, cartID, gameID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	c, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	g, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].GameID == gameID {
			c.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, Item{
			ID:        uuid.New().String(),
			CartID:    c.ID,
			GameID:    g.ID,
			Quantity:  quantity,
			UnitPrice: g.Price,
		})
	}

	c.recalc()
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItemQuantity changes the quantity of an existing line item.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	c, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	c.recalc()
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem deletes a line item from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	c, err := s.openCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)

	c.recalc()
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Finalize freezes the cart's total and marks it checked out.
func (s *Service) Finalize(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.Finalize(s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// openCart fetches a cart and rejects the mutation when it is finalized.
func (s *Service) openCart(ctx context.Context, id string) (*Cart, error) {
	c, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Finalized {
		return nil, ErrFinalized
	}
	return c, nil
}

// save persists the cart, distinguishing a concurrent delete (ErrNotFound)
// from a concurrent modification (ErrConflict, surfaced without retry).
func (s *Service) save(ctx context.Context, c *Cart) error {
	err := s.carts.Save(ctx, c)
	if !errors.Is(err, ErrConflict) {
		return err
	}
	if _, getErr := s.carts.GetByID(ctx, c.ID); errors.Is(getErr, ErrNotFound) {
		return ErrNotFound
	}
	return err
}
