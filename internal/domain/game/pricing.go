package game

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// salePrice derives the current sale price from an original price and an
// integer discount percent. This is the single place the formula lives;
// every mutation path goes through it.
func salePrice(original decimal.Decimal, percent int) decimal.Decimal {
	if percent == 0 {
		return original
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent)))
	return original.Mul(factor).Div(hundred).Round(2)
}

// ApplyDiscount sets the discount percent and recomputes Price from
// OriginalPrice. Percent outside [0,100] fails without mutating the game.
func (g *Game) ApplyDiscount(percent int) error {
	if percent < 0 || percent > 100 {
		return validationf("discount must be between 0 and 100, got %d", percent)
	}
	g.Discount = percent
	g.Price = salePrice(g.OriginalPrice, percent)
	return nil
}

// RemoveDiscount clears the discount and restores the original price.
// Idempotent: applying it twice yields the same state as applying it once.
func (g *Game) RemoveDiscount() {
	g.Discount = 0
	g.Price = g.OriginalPrice
}

// NormalizePricing prepares a client-submitted game for persistence. The
// submitted Price is copied into OriginalPrice and the discount formula is
// reapplied on top.
//
// This keeps the legacy contract: clients must submit the undiscounted price
// in Price on every create and full update. A client that echoes back the
// discounted price corrupts OriginalPrice. See DESIGN.md before changing.
func (g *Game) NormalizePricing() error {
	if g.Price.IsNegative() {
		return validationf("price must not be negative, got %s", g.Price)
	}
	if g.Discount < 0 || g.Discount > 100 {
		return validationf("discount must be between 0 and 100, got %d", g.Discount)
	}
	g.OriginalPrice = g.Price
	g.Price = salePrice(g.OriginalPrice, g.Discount)
	return nil
}
