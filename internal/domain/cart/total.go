package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recompute returns the total value of the given items: the sum of line
// subtotals, rounded to 2 decimal places. The single aggregation point; every
// item mutation goes through it.
func Recompute(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal())
	}
	return sum.Round(2)
}

// recalc refreshes the cart's stored total from its items.
func (c *Cart) recalc() {
	c.Total = Recompute(c.Items)
}

// Finalize freezes the cart's total and stamps the finalization time.
// Irreversible; a finalized cart rejects all further mutation.
func (c *Cart) Finalize(at time.Time) error {
	if c.Finalized {
		return ErrFinalized
	}
	c.recalc()
	c.Finalized = true
	c.FinalizedAt = &at
	return nil
}
