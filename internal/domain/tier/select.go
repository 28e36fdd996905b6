package tier

import (
	"github.com/shopspring/decimal"
)

// Select returns the best-fit rule for quantity: the usable rule with the
// highest threshold not exceeding quantity. When several rules share that
// threshold the one that comes first in rules wins. The slice is not modified.
func Select(rules []Rule, quantity int) (Rule, bool) {
	qty := decimal.NewFromInt(int64(quantity))

	var (
		best  Rule
		found bool
	)
	for _, r := range rules {
		if !r.Usable || r.Quantity.GreaterThan(qty) {
			continue
		}
		if !found || r.Quantity.GreaterThan(best.Quantity) {
			best, found = r, true
		}
	}
	return best, found
}
