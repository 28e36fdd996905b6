// Package discount turns cart lines and their products' volume tiers into
// per-line percentage discount instructions.
package discount

import (
	"github.com/xenking/volume-discount/internal/domain/tier"
)

// Strategy tells the platform how the returned discounts combine.
type Strategy string

const (
	// StrategyFirst applies only the first discount. Returned with an empty
	// list when no line in the cart carries tier data.
	StrategyFirst Strategy = "FIRST"
	// StrategyAll applies every discount independently.
	StrategyAll Strategy = "ALL"
)

// Product is the product a cart line refers to. Several lines may share one
// Product; it is never modified during resolution.
type Product struct {
	ID    string
	Tiers tier.Config
}

// CartLine is a single line item of the cart being priced.
type CartLine struct {
	ID       string
	Quantity int
	// Product is nil for merchandise that is not a catalog product.
	Product *Product
}

// Instruction describes the discount applied to one cart line.
type Instruction struct {
	CartLineID string
	// Percentage is the tier discount in its decimal string form, e.g. "10".
	Percentage string
	Message    string
}

// Result is the outcome of one resolution pass over a cart.
type Result struct {
	Strategy  Strategy
	Discounts []Instruction
}

// Empty returns the result for a cart with no eligible lines.
func Empty() Result {
	return Result{Strategy: StrategyFirst, Discounts: []Instruction{}}
}

// Eligible returns the lines whose product carries tier configuration, in
// input order. Lines without a product are skipped.
func Eligible(lines []CartLine) []CartLine {
	var out []CartLine
	for _, l := range lines {
		if l.Product != nil && l.Product.Tiers.Present() {
			out = append(out, l)
		}
	}
	return out
}
