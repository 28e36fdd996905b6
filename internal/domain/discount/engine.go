package discount

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xenking/volume-discount/internal/domain/tier"
)

// Options tunes an Engine.
type Options struct {
	// Workers bounds how many lines are resolved concurrently. Values below 2
	// resolve lines sequentially.
	Workers int
}

// Engine resolves volume tier discounts for carts. It holds no per-cart state
// and is safe for concurrent use.
type Engine struct {
	sink    Sink
	workers int
}

// NewEngine creates an Engine reporting diagnostics to sink. A nil sink
// discards them.
func NewEngine(sink Sink, opts Options) *Engine {
	if sink == nil {
		sink = Discard
	}
	return &Engine{sink: sink, workers: opts.Workers}
}

// Run resolves every line of a cart and assembles the result. It never fails:
// lines that cannot be discounted are left out and reported to the sink.
//
// When no line is eligible the result uses StrategyFirst, otherwise
// StrategyAll, even if no eligible line ended up with a discount.
// Instructions follow the order of lines. Lines not yet resolved when ctx is
// cancelled get no instruction.
func (e *Engine) Run(ctx context.Context, lines []CartLine) Result {
	eligible := Eligible(lines)
	if len(eligible) == 0 {
		e.sink.Report(ctx, Diagnostic{
			Level:   LevelError,
			Reason:  ReasonNoEligibleLines,
			Message: "No cart lines qualify for volume discount.",
		})
		return Empty()
	}

	resolved := make([]*Instruction, len(eligible))
	if e.workers > 1 && len(eligible) > 1 {
		e.resolveConcurrently(ctx, eligible, resolved)
	} else {
		for i, l := range eligible {
			if ctx.Err() != nil {
				break
			}
			resolved[i] = e.resolve(ctx, l)
		}
	}

	discounts := make([]Instruction, 0, len(resolved))
	for _, in := range resolved {
		if in != nil {
			discounts = append(discounts, *in)
		}
	}

	return Result{Strategy: StrategyAll, Discounts: discounts}
}

func (e *Engine) resolveConcurrently(ctx context.Context, lines []CartLine, out []*Instruction) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, l := range lines {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out[i] = e.resolve(gctx, l)
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()
}

// Resolve returns the discount instruction for a single line, if any.
// The line is not checked for eligibility.
func (e *Engine) Resolve(ctx context.Context, line CartLine) (Instruction, bool) {
	in := e.resolve(ctx, line)
	if in == nil {
		return Instruction{}, false
	}
	return *in, true
}

func (e *Engine) resolve(ctx context.Context, line CartLine) *Instruction {
	var (
		productID string
		cfg       tier.Config
	)
	if line.Product != nil {
		productID = line.Product.ID
		cfg = line.Product.Tiers
	}

	if cfg.State() != tier.Valid {
		e.sink.Report(ctx, Diagnostic{
			Level:     LevelWarn,
			Reason:    ReasonInvalidConfig,
			Message:   fmt.Sprintf("Invalid metafield format for product %s", productID),
			LineID:    line.ID,
			ProductID: productID,
			Detail:    cfg.Reason(),
		})
		return nil
	}

	r, ok := tier.Select(cfg.Rules(), line.Quantity)
	if !ok {
		e.sink.Report(ctx, Diagnostic{
			Level:     LevelWarn,
			Reason:    ReasonNoApplicableTier,
			Message:   fmt.Sprintf("No discount applicable for product %s", productID),
			LineID:    line.ID,
			ProductID: productID,
		})
		return nil
	}

	return newInstruction(line, r)
}

func newInstruction(line CartLine, r tier.Rule) *Instruction {
	pct := r.Discount.String()
	msg := r.Message
	if msg == "" {
		msg = fmt.Sprintf("Discount applied: %s%%", pct)
	}
	return &Instruction{
		CartLineID: line.ID,
		Percentage: pct,
		Message:    msg,
	}
}
