package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

// EncodeResult renders r as the discount result document. An empty discount
// list is written as [] rather than null.
func EncodeResult(r discount.Result) []byte {
	var e jx.Encoder
	WriteResult(&e, r)
	return e.Bytes()
}

// WriteResult writes r to e.
func WriteResult(e *jx.Encoder, r discount.Result) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("discountApplicationStrategy", func(e *jx.Encoder) {
			e.Str(string(r.Strategy))
		})
		e.Field("discounts", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, in := range r.Discounts {
					writeInstruction(e, in)
				}
			})
		})
	})
}

func writeInstruction(e *jx.Encoder, in discount.Instruction) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("targets", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("cartLine", func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(in.CartLineID) })
						})
					})
				})
			})
		})
		e.Field("value", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("percentage", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("value", func(e *jx.Encoder) { e.Str(in.Percentage) })
					})
				})
			})
		})
		e.Field("message", func(e *jx.Encoder) { e.Str(in.Message) })
	})
}
