package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/volume-discount/internal/domain/cart"
	"github.com/xenking/volume-discount/internal/domain/tier"
)

// DecodeQuoteRequest parses {"lines":[{"id","productId","quantity"}]}, the
// body of a quote that resolves tier data from the product store.
func DecodeQuoteRequest(data []byte) (cart.QuoteRequest, error) {
	var req cart.QuoteRequest

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "lines" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var l cart.LineRequest
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "id":
					l.ID, err = d.Str()
				case "productId":
					l.ProductID, err = d.Str()
				case "quantity":
					l.Quantity, err = d.Int()
				default:
					err = d.Skip()
				}
				if err != nil {
					return errors.Wrap(err, key)
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "line %d", len(req.Lines))
			}
			req.Lines = append(req.Lines, l)
			return nil
		})
	}); err != nil {
		return cart.QuoteRequest{}, &DecodeError{Err: err}
	}

	return req, nil
}

// EncodeError renders the {"code","message"} error body.
func EncodeError(code int, message string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return e.Bytes()
}

// EncodeTiers renders a stored product tier document next to its usable
// rules. Decimals are written as JSON numbers without loss of precision.
func EncodeTiers(productID string, raw []byte, rules []tier.Rule) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(productID) })
		e.Field("tiers", func(e *jx.Encoder) { e.Raw(raw) })
		e.Field("rules", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range rules {
					e.Obj(func(e *jx.Encoder) {
						e.Field("quantity", func(e *jx.Encoder) { e.Raw([]byte(r.Quantity.String())) })
						e.Field("discount", func(e *jx.Encoder) { e.Raw([]byte(r.Discount.String())) })
						if r.Message != "" {
							e.Field("message", func(e *jx.Encoder) { e.Str(r.Message) })
						}
					})
				}
			})
		})
	})
	return e.Bytes()
}
