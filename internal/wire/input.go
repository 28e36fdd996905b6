// Package wire encodes and decodes the JSON documents exchanged with the
// commerce platform: the cart input and the discount result.
package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/domain/tier"
)

// productVariant is the only merchandise type that refers to a catalog product.
const productVariant = "ProductVariant"

// DecodeError reports an input document that is not well-formed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode input: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeInput parses the cart input document into cart lines.
//
// Tier data of each product is parsed once and shared by every line that
// references the same product id. A missing or null metafield leaves the
// product without tier data.
func DecodeInput(data []byte) ([]discount.CartLine, error) {
	dec := &inputDecoder{products: make(map[string]*discount.Product)}

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "cart" {
			return d.Skip()
		}
		return dec.cart(d)
	}); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return dec.lines, nil
}

type inputDecoder struct {
	lines    []discount.CartLine
	products map[string]*discount.Product
}

func (dec *inputDecoder) cart(d *jx.Decoder) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "lines" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			l, err := dec.line(d)
			if err != nil {
				return errors.Wrapf(err, "line %d", len(dec.lines))
			}
			dec.lines = append(dec.lines, l)
			return nil
		})
	})
}

func (dec *inputDecoder) line(d *jx.Decoder) (discount.CartLine, error) {
	var l discount.CartLine
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			l.ID, err = d.Str()
		case "quantity":
			l.Quantity, err = d.Int()
		case "merchandise":
			l.Product, err = dec.merchandise(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return l, err
}

func (dec *inputDecoder) merchandise(d *jx.Decoder) (*discount.Product, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var (
		typename string
		p        *discount.Product
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "__typename":
			typename, err = d.Str()
		case "product":
			p, err = dec.product(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if typename != "" && typename != productVariant {
		return nil, nil
	}
	return p, nil
}

func (dec *inputDecoder) product(d *jx.Decoder) (*discount.Product, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var (
		id    string
		tiers = tier.AbsentConfig()
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			id, err = d.Str()
		case "metafield":
			tiers, err = metafield(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if p, ok := dec.products[id]; ok {
		return p, nil
	}
	p := &discount.Product{ID: id, Tiers: tiers}
	dec.products[id] = p
	return p, nil
}

// metafield reads {"jsonValue": any} or, for older inputs, {"value": "<json>"}.
// jsonValue takes precedence when both are present.
func metafield(d *jx.Decoder) (tier.Config, error) {
	if d.Next() == jx.Null {
		return tier.AbsentConfig(), d.Null()
	}

	var (
		jsonValue jx.Raw
		text      string
		hasJSON   bool
		hasText   bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "jsonValue":
			var raw jx.Raw
			raw, err = d.Raw()
			// The decoder reuses its buffer, keep a copy.
			jsonValue = append(jx.Raw(nil), raw...)
			hasJSON = true
		case "value":
			if d.Next() != jx.String {
				return d.Skip()
			}
			text, err = d.Str()
			hasText = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return tier.Config{}, err
	}

	switch {
	case hasJSON:
		return tier.Parse(jsonValue), nil
	case hasText:
		return tier.ParseText(text), nil
	default:
		return tier.InvalidConfig("metafield has no value"), nil
	}
}
