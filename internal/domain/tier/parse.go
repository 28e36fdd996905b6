package tier

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Parse reads raw JSON attached to a product as a tier configuration.
//
// Anything other than a JSON array yields an Invalid config. Array elements
// that are not objects, or whose quantity or discount is not a usable number,
// are kept as unusable rules so that input positions are preserved.
func Parse(raw []byte) Config {
	if len(raw) == 0 {
		return InvalidConfig("empty value")
	}

	d := jx.DecodeBytes(raw)
	if tt := d.Next(); tt != jx.Array {
		return InvalidConfig(fmt.Sprintf("expected array, got %s", tt))
	}

	var rules []Rule
	if err := d.Arr(func(d *jx.Decoder) error {
		r, err := decodeRule(d)
		if err != nil {
			return err
		}
		rules = append(rules, r)
		return nil
	}); err != nil {
		return InvalidConfig(errors.Wrap(err, "decode tiers").Error())
	}
	if rules == nil {
		rules = []Rule{}
	}

	return ValidConfig(rules)
}

// ParseText reads a configuration stored as JSON text inside a string value.
func ParseText(text string) Config {
	return Parse([]byte(text))
}

func decodeRule(d *jx.Decoder) (Rule, error) {
	if d.Next() != jx.Object {
		return Rule{}, d.Skip()
	}

	var (
		r              Rule
		qtyOK, discOK  bool
		quantity, disc decimal.Decimal
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			quantity, qtyOK, err = decodeNumber(d)
		case "discount":
			disc, discOK, err = decodeNumber(d)
		case "message":
			if d.Next() != jx.String {
				return d.Skip()
			}
			r.Message, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return Rule{}, err
	}

	r.Quantity = quantity
	r.Discount = disc
	r.Usable = qtyOK && discOK
	return r, nil
}

// Bounds on usable numbers. Comparing and rendering a decimal costs time
// proportional to its exponent.
const (
	maxNumberLen = 64
	maxExponent  = 28
)

// decodeNumber reads a JSON number or a numeric string. Any other value is
// consumed and reported as not usable.
func decodeNumber(d *jx.Decoder) (decimal.Decimal, bool, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, false, err
		}
		v, ok := parseNumber(n.String())
		return v, ok, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, false, err
		}
		v, ok := parseNumber(s)
		return v, ok, nil
	default:
		return decimal.Zero, false, d.Skip()
	}
}

func parseNumber(s string) (decimal.Decimal, bool) {
	if s == "" || len(s) > maxNumberLen {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if e := v.Exponent(); e > maxExponent || e < -maxExponent {
		return decimal.Zero, false
	}
	return v, true
}
