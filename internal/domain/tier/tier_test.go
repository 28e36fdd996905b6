package tier

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func rule(qty, discount string) Rule {
	return Rule{Quantity: d(qty), Discount: d(discount), Usable: true}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantState State
		wantRules []Rule
	}{
		{
			name:      "array of tiers",
			raw:       `[{"quantity":3,"discount":10},{"quantity":10,"discount":20,"message":"Bulk!"}]`,
			wantState: Valid,
			wantRules: []Rule{
				rule("3", "10"),
				{Quantity: d("10"), Discount: d("20"), Message: "Bulk!", Usable: true},
			},
		},
		{
			name:      "empty array",
			raw:       `[]`,
			wantState: Valid,
			wantRules: []Rule{},
		},
		{
			name:      "string instead of array",
			raw:       `"not-an-array"`,
			wantState: Invalid,
		},
		{
			name:      "object instead of array",
			raw:       `{"quantity":3,"discount":10}`,
			wantState: Invalid,
		},
		{
			name:      "null",
			raw:       `null`,
			wantState: Invalid,
		},
		{
			name:      "empty input",
			raw:       ``,
			wantState: Invalid,
		},
		{
			name:      "truncated array",
			raw:       `[{"quantity":3,`,
			wantState: Invalid,
		},
		{
			name:      "numeric strings are usable",
			raw:       `[{"quantity":"5","discount":"12.5"}]`,
			wantState: Valid,
			wantRules: []Rule{rule("5", "12.5")},
		},
		{
			name:      "exponent numbers",
			raw:       `[{"quantity":1e1,"discount":2.5E1}]`,
			wantState: Valid,
			wantRules: []Rule{rule("10", "25")},
		},
		{
			name:      "unusable discount keeps position",
			raw:       `[{"quantity":2,"discount":"ten"},{"quantity":4,"discount":null},{"quantity":6,"discount":15}]`,
			wantState: Valid,
			wantRules: []Rule{
				{Quantity: d("2")},
				{Quantity: d("4")},
				rule("6", "15"),
			},
		},
		{
			name:      "tiny quantity exponent is unusable",
			raw:       `[{"quantity":1e-20000000,"discount":1},{"quantity":2,"discount":3}]`,
			wantState: Valid,
			wantRules: []Rule{{Discount: d("1")}, rule("2", "3")},
		},
		{
			name:      "huge discount exponent is unusable",
			raw:       `[{"quantity":1,"discount":1e20000000}]`,
			wantState: Valid,
			wantRules: []Rule{{Quantity: d("1")}},
		},
		{
			name:      "huge exponent in numeric string is unusable",
			raw:       `[{"quantity":"1e-999999999","discount":"5"}]`,
			wantState: Valid,
			wantRules: []Rule{{Discount: d("5")}},
		},
		{
			name:      "overlong digit string is unusable",
			raw:       `[{"quantity":1,"discount":"0.` + strings.Repeat("1", 100) + `"}]`,
			wantState: Valid,
			wantRules: []Rule{{Quantity: d("1")}},
		},
		{
			name:      "exponent at bound is usable",
			raw:       `[{"quantity":1,"discount":1e-28}]`,
			wantState: Valid,
			wantRules: []Rule{rule("1", "0.0000000000000000000000000001")},
		},
		{
			name:      "missing quantity",
			raw:       `[{"discount":5}]`,
			wantState: Valid,
			wantRules: []Rule{{Discount: d("5")}},
		},
		{
			name:      "non-object elements",
			raw:       `[1,"two",[3],{"quantity":1,"discount":1}]`,
			wantState: Valid,
			wantRules: []Rule{{}, {}, {}, rule("1", "1")},
		},
		{
			name:      "non-string message ignored",
			raw:       `[{"quantity":1,"discount":5,"message":42,"extra":{"a":[1,2]}}]`,
			wantState: Valid,
			wantRules: []Rule{rule("1", "5")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.raw))
			require.Equal(t, tt.wantState, got.State(), "reason: %s", got.Reason())

			if tt.wantState != Valid {
				assert.NotEmpty(t, got.Reason())
				assert.Nil(t, got.Rules())
				return
			}

			require.Len(t, got.Rules(), len(tt.wantRules))
			for i, want := range tt.wantRules {
				r := got.Rules()[i]
				assert.Equal(t, want.Usable, r.Usable, "rule %d usable", i)
				assert.Equal(t, want.Message, r.Message, "rule %d message", i)
				assert.True(t, want.Quantity.Equal(r.Quantity), "rule %d quantity: want %s, got %s", i, want.Quantity, r.Quantity)
				assert.True(t, want.Discount.Equal(r.Discount), "rule %d discount: want %s, got %s", i, want.Discount, r.Discount)
			}
		})
	}
}

func TestParse_OversizedNumbersStayCheap(t *testing.T) {
	start := time.Now()
	for _, raw := range []string{
		`[{"quantity":1e-20000000,"discount":1}]`,
		`[{"quantity":1,"discount":1e20000000}]`,
		`[{"quantity":1e-999999999,"discount":1e999999999}]`,
	} {
		c := Parse([]byte(raw))
		require.Equal(t, Valid, c.State())

		_, ok := Select(c.Rules(), 5)
		assert.False(t, ok, "raw %s", raw)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseText(t *testing.T) {
	c := ParseText(`[{"quantity":2,"discount":5}]`)
	require.Equal(t, Valid, c.State())
	require.Len(t, c.Rules(), 1)
}

func TestConfigVariants(t *testing.T) {
	var zero Config
	assert.Equal(t, Absent, zero.State())
	assert.False(t, zero.Present())

	assert.False(t, AbsentConfig().Present())
	assert.True(t, InvalidConfig("bad").Present())
	assert.Equal(t, "bad", InvalidConfig("bad").Reason())
	assert.True(t, ValidConfig(nil).Present())

	assert.Equal(t, "absent", Absent.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "valid", Valid.String())
}

func TestSelect(t *testing.T) {
	tiers := []Rule{rule("3", "10"), rule("10", "20")}

	tests := []struct {
		name         string
		rules        []Rule
		quantity     int
		wantFound    bool
		wantDiscount string
	}{
		{name: "between tiers picks lower", rules: tiers, quantity: 5, wantFound: true, wantDiscount: "10"},
		{name: "above all tiers picks highest", rules: tiers, quantity: 15, wantFound: true, wantDiscount: "20"},
		{name: "below all tiers", rules: tiers, quantity: 1, wantFound: false},
		{name: "exact threshold qualifies", rules: tiers, quantity: 10, wantFound: true, wantDiscount: "20"},
		{name: "no rules", rules: nil, quantity: 100, wantFound: false},
		{
			name:         "unordered input",
			rules:        []Rule{rule("10", "20"), rule("1", "2"), rule("5", "7")},
			quantity:     6,
			wantFound:    true,
			wantDiscount: "7",
		},
		{
			name:         "unusable winner falls back to next usable tier",
			rules:        []Rule{rule("3", "10"), {Quantity: d("5")}},
			quantity:     6,
			wantFound:    true,
			wantDiscount: "10",
		},
		{
			name:      "only unusable candidates",
			rules:     []Rule{{Quantity: d("1")}},
			quantity:  6,
			wantFound: false,
		},
		{
			name:         "tie picks first in input order",
			rules:        []Rule{rule("5", "15"), rule("5", "25"), rule("2", "5")},
			quantity:     5,
			wantFound:    true,
			wantDiscount: "15",
		},
		{
			name:         "fractional threshold",
			rules:        []Rule{rule("2.5", "5"), rule("3.5", "9")},
			quantity:     3,
			wantFound:    true,
			wantDiscount: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.rules, tt.quantity)
			require.Equal(t, tt.wantFound, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantDiscount, got.Discount.String())
		})
	}
}

func TestSelect_DoesNotMutate(t *testing.T) {
	rules := []Rule{rule("10", "20"), rule("3", "10"), rule("5", "15")}
	before := make([]Rule, len(rules))
	copy(before, rules)

	_, _ = Select(rules, 7)

	assert.Equal(t, before, rules)
}

func TestSelect_OrderIndependent(t *testing.T) {
	a := []Rule{rule("1", "2"), rule("4", "8"), rule("9", "18")}
	b := []Rule{rule("9", "18"), rule("1", "2"), rule("4", "8")}

	for qty := range 12 {
		ra, okA := Select(a, qty)
		rb, okB := Select(b, qty)
		require.Equal(t, okA, okB, "quantity %d", qty)
		if okA {
			assert.True(t, ra.Discount.Equal(rb.Discount), "quantity %d", qty)
		}
	}
}

func TestSelect_Monotonic(t *testing.T) {
	rules := []Rule{rule("2", "5"), rule("5", "10"), rule("20", "30"), rule("10", "15")}

	prev := decimal.Zero
	for qty := 1; qty <= 30; qty++ {
		r, ok := Select(rules, qty)
		if !ok {
			continue
		}
		assert.False(t, r.Discount.LessThan(prev), "quantity %d decreased discount", qty)
		prev = r.Discount
	}
}
