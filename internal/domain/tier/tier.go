// Package tier models seller-configured volume tiers and selects the tier a
// purchased quantity qualifies for.
package tier

import (
	"github.com/shopspring/decimal"
)

// State enumerates the outcomes of reading a product's tier configuration.
type State uint8

const (
	// Absent means the product carries no tier configuration at all.
	Absent State = iota
	// Invalid means configuration is attached but is not a sequence of rules.
	Invalid
	// Valid means configuration decoded to a (possibly empty) rule sequence.
	Valid
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

// Rule maps a minimum purchased quantity to a percentage discount.
type Rule struct {
	// Quantity is the minimum quantity a line needs to qualify.
	Quantity decimal.Decimal
	// Discount is a bare percentage: 10 means 10%.
	Discount decimal.Decimal
	// Message is shown to the buyer when set.
	Message string

	// Usable reports whether both Quantity and Discount decoded to numbers.
	// Unusable rules never qualify.
	Usable bool
}

// Config is a product's tier configuration, resolved once when it is parsed.
// The zero value is Absent.
type Config struct {
	state  State
	rules  []Rule
	reason string
}

// AbsentConfig returns the configuration of a product without tier data.
func AbsentConfig() Config {
	return Config{state: Absent}
}

// InvalidConfig returns a configuration that was attached but unreadable.
func InvalidConfig(reason string) Config {
	return Config{state: Invalid, reason: reason}
}

// ValidConfig returns a configuration holding rules in their input order.
func ValidConfig(rules []Rule) Config {
	return Config{state: Valid, rules: rules}
}

// State reports which variant c holds.
func (c Config) State() State { return c.state }

// Present reports whether any tier data was attached, readable or not.
func (c Config) Present() bool { return c.state != Absent }

// Rules returns the rules of a Valid configuration, nil otherwise.
// Callers must not modify the returned slice.
func (c Config) Rules() []Rule { return c.rules }

// Reason describes why an Invalid configuration could not be read.
func (c Config) Reason() string { return c.reason }
