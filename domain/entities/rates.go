package entities

import "github.com/shopspring/decimal"

// Setting keys for payout rates in the global key/value store.
const (
	SettingRateJodi  = "rate_jodi"
	SettingRateHaruf = "rate_haruf"
)

// Default multipliers used when the settings store has no rate configured.
var (
	DefaultRateJodi  = decimal.NewFromInt(90)
	DefaultRateHaruf = decimal.NewFromInt(9)
)

// PayoutRates is the snapshot of payout multipliers read from settings at
// bet-placement time. Both haruf variants share the haruf rate.
type PayoutRates struct {
	Jodi  decimal.Decimal
	Haruf decimal.Decimal
}

// DefaultPayoutRates returns the built-in fallback rates.
func DefaultPayoutRates() PayoutRates {
	return PayoutRates{Jodi: DefaultRateJodi, Haruf: DefaultRateHaruf}
}

// MultiplierFor resolves the payout multiplier for a bet type.
func (r PayoutRates) MultiplierFor(bt BetType) decimal.Decimal {
	if bt.IsHaruf() {
		return r.Haruf
	}
	return r.Jodi
}
