package services

import (
	"context"

	"matka/domain/entities"
	"matka/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// BetLine is one expanded number/amount pair before it becomes a persisted bet.
type BetLine struct {
	Number string
	Amount decimal.Decimal
}

// GenerateCrossingBets expands a digit set into the full Cartesian product of
// 2-digit jodi combinations, doubles included: "123" yields 9 bets, among
// them "11", "22" and "33". Duplicate and non-digit input characters are
// dropped, so "1123" also yields 9 bets. Each combination carries the given
// per-combination amount.
func GenerateCrossingBets(digits string, amount decimal.Decimal) []BetLine {
	var unique []byte
	seen := make(map[byte]bool)
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' || seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}

	bets := make([]BetLine, 0, len(unique)*len(unique))
	for _, first := range unique {
		for _, second := range unique {
			bets = append(bets, BetLine{
				Number: string([]byte{first, second}),
				Amount: amount,
			})
		}
	}
	return bets
}

// ApplyPalti expands a jodi number into the original plus its digit reversal
// at the same amount. The reversal is only emitted when it differs from the
// original, so "55" yields a single bet.
func ApplyPalti(number string, amount decimal.Decimal) []BetLine {
	bets := []BetLine{{Number: number, Amount: amount}}
	if len(number) == 2 {
		reversed := string([]byte{number[1], number[0]})
		if reversed != number {
			bets = append(bets, BetLine{Number: reversed, Amount: amount})
		}
	}
	return bets
}

// TotalAmount sums the amounts of a batch of expanded bets.
func TotalAmount(bets []*entities.Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.BetAmount)
	}
	return total
}

// LoadPayoutRates reads the current payout multipliers from the settings
// store. The snapshot happens once per placement batch; individual bets carry
// the multiplier from then on and never re-read it. Missing or malformed
// settings fall back to the built-in default rates.
func LoadPayoutRates(ctx context.Context, settingsRepo interfaces.SettingsRepository) (entities.PayoutRates, error) {
	rates := entities.DefaultPayoutRates()

	settings, err := settingsRepo.GetAll(ctx)
	if err != nil {
		return rates, err
	}

	if raw, ok := settings[entities.SettingRateJodi]; ok {
		if v, err := decimal.NewFromString(raw); err == nil && v.IsPositive() {
			rates.Jodi = v
		} else {
			log.WithField("value", raw).Warn("Ignoring malformed jodi rate setting")
		}
	}
	if raw, ok := settings[entities.SettingRateHaruf]; ok {
		if v, err := decimal.NewFromString(raw); err == nil && v.IsPositive() {
			rates.Haruf = v
		} else {
			log.WithField("value", raw).Warn("Ignoring malformed haruf rate setting")
		}
	}

	return rates, nil
}
