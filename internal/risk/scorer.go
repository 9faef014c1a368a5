// Package risk scores individual transactions against customer and
// amount factors. The scoring algorithm is fixed: downstream alerting
// and display filters depend on its exact ordering and thresholds.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/bankpulse/bankpulse/internal/randutil"
	"github.com/bankpulse/bankpulse/pkg/models"
)

// Score band boundaries used by alerting filters and display
// color-coding. These are contract constants, not tunables.
const (
	ThresholdElevated = 40
	ThresholdHigh     = 70
)

var (
	tierLarge  = decimal.NewFromInt(1000000)
	tierMedium = decimal.NewFromInt(100000)
	tierSmall  = decimal.NewFromInt(10000)
)

// Score computes the risk score for a transaction of the given amount
// originated by the given customer. The result is always in [0, 100].
// The random jitter in [0, 10] comes from rng so seeded sources yield
// reproducible scores.
func Score(c models.Customer, amount decimal.Decimal, rng *randutil.Source) int {
	score := 0

	switch c.RiskProfile {
	case models.RiskProfileHigh:
		score += 40
	case models.RiskProfileMedium:
		score += 20
	case models.RiskProfileLow:
		score += 5
	}

	switch {
	case amount.GreaterThan(tierLarge):
		score += 30
	case amount.GreaterThan(tierMedium):
		score += 20
	case amount.GreaterThan(tierSmall):
		score += 10
	}

	if c.SanctionsCheck != models.SanctionsClear {
		score += 25
	}
	if c.KYCStatus != models.KYCStatusVerified {
		score += 15
	}

	score += rng.IntBetween(0, 10)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ComplianceFlags returns the creation-time compliance flags for a
// transaction. Any subset of the four flags may apply.
func ComplianceFlags(c models.Customer, amount decimal.Decimal) []string {
	var flags []string

	if amount.GreaterThan(tierSmall) {
		flags = append(flags, models.FlagCTRThreshold)
	}
	if c.RiskProfile == models.RiskProfileHigh {
		flags = append(flags, models.FlagHighRiskCustomer)
	}
	if c.SanctionsCheck != models.SanctionsClear {
		flags = append(flags, models.FlagSanctionsWatch)
	}
	if amount.GreaterThan(tierMedium) {
		flags = append(flags, models.FlagLargeTransaction)
	}

	return flags
}
