// Package underwriting scores loan applications with a fixed-weight
// linear model plus a simplified per-feature attribution. The model is
// not trainable: weights, interaction adjustments, and decision
// thresholds are contract constants.
package underwriting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bankpulse/bankpulse/pkg/models"
)

// Decision thresholds on the logistic probability
const (
	approveThreshold = 0.65
	reviewThreshold  = 0.45
	sigmoidSteepness = 5.0
)

// Feature keys in scoring order
const (
	featCreditScore    = "creditScore"
	featDSCR           = "debtServiceCoverageRatio"
	featYears          = "yearsInBusiness"
	featMonthlyRevenue = "monthlyRevenue"
	featExistingDebt   = "existingDebt"
	featCollateral     = "collateralValue"
	featIndustryRisk   = "industryRisk"
	featLoanRatio      = "loanAmountRatio"
	featEmployees      = "employeeCount"
	featCashFlow       = "cashFlowRatio"
)

var featureOrder = []string{
	featCreditScore, featDSCR, featYears, featMonthlyRevenue,
	featExistingDebt, featCollateral, featIndustryRisk,
	featLoanRatio, featEmployees, featCashFlow,
}

var featureWeights = map[string]float64{
	featCreditScore:    0.25,
	featDSCR:           0.20,
	featYears:          0.15,
	featMonthlyRevenue: 0.10,
	featExistingDebt:   -0.10,
	featCollateral:     0.08,
	featIndustryRisk:   -0.05,
	featLoanRatio:      -0.05,
	featEmployees:      0.05,
	featCashFlow:       0.07,
}

var featureDisplayNames = map[string]string{
	featCreditScore:    "Credit Score",
	featDSCR:           "Debt Service Coverage",
	featYears:          "Years in Business",
	featMonthlyRevenue: "Monthly Revenue",
	featExistingDebt:   "Existing Debt Burden",
	featCollateral:     "Collateral Coverage",
	featIndustryRisk:   "Industry Risk Factor",
	featLoanRatio:      "Loan to Revenue Ratio",
	featEmployees:      "Employee Count",
	featCashFlow:       "Cash Flow Strength",
}

var industryRiskScores = map[string]float64{
	"tech":          0.8,
	"healthcare":    0.75,
	"manufacturing": 0.6,
	"retail":        0.5,
	"restaurant":    0.3,
	"construction":  0.4,
}

const defaultIndustryRisk = 0.5

// Config holds underwriting engine configuration
type Config struct {
	// Latency simulates model inference time per call. Zero disables
	// the delay (tests).
	Latency time.Duration `yaml:"latency"`
}

// Model is the underwriting decision engine. Concurrent calls are
// independent; the model holds no mutable state.
type Model struct {
	config *Config
}

// NewModel creates a new underwriting model
func NewModel(cfg *Config) *Model {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Model{config: cfg}
}

// Predict scores a loan application and returns an immutable decision.
// Scoring itself is deterministic for a given application; the only
// per-call variation is the simulated inference latency, which is
// context-aware and returns early on cancellation.
func (m *Model) Predict(ctx context.Context, app models.LoanApplication) (*models.UnderwritingDecision, error) {
	if m.config.Latency > 0 {
		select {
		case <-time.After(m.config.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	features := extractFeatures(app)
	score := calculateScore(features)
	probability := sigmoid(score * sigmoidSteepness)
	impacts := featureImpacts(features)

	decision := &models.UnderwritingDecision{
		Score:          int(math.Round(probability * 1000)),
		Probability:    probability,
		Conditions:     conditions(app, probability),
		FeatureImpacts: impacts,
		Timestamp:      time.Now(),
	}

	switch {
	case probability >= approveThreshold:
		decision.Decision = models.DecisionApproved
		decision.ApprovedAmount = approvedAmount(app, probability)
		decision.InterestRate = interestRate(app, probability)
		decision.Term = app.LoanTerm
	case probability >= reviewThreshold:
		decision.Decision = models.DecisionManualReview
	default:
		decision.Decision = models.DecisionDeclined
		decision.DeclineReasons = declineReasons(impacts)
	}

	// Sort attribution by descending absolute impact for display
	sort.Slice(decision.FeatureImpacts, func(i, j int) bool {
		return math.Abs(decision.FeatureImpacts[i].Impact) > math.Abs(decision.FeatureImpacts[j].Impact)
	})

	return decision, nil
}

// safeRatio guards against zero denominators: a malformed application
// must not propagate NaN or Inf, so the ratio defaults to its clamp
// ceiling instead.
func safeRatio(num, den, ceil float64) float64 {
	if den <= 0 {
		return ceil
	}
	return math.Min(num/den, ceil)
}

func extractFeatures(app models.LoanApplication) map[string]float64 {
	collateral := 0.0
	if app.CollateralValue > 0 {
		collateral = safeRatio(app.CollateralValue, app.RequestedAmount, 2)
	}

	return map[string]float64{
		featCreditScore:    (app.CreditScore - 300) / 550,
		featDSCR:           math.Min(app.DebtServiceCoverageRatio/3, 1),
		featYears:          math.Min(app.YearsInBusiness/10, 1),
		featMonthlyRevenue: math.Min(app.MonthlyRevenue/1000000, 1),
		featExistingDebt:   safeRatio(app.ExistingDebt, app.AnnualRevenue, 1),
		featCollateral:     collateral,
		featIndustryRisk:   industryRisk(app.Industry),
		featLoanRatio:      safeRatio(app.RequestedAmount, app.AnnualRevenue, 1),
		featEmployees:      math.Min(float64(app.EmployeeCount)/100, 1),
		featCashFlow:       safeRatio(app.CashFlow, app.MonthlyRevenue, 1),
	}
}

func industryRisk(industry string) float64 {
	if score, ok := industryRiskScores[strings.ToLower(industry)]; ok {
		return score
	}
	return defaultIndustryRisk
}

func calculateScore(features map[string]float64) float64 {
	score := 0.0
	for _, key := range featureOrder {
		score += featureWeights[key] * features[key]
	}

	// Non-linear interaction adjustments
	if features[featCreditScore] > 0.7 && features[featDSCR] > 0.5 {
		score += 0.10
	}
	if features[featExistingDebt] > 0.7 && features[featCashFlow] < 0.3 {
		score -= 0.15
	}

	return score
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// featureImpacts computes the simplified attribution: each feature's
// impact is its weight times the deviation of its normalized value
// from the 0.5 baseline, scaled to percentage points.
func featureImpacts(features map[string]float64) []models.FeatureImpact {
	impacts := make([]models.FeatureImpact, 0, len(featureOrder))
	for _, key := range featureOrder {
		value := features[key]
		impacts = append(impacts, models.FeatureImpact{
			Feature:      featureDisplayNames[key],
			Value:        value,
			Impact:       featureWeights[key] * (value - 0.5) * 100,
			DisplayValue: displayValue(key, value),
		})
	}
	return impacts
}

func displayValue(key string, value float64) string {
	switch key {
	case featCreditScore:
		return fmt.Sprintf("%.0f", value*550+300)
	case featDSCR:
		return fmt.Sprintf("%.2fx", value*3)
	case featYears:
		return fmt.Sprintf("%.0f years", value*10)
	case featMonthlyRevenue:
		return fmt.Sprintf("$%.0f", value*1000000)
	case featExistingDebt, featLoanRatio, featCashFlow:
		return fmt.Sprintf("%.0f%%", value*100)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}

func approvedAmount(app models.LoanApplication, probability float64) float64 {
	riskAdjustment := 0.5 + probability*0.5
	maxAmount := math.Min(app.RequestedAmount,
		math.Min(app.AnnualRevenue*0.25, app.MonthlyRevenue*app.DebtServiceCoverageRatio*12))
	return math.Floor(maxAmount * riskAdjustment)
}

func interestRate(app models.LoanApplication, probability float64) float64 {
	baseRate := 5.5
	riskPremium := (1 - probability) * 8
	termAdjustment := 0.0
	if app.LoanTerm > 60 {
		termAdjustment = 0.5
	}
	return math.Round((baseRate+riskPremium+termAdjustment)*100) / 100
}

func conditions(app models.LoanApplication, probability float64) []string {
	var out []string
	if probability < 0.8 {
		out = append(out, "Personal guarantee required")
	}
	if app.CollateralValue > 0 && app.CollateralValue < app.RequestedAmount {
		out = append(out, "Additional collateral may be required")
	}
	if app.YearsInBusiness < 2 {
		out = append(out, "Quarterly financial reporting required")
	}
	if app.DebtServiceCoverageRatio < 1.5 {
		out = append(out, "Cash flow covenant: maintain DSCR > 1.25")
	}
	return out
}

// declineReasons maps the most negative attributions to human-readable
// reasons, at most three
func declineReasons(impacts []models.FeatureImpact) []string {
	negative := make([]models.FeatureImpact, 0, len(impacts))
	for _, fi := range impacts {
		if fi.Impact < -5 {
			negative = append(negative, fi)
		}
	}
	sort.Slice(negative, func(i, j int) bool {
		return negative[i].Impact < negative[j].Impact
	})
	if len(negative) > 3 {
		negative = negative[:3]
	}

	reasons := make([]string, 0, len(negative))
	for _, fi := range negative {
		switch {
		case strings.Contains(fi.Feature, "Credit"):
			reasons = append(reasons, "Credit score below minimum requirements")
		case strings.Contains(fi.Feature, "Debt Service"):
			reasons = append(reasons, "Insufficient debt service coverage ratio")
		case strings.Contains(fi.Feature, "Revenue"):
			reasons = append(reasons, "Revenue insufficient for requested loan amount")
		case strings.Contains(fi.Feature, "Years"):
			reasons = append(reasons, "Limited business operating history")
		default:
			reasons = append(reasons, "Unfavorable "+strings.ToLower(fi.Feature))
		}
	}
	return reasons
}
