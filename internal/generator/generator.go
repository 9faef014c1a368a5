// Package generator produces statistically plausible customers,
// accounts, and transactions for the synthetic activity feed.
// Generation is pure computation: the only effect is consuming draws
// from the injected random source.
package generator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankpulse/bankpulse/internal/randutil"
	"github.com/bankpulse/bankpulse/internal/risk"
	"github.com/bankpulse/bankpulse/pkg/models"
)

// Generator produces synthetic banking entities
type Generator struct {
	rng *randutil.Source
}

// New creates a new Generator backed by the given random source
func New(rng *randutil.Source) *Generator {
	return &Generator{rng: rng}
}

var (
	companyPrefixes = []string{
		"Meridian", "Blue Harbor", "Summit", "Ironwood", "Cascade",
		"Vanguard", "Pinnacle", "Atlas", "Sterling", "Lakeshore",
		"Redwood", "Keystone", "Harborview", "Northgate", "Crestline",
	}
	companySuffixes = []string{
		"Holdings", "Capital", "Industries", "Group", "Partners",
		"Logistics", "Ventures", "Enterprises", "Solutions", "Trading",
	}
	firstNames = []string{
		"James", "Maria", "Wei", "Aisha", "Carlos", "Elena", "Raj",
		"Sofia", "Daniel", "Yuki", "Omar", "Ingrid", "Lucas", "Priya",
		"Nathan", "Camille",
	}
	lastNames = []string{
		"Whitfield", "Okafor", "Lindqvist", "Moreau", "Tanaka",
		"Castellanos", "Abernathy", "Kowalski", "Nakamura", "Osei",
		"Vandermeer", "Ruiz", "Haverford", "Bergström", "Donnelly",
	}
	jurisdictions = []string{
		"United States", "United Kingdom", "Canada", "Germany",
		"Singapore", "Switzerland", "Japan", "Australia", "Netherlands",
		"Cayman Islands", "Luxembourg", "Hong Kong",
	}
	industries = []string{
		"Technology", "Finance", "Healthcare", "Real Estate",
		"Manufacturing", "Retail", "Energy", "Telecommunications",
		"Legal Services", "Consulting",
	}
	purposes = []string{
		"Operating expenses", "Investment", "Loan repayment",
		"Dividend distribution", "Property purchase",
		"Equipment financing", "Working capital", "Tax payment",
	}
	currencies   = []string{"USD", "EUR", "GBP", "CAD", "JPY"}
	subPurposes  = []string{"Operating", "Reserve", "Escrow", "Payroll", "Settlement"}
	restrictions = []string{"NO_INTL_WIRE", "DUAL_APPROVAL", "DAILY_LIMIT"}
)

var customerTypes = []models.CustomerType{
	models.CustomerTypeIndividual,
	models.CustomerTypeCorporate,
	models.CustomerTypeTrust,
	models.CustomerTypePartnership,
}

var riskProfileTable = []randutil.Weighted[models.RiskProfile]{
	{Weight: 60, Value: models.RiskProfileLow},
	{Weight: 30, Value: models.RiskProfileMedium},
	{Weight: 10, Value: models.RiskProfileHigh},
}

var kycStatusTable = []randutil.Weighted[models.KYCStatus]{
	{Weight: 85, Value: models.KYCStatusVerified},
	{Weight: 10, Value: models.KYCStatusPending},
	{Weight: 5, Value: models.KYCStatusIncomplete},
}

var sanctionsTable = []randutil.Weighted[models.SanctionsStatus]{
	{Weight: 95, Value: models.SanctionsClear},
	{Weight: 4, Value: models.SanctionsWatch},
	{Weight: 1, Value: models.SanctionsBlocked},
}

var txnStatusTable = []randutil.Weighted[models.TransactionStatus]{
	{Weight: 80, Value: models.TransactionStatusCompleted},
	{Weight: 10, Value: models.TransactionStatusPending},
	{Weight: 5, Value: models.TransactionStatusUnderReview},
	{Weight: 3, Value: models.TransactionStatusSuspended},
	{Weight: 2, Value: models.TransactionStatusFailed},
}

var txnTypes = []models.TransactionType{
	models.TransactionTypeDeposit,
	models.TransactionTypeWithdrawal,
	models.TransactionTypeTransfer,
	models.TransactionTypeWire,
	models.TransactionTypeACH,
	models.TransactionTypeCheck,
}

// Hour-of-day weights concentrated on business hours. Midnight hours
// carry weight 1 against a late-morning peak of 25.
var hourTable = []randutil.Weighted[int]{
	{Weight: 1, Value: 0}, {Weight: 1, Value: 1}, {Weight: 1, Value: 2},
	{Weight: 1, Value: 3}, {Weight: 1, Value: 4}, {Weight: 1, Value: 5},
	{Weight: 1, Value: 6}, {Weight: 2, Value: 7}, {Weight: 2, Value: 8},
	{Weight: 15, Value: 9}, {Weight: 20, Value: 10}, {Weight: 25, Value: 11},
	{Weight: 20, Value: 12}, {Weight: 25, Value: 13}, {Weight: 20, Value: 14},
	{Weight: 15, Value: 15}, {Weight: 10, Value: 16}, {Weight: 5, Value: 17},
	{Weight: 3, Value: 18}, {Weight: 1, Value: 19}, {Weight: 1, Value: 20},
	{Weight: 1, Value: 21}, {Weight: 1, Value: 22}, {Weight: 1, Value: 23},
}

// GenerateCustomers returns n freshly generated customers. Non-positive
// counts yield an empty slice.
func (g *Generator) GenerateCustomers(n int) []models.Customer {
	if n <= 0 {
		return nil
	}

	now := time.Now()
	customers := make([]models.Customer, 0, n)
	for i := 0; i < n; i++ {
		customers = append(customers, models.Customer{
			ID:             "CUST-" + g.rng.AlphaNum(8),
			Name:           g.customerName(),
			Type:           randutil.Pick(g.rng, customerTypes),
			RiskProfile:    randutil.PickWeighted(g.rng, riskProfileTable),
			KYCStatus:      randutil.PickWeighted(g.rng, kycStatusTable),
			SanctionsCheck: randutil.PickWeighted(g.rng, sanctionsTable),
			OnboardingDate: now.AddDate(0, 0, -g.rng.IntBetween(30, 3*365)),
			LastActivity:   now.AddDate(0, 0, -g.rng.IntBetween(0, 30)),
			TotalAssets:    decimal.NewFromInt(g.rng.Int64Between(50000, 50000000)),
			Jurisdiction:   randutil.Pick(g.rng, jurisdictions),
			Industry:       randutil.Pick(g.rng, industries),
		})
	}
	return customers
}

func (g *Generator) customerName() string {
	company := func() string {
		return randutil.Pick(g.rng, companyPrefixes) + " " + randutil.Pick(g.rng, companySuffixes)
	}
	person := func() string {
		return randutil.Pick(g.rng, firstNames) + " " + randutil.Pick(g.rng, lastNames)
	}

	switch g.rng.Intn(4) {
	case 0:
		return company()
	case 1:
		return person()
	case 2:
		return company() + " Trust"
	default:
		return randutil.Pick(g.rng, lastNames) + " Family Partnership"
	}
}

// GenerateAccounts returns one account per customer, each with one to
// three sub-accounts owned exclusively by that account.
func (g *Generator) GenerateAccounts(customers []models.Customer) []models.Account {
	now := time.Now()
	accounts := make([]models.Account, 0, len(customers))

	for _, c := range customers {
		acct := models.Account{
			ID:              "ACC-" + g.rng.AlphaNum(8),
			CustomerID:      c.ID,
			Type:            models.AccountTypeFBO,
			Balance:         decimal.NewFromInt(g.rng.Int64Between(10000, 1000000)),
			Currency:        "USD",
			Status:          models.AccountStatusActive,
			OpenDate:        now.AddDate(0, 0, -g.rng.IntBetween(30, 2*365)),
			ComplianceLevel: complianceLevelFor(c),
		}

		nSubs := g.rng.IntBetween(1, 3)
		for i := 0; i < nSubs; i++ {
			sub := models.SubAccount{
				ID:                  "SUB-" + g.rng.AlphaNum(6),
				ParentAccountID:     acct.ID,
				Purpose:             randutil.Pick(g.rng, subPurposes),
				Balance:             decimal.NewFromInt(g.rng.Int64Between(1000, 100000)),
				LastTransactionDate: now.AddDate(0, 0, -g.rng.IntBetween(0, 30)),
			}
			if c.RiskProfile == models.RiskProfileHigh && g.rng.Intn(2) == 0 {
				sub.Restrictions = []string{randutil.Pick(g.rng, restrictions)}
			}
			acct.SubAccounts = append(acct.SubAccounts, sub)
		}

		accounts = append(accounts, acct)
	}
	return accounts
}

func complianceLevelFor(c models.Customer) models.ComplianceLevel {
	if c.SanctionsCheck == models.SanctionsBlocked {
		return models.ComplianceLevelRestricted
	}
	if c.RiskProfile == models.RiskProfileHigh {
		return models.ComplianceLevelEnhanced
	}
	return models.ComplianceLevelStandard
}

// GenerateTransactions returns n transactions drawn against the given
// customers and accounts. Each transaction references a customer, that
// customer's account, and one of the account's own sub-accounts, and is
// risk-scored at creation. Non-positive counts or empty pools yield an
// empty slice.
func (g *Generator) GenerateTransactions(n int, customers []models.Customer, accounts []models.Account) []models.Transaction {
	if n <= 0 || len(customers) == 0 || len(accounts) == 0 {
		return nil
	}

	byCustomer := make(map[string]*models.Account, len(accounts))
	for i := range accounts {
		byCustomer[accounts[i].CustomerID] = &accounts[i]
	}
	customerByID := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		customerByID[c.ID] = c
	}

	txns := make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		customer := randutil.Pick(g.rng, customers)
		account, ok := byCustomer[customer.ID]
		if !ok {
			// Customer without an account: fall back to a random
			// account and realign to its owner so the transaction
			// references stay mutually consistent.
			idx := g.rng.Intn(len(accounts))
			account = &accounts[idx]
			owner, found := customerByID[account.CustomerID]
			if !found {
				continue
			}
			customer = owner
		}
		if len(account.SubAccounts) == 0 {
			continue
		}
		sub := randutil.Pick(g.rng, account.SubAccounts)

		amount := g.amountFor(customer.RiskProfile)

		txns = append(txns, models.Transaction{
			ID:              "TXN-" + g.rng.AlphaNum(12),
			AccountID:       account.ID,
			SubAccountID:    sub.ID,
			CustomerID:      customer.ID,
			Type:            randutil.Pick(g.rng, txnTypes),
			Amount:          amount,
			Currency:        randutil.Pick(g.rng, currencies),
			Timestamp:       g.timestamp(),
			Status:          randutil.PickWeighted(g.rng, txnStatusTable),
			RiskScore:       risk.Score(customer, amount, g.rng),
			Counterparty:    randutil.Pick(g.rng, companyPrefixes) + " " + randutil.Pick(g.rng, companySuffixes),
			Purpose:         randutil.Pick(g.rng, purposes),
			Fees:            decimal.NewFromFloat(g.rng.FloatBetween(5, 250)).Round(2),
			ExchangeRate:    g.rng.FloatBetween(0.5, 2.0),
			ComplianceFlags: risk.ComplianceFlags(customer, amount),
			Geolocation: models.Geolocation{
				Lat:     g.rng.FloatBetween(-90, 90),
				Lng:     g.rng.FloatBetween(-180, 180),
				Country: randutil.Pick(g.rng, jurisdictions),
			},
		})
	}
	return txns
}

// amountFor draws a transaction amount conditioned on the customer's
// risk profile. Downstream scoring and alerting rely on this coupling.
func (g *Generator) amountFor(profile models.RiskProfile) decimal.Decimal {
	var lo, hi int64
	switch profile {
	case models.RiskProfileHigh:
		lo, hi = 100000, 5000000
	case models.RiskProfileMedium:
		lo, hi = 10000, 500000
	default:
		lo, hi = 100, 50000
	}
	return decimal.NewFromInt(g.rng.Int64Between(lo, hi))
}

// timestamp picks a uniform day within the last 90 days and an hour
// from the business-hour weighted table
func (g *Generator) timestamp() time.Time {
	now := time.Now()
	day := now.AddDate(0, 0, -g.rng.IntBetween(0, 90))
	hour := randutil.PickWeighted(g.rng, hourTable)

	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, g.rng.IntBetween(0, 59), g.rng.IntBetween(0, 59), 0, day.Location())
}
