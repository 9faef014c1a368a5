package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType represents the legal form of a customer
type CustomerType string

const (
	CustomerTypeIndividual  CustomerType = "Individual"
	CustomerTypeCorporate   CustomerType = "Corporate"
	CustomerTypeTrust       CustomerType = "Trust"
	CustomerTypePartnership CustomerType = "Partnership"
)

// RiskProfile represents a customer's assessed risk tier
type RiskProfile string

const (
	RiskProfileLow    RiskProfile = "Low"
	RiskProfileMedium RiskProfile = "Medium"
	RiskProfileHigh   RiskProfile = "High"
)

// KYCStatus represents the state of customer identity verification
type KYCStatus string

const (
	KYCStatusVerified   KYCStatus = "Verified"
	KYCStatusPending    KYCStatus = "Pending"
	KYCStatusIncomplete KYCStatus = "Incomplete"
)

// SanctionsStatus represents the outcome of sanctions screening
type SanctionsStatus string

const (
	SanctionsClear   SanctionsStatus = "Clear"
	SanctionsWatch   SanctionsStatus = "Watch"
	SanctionsBlocked SanctionsStatus = "Blocked"
)

// Customer represents a bank customer. Risk profile, KYC status, and
// sanctions status are drawn independently at generation time and are
// immutable for the life of the session.
type Customer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           CustomerType    `json:"type"`
	RiskProfile    RiskProfile     `json:"risk_profile"`
	KYCStatus      KYCStatus       `json:"kyc_status"`
	SanctionsCheck SanctionsStatus `json:"sanctions_check"`
	OnboardingDate time.Time       `json:"onboarding_date"`
	LastActivity   time.Time       `json:"last_activity"`
	TotalAssets    decimal.Decimal `json:"total_assets"`
	Jurisdiction   string          `json:"jurisdiction"`
	Industry       string          `json:"industry,omitempty"`
}

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeFBO       AccountType = "FBO"
	AccountTypeOperating AccountType = "Operating"
	AccountTypeEscrow    AccountType = "Escrow"
	AccountTypeTrust     AccountType = "Trust"
)

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "Active"
	AccountStatusDormant   AccountStatus = "Dormant"
	AccountStatusSuspended AccountStatus = "Suspended"
	AccountStatusClosed    AccountStatus = "Closed"
)

// ComplianceLevel represents the monitoring level applied to an account
type ComplianceLevel string

const (
	ComplianceLevelStandard   ComplianceLevel = "Standard"
	ComplianceLevelEnhanced   ComplianceLevel = "Enhanced"
	ComplianceLevelRestricted ComplianceLevel = "Restricted"
)

// Account represents an account owned by exactly one customer. An
// account exclusively owns its sub-accounts; they never migrate.
type Account struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Type            AccountType     `json:"type"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	Status          AccountStatus   `json:"status"`
	OpenDate        time.Time       `json:"open_date"`
	SubAccounts     []SubAccount    `json:"sub_accounts"`
	ComplianceLevel ComplianceLevel `json:"compliance_level"`
}

// SubAccount represents a ledger partition within an account
type SubAccount struct {
	ID                  string          `json:"id"`
	ParentAccountID     string          `json:"parent_account_id"`
	Purpose             string          `json:"purpose"`
	Balance             decimal.Decimal `json:"balance"`
	Restrictions        []string        `json:"restrictions"`
	LastTransactionDate time.Time       `json:"last_transaction_date"`
}

// TransactionType represents the type of financial transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeTransfer   TransactionType = "Transfer"
	TransactionTypeWire       TransactionType = "Wire"
	TransactionTypeACH        TransactionType = "ACH"
	TransactionTypeCheck      TransactionType = "Check"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus string

const (
	TransactionStatusCompleted   TransactionStatus = "Completed"
	TransactionStatusPending     TransactionStatus = "Pending"
	TransactionStatusUnderReview TransactionStatus = "Under Review"
	TransactionStatusSuspended   TransactionStatus = "Suspended"
	TransactionStatusFailed      TransactionStatus = "Failed"
)

// Compliance flags assigned at transaction creation
const (
	FlagCTRThreshold     = "CTR_THRESHOLD"
	FlagHighRiskCustomer = "HIGH_RISK_CUSTOMER"
	FlagSanctionsWatch   = "SANCTIONS_WATCH"
	FlagLargeTransaction = "LARGE_TRANSACTION"
)

// Geolocation is the coarse origin of a transaction
type Geolocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Country string  `json:"country"`
}

// Transaction represents a financial transaction. A transaction always
// references a sub-account owned by its account and the account's
// customer. Transactions are never mutated after creation.
type Transaction struct {
	ID              string            `json:"id"`
	AccountID       string            `json:"account_id"`
	SubAccountID    string            `json:"sub_account_id"`
	CustomerID      string            `json:"customer_id"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Timestamp       time.Time         `json:"timestamp"`
	Status          TransactionStatus `json:"status"`
	RiskScore       int               `json:"risk_score"`
	Counterparty    string            `json:"counterparty"`
	Purpose         string            `json:"purpose"`
	Fees            decimal.Decimal   `json:"fees"`
	ExchangeRate    float64           `json:"exchange_rate,omitempty"`
	ComplianceFlags []string          `json:"compliance_flags"`
	Geolocation     Geolocation       `json:"geolocation"`
}

// AlertType represents the regulatory category of a compliance alert
type AlertType string

const (
	AlertTypeBSA  AlertType = "BSA"
	AlertTypeAML  AlertType = "AML"
	AlertTypeOFAC AlertType = "OFAC"
	AlertTypeKYC  AlertType = "KYC"
	AlertTypeSAR  AlertType = "SAR"
	AlertTypeCTR  AlertType = "CTR"
	AlertTypeFBAR AlertType = "FBAR"
)

// AlertSeverity represents the severity of an alert
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "Low"
	AlertSeverityMedium   AlertSeverity = "Medium"
	AlertSeverityHigh     AlertSeverity = "High"
	AlertSeverityCritical AlertSeverity = "Critical"
)

// AlertStatus represents the workflow status of an alert
type AlertStatus string

const (
	AlertStatusOpen        AlertStatus = "Open"
	AlertStatusUnderReview AlertStatus = "Under Review"
	AlertStatusResolved    AlertStatus = "Resolved"
	AlertStatusEscalated   AlertStatus = "Escalated"
)

// ComplianceAlert represents a derived, append-only compliance alert
type ComplianceAlert struct {
	ID                 string        `json:"id"`
	Type               AlertType     `json:"type"`
	Severity           AlertSeverity `json:"severity"`
	Description        string        `json:"description"`
	AccountID          string        `json:"account_id"`
	CustomerID         string        `json:"customer_id"`
	TransactionIDs     []string      `json:"transaction_ids"`
	CreatedAt          time.Time     `json:"created_at"`
	Status             AlertStatus   `json:"status"`
	AssignedTo         string        `json:"assigned_to"`
	DueDate            time.Time     `json:"due_date"`
	RegulatoryDeadline *time.Time    `json:"regulatory_deadline,omitempty"`
}

// LoanApplication holds the raw business and financial fields of a
// small-business loan request
type LoanApplication struct {
	BusinessName             string  `json:"business_name"`
	RequestedAmount          float64 `json:"requested_amount"`
	LoanPurpose              string  `json:"loan_purpose"`
	LoanTerm                 int     `json:"loan_term"` // months
	Industry                 string  `json:"industry"`
	AnnualRevenue            float64 `json:"annual_revenue"`
	MonthlyRevenue           float64 `json:"monthly_revenue"`
	YearsInBusiness          float64 `json:"years_in_business"`
	EmployeeCount            int     `json:"employee_count"`
	CreditScore              float64 `json:"credit_score"`
	DebtServiceCoverageRatio float64 `json:"debt_service_coverage_ratio"`
	CollateralValue          float64 `json:"collateral_value,omitempty"`
	ExistingDebt             float64 `json:"existing_debt"`
	CashFlow                 float64 `json:"cash_flow"`
}

// DecisionOutcome represents the underwriting outcome
type DecisionOutcome string

const (
	DecisionApproved     DecisionOutcome = "Approved"
	DecisionDeclined     DecisionOutcome = "Declined"
	DecisionManualReview DecisionOutcome = "Manual Review"
)

// FeatureImpact is a simplified per-feature attribution of the
// underwriting score
type FeatureImpact struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Impact       float64 `json:"impact"`
	DisplayValue string  `json:"display_value"`
}

// UnderwritingDecision is the immutable result of scoring a loan
// application
type UnderwritingDecision struct {
	Decision       DecisionOutcome `json:"decision"`
	Score          int             `json:"score"` // 0-1000
	Probability    float64         `json:"probability"`
	ApprovedAmount float64         `json:"approved_amount,omitempty"`
	InterestRate   float64         `json:"interest_rate,omitempty"`
	Term           int             `json:"term,omitempty"`
	Conditions     []string        `json:"conditions,omitempty"`
	DeclineReasons []string        `json:"decline_reasons,omitempty"`
	FeatureImpacts []FeatureImpact `json:"feature_impacts"`
	Timestamp      time.Time       `json:"timestamp"`
}

// StreamMetrics holds running aggregates over the published feed
type StreamMetrics struct {
	TotalVolume      decimal.Decimal `json:"total_volume"`
	TransactionCount int             `json:"transaction_count"`
	AlertCount       int             `json:"alert_count"`
	AvgRiskScore     float64         `json:"avg_risk_score"`
}

// Dataset is the result of a one-shot bulk population
type Dataset struct {
	Customers    []Customer        `json:"customers"`
	Accounts     []Account         `json:"accounts"`
	Transactions []Transaction     `json:"transactions"`
	Alerts       []ComplianceAlert `json:"alerts"`
}
