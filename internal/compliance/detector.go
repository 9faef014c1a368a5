// Package compliance scans transaction batches for multi-transaction
// regulatory patterns and emits structured alerts. Detection is
// stateless across invocations: every call evaluates only the batch it
// is given.
package compliance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bankpulse/bankpulse/pkg/models"
)

// Rule thresholds. The CTR threshold is the statutory $10,000 cash
// reporting line; structuring looks for deposits kept under it.
var (
	ctrThreshold             = decimal.NewFromInt(10000)
	structuringWithdrawalMin = decimal.NewFromInt(50000)
)

const (
	structuringMinDeposits    = 5
	structuringReferencedMax  = 5
	structuringDueDays        = 14
	structuringRegulatoryDays = 30
	ctrDueDays                = 15
)

// Detector evaluates transaction batches for compliance patterns
type Detector struct {
	assignees []string
}

// NewDetector creates a new pattern detector. Alerts are assigned
// round-robin across the given reviewer names; an empty list assigns
// everything to the compliance queue.
func NewDetector(assignees []string) *Detector {
	if len(assignees) == 0 {
		assignees = []string{"Compliance Team"}
	}
	return &Detector{assignees: assignees}
}

// Detect scans a transaction batch grouped per customer and returns
// derived alerts. Each rule fires at most once per customer per call;
// the rules are independent, so one customer may trigger both. An
// empty batch yields no alerts.
func (d *Detector) Detect(txns []models.Transaction, customers []models.Customer) []models.ComplianceAlert {
	if len(txns) == 0 {
		return nil
	}

	customerByID := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		customerByID[c.ID] = c
	}

	grouped := make(map[string][]models.Transaction)
	var order []string
	for _, txn := range txns {
		if _, seen := grouped[txn.CustomerID]; !seen {
			order = append(order, txn.CustomerID)
		}
		grouped[txn.CustomerID] = append(grouped[txn.CustomerID], txn)
	}

	var alerts []models.ComplianceAlert
	idx := 0
	for _, customerID := range order {
		if _, known := customerByID[customerID]; !known {
			continue
		}
		batch := grouped[customerID]

		if alert, ok := d.detectStructuring(customerID, batch, idx); ok {
			alerts = append(alerts, alert)
			idx++
		}
		if alert, ok := d.detectCTR(customerID, batch, idx); ok {
			alerts = append(alerts, alert)
			idx++
		}
	}
	return alerts
}

// detectStructuring fires when a customer shows at least five deposits
// each under the CTR threshold plus at least one withdrawal over 50,000
// within the batch. The alert references the first five qualifying
// deposits and the first qualifying withdrawal.
func (d *Detector) detectStructuring(customerID string, txns []models.Transaction, idx int) (models.ComplianceAlert, bool) {
	var deposits []models.Transaction
	var withdrawal *models.Transaction

	for i, txn := range txns {
		switch {
		case txn.Type == models.TransactionTypeDeposit && txn.Amount.LessThan(ctrThreshold):
			deposits = append(deposits, txn)
		case txn.Type == models.TransactionTypeWithdrawal && txn.Amount.GreaterThan(structuringWithdrawalMin):
			if withdrawal == nil {
				withdrawal = &txns[i]
			}
		}
	}

	if len(deposits) < structuringMinDeposits || withdrawal == nil {
		return models.ComplianceAlert{}, false
	}

	ids := make([]string, 0, structuringReferencedMax+1)
	for _, txn := range deposits[:structuringReferencedMax] {
		ids = append(ids, txn.ID)
	}
	ids = append(ids, withdrawal.ID)

	now := time.Now()
	deadline := now.AddDate(0, 0, structuringRegulatoryDays)
	return models.ComplianceAlert{
		ID:                 "ALERT-" + shortID(),
		Type:               models.AlertTypeAML,
		Severity:           models.AlertSeverityHigh,
		Description:        "Potential structuring detected: multiple deposits under $10K followed by large withdrawal",
		AccountID:          txns[0].AccountID,
		CustomerID:         customerID,
		TransactionIDs:     ids,
		CreatedAt:          now,
		Status:             models.AlertStatusOpen,
		AssignedTo:         d.assignees[idx%len(d.assignees)],
		DueDate:            now.AddDate(0, 0, structuringDueDays),
		RegulatoryDeadline: &deadline,
	}, true
}

// detectCTR fires when any transaction for the customer strictly
// exceeds the CTR threshold and references every qualifying
// transaction in the batch.
func (d *Detector) detectCTR(customerID string, txns []models.Transaction, idx int) (models.ComplianceAlert, bool) {
	var ids []string
	accountID := ""
	for _, txn := range txns {
		if txn.Amount.GreaterThan(ctrThreshold) {
			ids = append(ids, txn.ID)
			if accountID == "" {
				accountID = txn.AccountID
			}
		}
	}

	if len(ids) == 0 {
		return models.ComplianceAlert{}, false
	}

	now := time.Now()
	deadline := now.AddDate(0, 0, ctrDueDays)
	return models.ComplianceAlert{
		ID:                 "ALERT-" + shortID(),
		Type:               models.AlertTypeCTR,
		Severity:           models.AlertSeverityMedium,
		Description:        fmt.Sprintf("Currency Transaction Report required for %d transaction(s) over $10,000", len(ids)),
		AccountID:          accountID,
		CustomerID:         customerID,
		TransactionIDs:     ids,
		CreatedAt:          now,
		Status:             models.AlertStatusOpen,
		AssignedTo:         d.assignees[idx%len(d.assignees)],
		DueDate:            deadline,
		RegulatoryDeadline: &deadline,
	}, true
}

func shortID() string {
	id := uuid.New().String()
	return id[:8]
}
