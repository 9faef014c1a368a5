// Package engine composes the generator, detector, and underwriting
// model behind a single facade used by the API layer.
package engine

import (
	"context"

	"github.com/bankpulse/bankpulse/internal/compliance"
	"github.com/bankpulse/bankpulse/internal/generator"
	"github.com/bankpulse/bankpulse/internal/underwriting"
	"github.com/bankpulse/bankpulse/internal/workerpool"
	"github.com/bankpulse/bankpulse/pkg/models"
)

// Engine is the synthetic banking data engine
type Engine struct {
	gen      *generator.Generator
	detector *compliance.Detector
	model    *underwriting.Model
	pool     *workerpool.Pool
}

// New creates a new engine
func New(gen *generator.Generator, detector *compliance.Detector, model *underwriting.Model, pool *workerpool.Pool) *Engine {
	return &Engine{
		gen:      gen,
		detector: detector,
		model:    model,
		pool:     pool,
	}
}

// Generate produces a fully linked dataset: customers, their accounts,
// transactions against those accounts, and the alerts the transaction
// batch triggers. Non-positive counts yield empty slices.
func (e *Engine) Generate(customerCount, transactionCount int) models.Dataset {
	customers := e.gen.GenerateCustomers(customerCount)
	accounts := e.gen.GenerateAccounts(customers)
	transactions := e.gen.GenerateTransactions(transactionCount, customers, accounts)
	alerts := e.detector.Detect(transactions, customers)

	return models.Dataset{
		Customers:    customers,
		Accounts:     accounts,
		Transactions: transactions,
		Alerts:       alerts,
	}
}

// ScoreApplication runs the underwriting model over a loan application
func (e *Engine) ScoreApplication(ctx context.Context, app models.LoanApplication) (*models.UnderwritingDecision, error) {
	return e.model.Predict(ctx, app)
}

// ScoreBatch scores applications concurrently on the worker pool.
// Results keep the input order. Scoring is deterministic per
// application, so concurrency does not change outcomes.
func (e *Engine) ScoreBatch(ctx context.Context, apps []models.LoanApplication) ([]*models.UnderwritingDecision, error) {
	decisions := make([]*models.UnderwritingDecision, len(apps))
	tasks := make([]func() error, len(apps))
	for i, app := range apps {
		i, app := i, app
		tasks[i] = func() error {
			decision, err := e.model.Predict(ctx, app)
			if err != nil {
				return err
			}
			decisions[i] = decision
			return nil
		}
	}

	if err := e.pool.Run(ctx, tasks...); err != nil {
		return nil, err
	}
	return decisions, nil
}
