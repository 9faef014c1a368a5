// Package storage archives compliance alerts in Postgres. The archive
// is an optional sink: the stream runs fine without it, and write
// failures surface as errors for the caller to log.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankpulse/bankpulse/internal/stream"
	"github.com/bankpulse/bankpulse/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS compliance_alerts (
	id                  TEXT PRIMARY KEY,
	alert_type          TEXT NOT NULL,
	severity            TEXT NOT NULL,
	description         TEXT NOT NULL,
	account_id          TEXT NOT NULL,
	customer_id         TEXT NOT NULL,
	transaction_ids     TEXT[] NOT NULL,
	status              TEXT NOT NULL,
	assigned_to         TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	due_date            TIMESTAMPTZ NOT NULL,
	regulatory_deadline TIMESTAMPTZ
)`

// AlertArchive persists alerts to Postgres
type AlertArchive struct {
	pool *pgxpool.Pool
}

// NewAlertArchive connects to Postgres and ensures the alert table
// exists
func NewAlertArchive(ctx context.Context, databaseURL string) (*AlertArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &AlertArchive{pool: pool}, nil
}

// Close releases the connection pool
func (a *AlertArchive) Close() {
	a.pool.Close()
}

// SaveAlert upserts a single alert
func (a *AlertArchive) SaveAlert(ctx context.Context, alert models.ComplianceAlert) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO compliance_alerts (
			id, alert_type, severity, description, account_id, customer_id,
			transaction_ids, status, assigned_to, created_at, due_date, regulatory_deadline
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			assigned_to = EXCLUDED.assigned_to`,
		alert.ID, alert.Type, alert.Severity, alert.Description,
		alert.AccountID, alert.CustomerID, alert.TransactionIDs,
		alert.Status, alert.AssignedTo, alert.CreatedAt, alert.DueDate,
		alert.RegulatoryDeadline,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert %s: %w", alert.ID, err)
	}
	return nil
}

// Publish archives every alert in the snapshot. Implements
// stream.Sink.
func (a *AlertArchive) Publish(ctx context.Context, snap stream.Snapshot) error {
	for _, alert := range snap.Alerts {
		if err := a.SaveAlert(ctx, alert); err != nil {
			return err
		}
	}
	return nil
}

// RecentAlerts returns the newest archived alerts up to limit
func (a *AlertArchive) RecentAlerts(ctx context.Context, limit int) ([]models.ComplianceAlert, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, alert_type, severity, description, account_id, customer_id,
		       transaction_ids, status, assigned_to, created_at, due_date, regulatory_deadline
		FROM compliance_alerts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.ComplianceAlert
	for rows.Next() {
		var alert models.ComplianceAlert
		if err := rows.Scan(
			&alert.ID, &alert.Type, &alert.Severity, &alert.Description,
			&alert.AccountID, &alert.CustomerID, &alert.TransactionIDs,
			&alert.Status, &alert.AssignedTo, &alert.CreatedAt, &alert.DueDate,
			&alert.RegulatoryDeadline,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
