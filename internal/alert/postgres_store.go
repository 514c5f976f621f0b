package alert

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists alerts in PostgreSQL. Schema is managed by the
// migrations in migrations/; see cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed alert store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, a *Alert) error {
	evidenceJSON, err := json.Marshal(a.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal alert evidence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (
			id, country_code, alert_type, severity, title, description,
			risk_score, previous_score, confidence_score, change_percentage,
			status, evidence, triggered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		a.ID,
		a.CountryCode,
		string(a.Type),
		string(a.Severity),
		a.Title,
		a.Description,
		a.RiskScore,
		a.PreviousScore,
		a.ConfidenceScore,
		a.ChangePercent,
		a.Status,
		evidenceJSON,
		a.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentExists(ctx context.Context, countryCode string, t Type, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE country_code = $1 AND alert_type = $2 AND triggered_at >= $3
		)
	`, countryCode, string(t), since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent alerts: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country_code, alert_type, severity, title, description,
		       risk_score, previous_score, confidence_score, change_percentage,
		       status, evidence, triggered_at
		FROM alerts
		ORDER BY triggered_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return scanAlerts(rows)
}

func (s *PostgresStore) ListByCountry(ctx context.Context, countryCode string, limit int) ([]*Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country_code, alert_type, severity, title, description,
		       risk_score, previous_score, confidence_score, change_percentage,
		       status, evidence, triggered_at
		FROM alerts
		WHERE country_code = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`, countryCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts by country: %w", err)
	}
	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]*Alert, error) {
	defer func() { _ = rows.Close() }()

	var result []*Alert
	for rows.Next() {
		var (
			a            Alert
			alertType    string
			severity     string
			evidenceJSON []byte
		)
		err := rows.Scan(
			&a.ID,
			&a.CountryCode,
			&alertType,
			&severity,
			&a.Title,
			&a.Description,
			&a.RiskScore,
			&a.PreviousScore,
			&a.ConfidenceScore,
			&a.ChangePercent,
			&a.Status,
			&evidenceJSON,
			&a.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Type = Type(alertType)
		a.Severity = Severity(severity)
		if len(evidenceJSON) > 0 {
			var ev Evidence
			if err := json.Unmarshal(evidenceJSON, &ev); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert evidence: %w", err)
			}
			a.Evidence = &ev
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return result, nil
}
