package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists risk scores in PostgreSQL. Schema is managed by the
// migrations in migrations/; see cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed risk score store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, score *RiskScore) error {
	metadataJSON, err := json.Marshal(score.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal score metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_scores (
			id, country_code, date,
			overall_score, news_score, conflict_score, economic_score, government_score,
			confidence_score, trend, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		score.ID,
		score.CountryCode,
		score.Date,
		score.OverallScore,
		score.NewsScore,
		score.ConflictScore,
		score.EconomicScore,
		score.GovernmentScore,
		score.ConfidenceScore,
		string(score.Trend),
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk score: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, countryCode string) (*RiskScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, country_code, date,
		       overall_score, news_score, conflict_score, economic_score, government_score,
		       confidence_score, trend, metadata
		FROM risk_scores
		WHERE country_code = $1
		ORDER BY date DESC
		LIMIT 1
	`, countryCode)

	score, err := scanRiskScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest risk score: %w", err)
	}
	return score, nil
}

func (s *PostgresStore) LatestBefore(ctx context.Context, countryCode string, since, before time.Time) (*RiskScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, country_code, date,
		       overall_score, news_score, conflict_score, economic_score, government_score,
		       confidence_score, trend, metadata
		FROM risk_scores
		WHERE country_code = $1 AND date >= $2 AND date < $3
		ORDER BY date DESC
		LIMIT 1
	`, countryCode, since, before)

	score, err := scanRiskScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prior risk score: %w", err)
	}
	return score, nil
}

func (s *PostgresStore) History(ctx context.Context, countryCode string, since time.Time) ([]*RiskScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country_code, date,
		       overall_score, news_score, conflict_score, economic_score, government_score,
		       confidence_score, trend, metadata
		FROM risk_scores
		WHERE country_code = $1 AND date >= $2
		ORDER BY date ASC
	`, countryCode, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*RiskScore
	for rows.Next() {
		score, err := scanRiskScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk score: %w", err)
		}
		result = append(result, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk scores: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRiskScore(row rowScanner) (*RiskScore, error) {
	var (
		score        RiskScore
		trend        string
		metadataJSON []byte
	)
	err := row.Scan(
		&score.ID,
		&score.CountryCode,
		&score.Date,
		&score.OverallScore,
		&score.NewsScore,
		&score.ConflictScore,
		&score.EconomicScore,
		&score.GovernmentScore,
		&score.ConfidenceScore,
		&trend,
		&metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	score.Trend = Trend(trend)
	if len(metadataJSON) > 0 {
		var meta Metadata
		if err := json.Unmarshal(metadataJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score metadata: %w", err)
		}
		score.Metadata = &meta
	}
	return &score, nil
}
